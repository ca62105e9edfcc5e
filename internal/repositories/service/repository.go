package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var _ linking.RecordStore = (*Repository)(nil)

// Repository stores service listings in Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new service repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const tableName = "services"

// ListUnlinked returns every service without a provider, ordered by id
func (r *Repository) ListUnlinked(ctx context.Context) ([]models.UnlinkedRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.ListUnlinked")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "title", "provider", "location")
	sb.From(tableName)
	sb.Where(sb.IsNull("provider_id"))
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	items := []models.UnlinkedRecord{}
	err := r.db.Querier(ctx).SelectContext(ctx, &items, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("failed to list unlinked services")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list unlinked services")
	}

	return items, nil
}

// SetLink links a service to a provider. It only updates services that are
// still unlinked; a service that was linked concurrently is reported as a conflict.
func (r *Repository) SetLink(ctx context.Context, serviceID, providerID string) error {
	ctx, span := tracing.StartSpan(ctx, "ServiceRepository.SetLink")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update(tableName)
	sb.Set(
		sb.Assign("provider_id", providerID),
		sb.Assign("updated_at", time.Now()),
	)
	sb.Where(
		sb.Equal("id", serviceID),
		sb.IsNull("provider_id"),
	)

	query, args := sb.Build()

	res, err := r.db.Querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).WithField("service_id", serviceID).Error("failed to link service")
		return fmt.Errorf("failed to link service: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to link service: %w", err)
	}
	if affected == 0 {
		return httperror.NewHTTPErrorf(http.StatusConflict, "service %s is already linked or does not exist", serviceID)
	}

	return nil
}
