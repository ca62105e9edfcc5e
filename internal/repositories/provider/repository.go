package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var _ linking.EntityStore = (*Repository)(nil)

// Repository stores service providers in Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new provider repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

const (
	tableName = "service_providers"

	uniqueViolation = "23505"
)

// ListAll returns every provider ordered by id
func (r *Repository) ListAll(ctx context.Context) ([]models.CandidateEntity, error) {
	ctx, span := tracing.StartSpan(ctx, "ProviderRepository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "slug", "location")
	sb.From(tableName)
	sb.OrderBy("id ASC")

	query, args := sb.Build()

	items := []models.CandidateEntity{}
	err := r.db.Querier(ctx).SelectContext(ctx, &items, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		r.logger.WithContext(ctx).WithError(err).Error("failed to list providers")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list providers")
	}

	return items, nil
}

// Create inserts an auto-created provider and returns its id. It joins the
// transaction carried by ctx, if any.
func (r *Repository) Create(ctx context.Context, entity models.NewEntity) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "ProviderRepository.Create")
	defer span.End()

	now := time.Now()
	id := uuid.New().String()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto(tableName)
	sb.Cols("id", "name", "slug", "location", "email", "phone", "description", "auto_created", "created_at", "updated_at")
	sb.Values(id, entity.CanonicalName, entity.Slug, entity.Location, entity.Email, entity.Phone, entity.Description, true, now, now)

	query, args := sb.Build()

	_, err := r.db.Querier(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		tracing.RecordError(span, err)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", httperror.NewHTTPErrorf(http.StatusConflict, "provider slug %q already exists", entity.Slug)
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to create provider")
		return "", fmt.Errorf("failed to create provider: %w", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":   id,
		"name": entity.CanonicalName,
		"slug": entity.Slug,
	}).Info("created provider")

	return id, nil
}
