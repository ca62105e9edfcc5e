package autolink

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/linking"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Runner executes one auto-link batch.
type Runner interface {
	Run(ctx context.Context, opts linking.Options) (*linking.BatchReport, error)
}

// Handler serves the auto-link endpoints
type Handler struct {
	runner Runner
	scorer *matching.Scorer
	logger ectologger.Logger
}

// NewHandler creates a new auto-link handler
func NewHandler(runner Runner, logger ectologger.Logger) *Handler {
	return &Handler{
		runner: runner,
		scorer: matching.NewScorer(),
		logger: logger,
	}
}

// Register registers auto-link routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.AutoLink)
	g.GET("/score", h.Score)
}

// AutoLink runs a batch. Any failure before the batch produces a report is a
// 500 with the {success:false} envelope; per-service failures are in the 200 body.
func (h *Handler) AutoLink(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "autolink_handler.AutoLink")
	defer span.End()

	var req models.AutoLinkRequest
	if err := c.Bind(&req); err != nil {
		return h.fail(ctx, c, fmt.Errorf("%w: invalid request body", linking.ErrInvalidInput))
	}
	if err := validate.Struct(req); err != nil {
		return h.fail(ctx, c, fmt.Errorf("%w: %w", linking.ErrInvalidInput, err))
	}

	report, err := h.runner.Run(ctx, linking.Options{
		DryRun:    req.DryRun,
		Threshold: req.SimilarityThreshold,
	})
	if err != nil {
		tracing.RecordError(span, err)
		return h.fail(ctx, c, err)
	}

	return c.JSON(http.StatusOK, report.Response())
}

func (h *Handler) fail(ctx context.Context, c echo.Context, err error) error {
	h.logger.WithContext(ctx).WithError(err).Error("auto-link request failed")
	return c.JSON(http.StatusInternalServerError, models.AutoLinkErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// Score returns the similarity diagnostics for two provider names
func (h *Handler) Score(c echo.Context) error {
	ctx := c.Request().Context()
	_, span := tracing.StartSpan(ctx, "autolink_handler.Score")
	defer span.End()

	params := c.QueryParams()
	if !params.Has("a") || !params.Has("b") {
		return httperror.NewHTTPError(http.StatusBadRequest, "query parameters a and b are required")
	}

	a := normalizers.Fold(params.Get("a"))
	b := normalizers.Fold(params.Get("b"))

	return c.JSON(http.StatusOK, models.ScoreResponse{
		A:           a,
		B:           b,
		Exact:       h.scorer.ExactMatch(a, b),
		Levenshtein: h.scorer.Similarity(a, b),
		Jaro:        h.scorer.Jaro(a, b),
		JaroWinkler: h.scorer.JaroWinkler(a, b),
		SoundexA:    h.scorer.Soundex(a),
		SoundexB:    h.scorer.Soundex(b),
	})
}
