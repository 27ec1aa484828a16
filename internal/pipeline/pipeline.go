// Package pipeline orchestrates claim ingestion, verification, review, reader
// feedback and the read paths over the record store.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"

	"github.com/ppiankov/verifact/internal/alert"
	"github.com/ppiankov/verifact/internal/cluster"
	"github.com/ppiankov/verifact/internal/detect"
	"github.com/ppiankov/verifact/internal/evidence"
	"github.com/ppiankov/verifact/internal/index"
	"github.com/ppiankov/verifact/internal/metrics"
	"github.com/ppiankov/verifact/internal/store"
	"github.com/ppiankov/verifact/internal/verdict"
)

var (
	// ErrInvalidInput rejects requests that fail validation
	ErrInvalidInput = errors.New("invalid input")
	// ErrClaimNotFound and its siblings wrap store.ErrNotFound
	ErrClaimNotFound    = fmt.Errorf("claim %w", store.ErrNotFound)
	ErrVerdictNotFound  = fmt.Errorf("verdict %w", store.ErrNotFound)
	ErrClusterNotFound  = fmt.Errorf("cluster %w", store.ErrNotFound)
	ErrFeedbackNotFound = fmt.Errorf("feedback %w", store.ErrNotFound)
	// ErrNoIndex is returned by operations that need the similarity index when
	// the pipeline was built without one
	ErrNoIndex = errors.New("similarity index is not open")
)

var tracer = otel.Tracer("verifact.pipeline")

const (
	// NoClaimMessage is reported when ingested text holds nothing checkable
	NoClaimMessage = "No verifiable claim detected in the text"
	// ClaimStoredMessage is reported when a claim was detected and stored
	ClaimStoredMessage = "Claim detected and stored successfully"

	detailSimilarK         = 5
	detailSimilarThreshold = 0.8
	excerptLimit           = 500
)

// Deps are the collaborators a pipeline drives. Index, Fetcher, Alerts, Clusters
// and Metrics may be nil.
type Deps struct {
	Store    *store.Store
	Index    *index.Service
	Detector *detect.Detector
	Evidence *evidence.Aggregator
	Fetcher  *evidence.Fetcher
	Verdicts *verdict.Generator
	Alerts   *alert.Raiser
	Clusters *cluster.Engine
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Pipeline orchestrates the claim lifecycle
type Pipeline struct {
	store    *store.Store
	index    *index.Service
	detector *detect.Detector
	evidence *evidence.Aggregator
	fetcher  *evidence.Fetcher
	verdicts *verdict.Generator
	alerts   *alert.Raiser
	clusters *cluster.Engine
	metrics  *metrics.Metrics
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a pipeline over d
func New(d Deps) *Pipeline {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    d.Store,
		index:    d.Index,
		detector: d.Detector,
		evidence: d.Evidence,
		fetcher:  d.Fetcher,
		verdicts: d.Verdicts,
		alerts:   d.Alerts,
		clusters: d.Clusters,
		metrics:  d.Metrics,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With("component", "pipeline"),
		now:      time.Now,
	}
}

// notFound maps a store miss onto the pipeline sentinel, leaving other errors alone
func notFound(err, sentinel error) error {
	if errors.Is(err, store.ErrNotFound) {
		return sentinel
	}
	return err
}

func (p *Pipeline) check(req any) error {
	if err := p.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %s", ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}
