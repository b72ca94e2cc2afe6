package sitecheck

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/monitoring"
)

var (
	ErrNoSites   = errors.New("no sites to check")
	ErrNoOptions = errors.New("no check options requested")
)

// Checker checks a single site. *Orchestrator implements it.
type Checker interface {
	Check(ctx context.Context, q domain.SiteQuery, opts domain.CheckOptions) domain.SiteReport
}

// Runner checks a batch of sites concurrently and returns the reports in input order.
type Runner struct {
	Logger  *zap.Logger
	Checker Checker
	Metrics *monitoring.Metrics

	// Concurrency caps sites in flight; zero or less runs every site at once.
	Concurrency int
}

func NewRunner(logger *zap.Logger, checker Checker, m *monitoring.Metrics, concurrency int) *Runner {
	if concurrency < 0 {
		concurrency = 0
	}
	return &Runner{
		Logger:      logger,
		Checker:     checker,
		Metrics:     m,
		Concurrency: concurrency,
	}
}

// Run checks every query with the same options. Result i belongs to query i,
// duplicates included. It fails only for an empty batch, an empty option set
// or a cancelled context; individual site failures live in the reports.
func (r *Runner) Run(ctx context.Context, queries []domain.SiteQuery, opts domain.CheckOptions) ([]domain.SiteReport, error) {
	if len(queries) == 0 {
		return nil, ErrNoSites
	}
	if opts.Empty() {
		return nil, ErrNoOptions
	}

	batchID := uuid.NewString()
	start := time.Now()
	out := make([]domain.SiteReport, len(queries))

	var g errgroup.Group
	if r.Concurrency > 0 {
		g.SetLimit(r.Concurrency)
	}
	for i, q := range queries {
		i, q := i, q // per-iteration copies for go < 1.22
		g.Go(func() error {
			out[i] = r.checkOne(ctx, batchID, q, opts)
			return nil
		})
	}
	_ = g.Wait()
	r.Metrics.IncBatch(len(queries))

	r.Logger.Info("batch_done",
		zap.String("batch_id", batchID),
		zap.Int("sites", len(queries)),
		zap.String("options", opts.String()),
		zap.Duration("took", time.Since(start)),
	)

	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("batch %s interrupted: %w", batchID, err)
	}
	return out, nil
}

// checkOne isolates a panicking checker so the rest of the batch completes.
func (r *Runner) checkOne(ctx context.Context, batchID string, q domain.SiteQuery, opts domain.CheckOptions) (rep domain.SiteReport) {
	rep = domain.SiteReport{Query: q, FullURL: string(q)}
	defer func() {
		if v := recover(); v != nil {
			r.Logger.Error("site_check_panic",
				zap.String("batch_id", batchID),
				zap.String("site", string(q)),
				zap.String("panic", fmt.Sprint(v)),
			)
		}
	}()
	return r.Checker.Check(ctx, q, opts)
}
