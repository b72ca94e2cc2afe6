package command

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/hamed0406/sitecheck/internal/domain"
	"github.com/hamed0406/sitecheck/internal/report"
)

// MaxErrorLen bounds the error text shown to a caller.
const MaxErrorLen = 500

// ErrNoResults is returned when a batch produced nothing to show.
var ErrNoResults = errors.New("could not get information about the sites")

// BatchError wraps a failure of the batch as a whole.
type BatchError struct {
	Err error
}

func (e *BatchError) Error() string {
	return "Error checking sites:\n" + Truncate(e.Err.Error(), MaxErrorLen)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Runner checks a batch of sites; *sitecheck.Runner implements it.
type Runner interface {
	Run(ctx context.Context, queries []domain.SiteQuery, opts domain.CheckOptions) ([]domain.SiteReport, error)
}

// Result is a completed command.
type Result struct {
	Help    bool                `json:"help,omitempty"`
	Text    string              `json:"text,omitempty"`
	Options []string            `json:"options,omitempty"`
	Reports []domain.SiteReport `json:"reports,omitempty"`
	Pages   []report.Page       `json:"pages,omitempty"`
}

type Handler struct {
	Logger   *zap.Logger
	Runner   Runner
	PageSize int
}

func NewHandler(logger *zap.Logger, r Runner, pageSize int) *Handler {
	if pageSize <= 0 {
		pageSize = report.DefaultPageSize
	}
	return &Handler{Logger: logger, Runner: r, PageSize: pageSize}
}

// Execute runs one command line such as "check a.com b.com -s -p" or "help".
func (h *Handler) Execute(ctx context.Context, line string) (Result, error) {
	verb, args := Split(line)
	if verb == "help" {
		return Result{Help: true, Text: HelpText}, nil
	}
	return h.Check(ctx, args)
}

// Check validates args before anything is probed, then runs the batch.
// Input problems come back as *InputError and batch failures as *BatchError.
func (h *Handler) Check(ctx context.Context, args []string) (Result, error) {
	req, err := Parse(args)
	if err != nil {
		return Result{}, err
	}
	return h.Run(ctx, req)
}

// Run checks an already parsed request.
func (h *Handler) Run(ctx context.Context, req Request) (Result, error) {
	if len(req.Sites) == 0 {
		return Result{}, &InputError{Message: NoSitesMessage}
	}
	if req.Options.Empty() {
		return Result{}, &InputError{Message: NoOptionsMessage}
	}

	reports, err := h.Runner.Run(ctx, req.Sites, req.Options)
	if err != nil {
		h.Logger.Warn("batch_failed", zap.Int("sites", len(req.Sites)), zap.Error(err))
		return Result{}, &BatchError{Err: err}
	}
	pages := report.Build(reports, req.Options, h.PageSize)
	if len(pages) == 0 {
		return Result{}, &BatchError{Err: ErrNoResults}
	}
	return Result{
		Options: req.Options.Names(),
		Reports: report.Dedupe(reports),
		Pages:   pages,
	}, nil
}
