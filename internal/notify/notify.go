package notify

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"github.com/hamed0406/sitecheck/internal/report"
)

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// Multi sends to every notifier and returns all failures combined.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, title, text))
	}
	return err
}

// PublishPages posts each rendered page as its own message, in order.
// A failed page does not stop the rest.
func PublishPages(ctx context.Context, n Notifier, pages []report.Page) error {
	var err error
	for _, p := range pages {
		err = multierr.Append(err, n.Send(ctx, p.Title, pageBody(p)))
	}
	return err
}

func pageBody(p report.Page) string {
	if len(p.Fields) == 0 {
		return p.Notice
	}
	var b strings.Builder
	for i, f := range p.Fields {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Name)
		for _, l := range f.Lines {
			b.WriteString("\n> ")
			b.WriteString(l)
		}
	}
	return b.String()
}
