// Package dashboard builds the error reports page: it fetches every configured
// layer in order, renders its fragments and writes the composed page.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vdot-gis/error-reports-dashboard/internal/config"
	"github.com/vdot-gis/error-reports-dashboard/internal/fetcher"
	"github.com/vdot-gis/error-reports-dashboard/internal/generator"
	"github.com/vdot-gis/error-reports-dashboard/internal/report"
)

// LayerFetcher retrieves a feature layer by portal item id.
type LayerFetcher interface {
	FetchLayer(ctx context.Context, itemID string) (*fetcher.Layer, error)
}

// Builder produces the dashboard described by a Config.
type Builder struct {
	cfg     *config.Config
	fetcher LayerFetcher
	logger  *slog.Logger
	now     func() time.Time
	check   func() error
}

// NewBuilder returns a Builder for cfg that reads layers through f.
func NewBuilder(cfg *config.Config, f LayerFetcher, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, fetcher: f, logger: logger, now: time.Now, check: generator.CheckTemplates}
}

// Collect fetches every configured layer, one after another, and builds its report.
// The first failure aborts the run.
func (b *Builder) Collect(ctx context.Context) ([]*report.Report, error) {
	reports := make([]*report.Report, 0, len(b.cfg.Reports))
	for _, src := range b.cfg.Reports {
		b.logger.Info("fetching error report", "name", src.Name, "item", src.ItemID)

		layer, err := b.fetcher.FetchLayer(ctx, src.ItemID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", src.Name, err)
		}

		r, err := report.New(src, layer, b.cfg.PortalURL)
		if err != nil {
			return nil, err
		}
		b.logger.Debug("tallied error report",
			"name", r.Name,
			"records", len(r.Records),
			"new", r.Tally.New,
			"in_progress", r.Tally.InProgress,
			"fixed", r.Tally.Fixed,
			"cannot_fix", r.Tally.CannotFix,
		)
		reports = append(reports, r)
	}
	return reports, nil
}

// Render composes the page for reports.
func (b *Builder) Render(reports []*report.Report) (string, error) {
	frags := make([]generator.Fragments, 0, len(reports))
	for _, r := range reports {
		f, err := generator.Render(r)
		if err != nil {
			return "", err
		}
		frags = append(frags, f)
	}
	return generator.RenderPage(b.cfg.Title, b.now(), frags), nil
}

// Build collects, renders and writes the dashboard to the configured output path.
// Nothing is written unless every report was fetched and rendered and the
// templates left no placeholder unfilled.
func (b *Builder) Build(ctx context.Context) ([]*report.Report, error) {
	reports, err := b.Collect(ctx)
	if err != nil {
		return nil, err
	}

	html, err := b.Render(reports)
	if err != nil {
		return nil, err
	}
	if err := b.check(); err != nil {
		return nil, err
	}

	if err := generator.WritePage(b.cfg.Output, html); err != nil {
		return nil, err
	}
	b.logger.Info("dashboard written", "path", b.cfg.Output, "reports", len(reports))
	return reports, nil
}
