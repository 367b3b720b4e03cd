package summary

import (
	"context"
	"fmt"
	"sync"
	"time"

	"country-service/internal/artifact"
	"country-service/internal/domain"
	xerrors "country-service/pkg/xerrors"

	"go.uber.org/zap"
)

// Generator renders the summary card and stores it in a single overwritable slot.
type Generator struct {
	sink   artifact.Sink
	logger *zap.Logger
	mu     sync.Mutex
}

func NewGenerator(sink artifact.Sink, logger *zap.Logger) *Generator {
	return &Generator{sink: sink, logger: logger}
}

// Generate replaces the stored artifact and returns its reference. Any failure wraps xerrors.ErrRender.
func (g *Generator) Generate(ctx context.Context, total int64, top []domain.CountryGDP, lastRefreshed time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	start := time.Now()
	img, err := Render(Data{
		TotalCountries: total,
		LastRefreshed:  lastRefreshed,
		Rows:           Layout(top),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", xerrors.ErrRender, err)
	}

	data, err := EncodePNG(img)
	if err != nil {
		return "", fmt.Errorf("%w: %w", xerrors.ErrRender, err)
	}

	if err := g.sink.Write(ctx, data); err != nil {
		return "", fmt.Errorf("%w: %w", xerrors.ErrRender, err)
	}

	g.logger.Info("summary artifact generated",
		zap.String("ref", g.sink.Ref()),
		zap.Int("rows", len(top)),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)),
	)
	return g.sink.Ref(), nil
}

// Fetch returns the stored PNG, or xerrors.ErrNotFound if none was ever generated.
func (g *Generator) Fetch(ctx context.Context) ([]byte, error) {
	return g.sink.Read(ctx)
}
