package promofeed

import (
	"context"
	"fmt"
	"strings"

	"coffee-pos/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Upserter stores promotions keyed by case-insensitive code.
type Upserter interface {
	Upsert(ctx context.Context, promotions []model.Promotion) (int, error)
}

// Importer loads feeds and writes them to the promotion store.
type Importer struct {
	loader Loader
	store  Upserter
	logger zerolog.Logger
}

// NewImporter creates an Importer.
func NewImporter(loader Loader, store Upserter, logger zerolog.Logger) *Importer {
	return &Importer{
		loader: loader,
		store:  store,
		logger: logger.With().Str("component", "promo-importer").Logger(),
	}
}

// Import loads all files concurrently and upserts the merged result.
// When a code appears more than once, the later file wins.
// Nothing is written if any file fails to load.
func (i *Importer) Import(ctx context.Context, files []string) (int, error) {
	if len(files) == 0 {
		return 0, nil
	}

	loaded := make([][]model.Promotion, len(files))
	g, gctx := errgroup.WithContext(ctx)

	for idx, path := range files {
		g.Go(func() error {
			promotions, err := i.loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load promotion feed %s: %w", path, err)
			}
			loaded[idx] = promotions
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	merged := make(map[string]int)
	var promotions []model.Promotion
	for _, feed := range loaded {
		for _, p := range feed {
			key := strings.ToLower(p.Code)
			if pos, ok := merged[key]; ok {
				promotions[pos] = p
				continue
			}
			merged[key] = len(promotions)
			promotions = append(promotions, p)
		}
	}

	n, err := i.store.Upsert(ctx, promotions)
	if err != nil {
		return 0, fmt.Errorf("failed to store promotions: %w", err)
	}

	i.logger.Info().
		Int("files", len(files)).
		Int("promotions", len(promotions)).
		Int("written", n).
		Msg("promotion feeds imported")

	return n, nil
}
