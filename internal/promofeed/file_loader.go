package promofeed

import (
	"context"
	"fmt"
	"os"

	"coffee-pos/internal/model"

	"github.com/rs/zerolog"
)

type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader returns a Loader that reads feeds from the local file system.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-file-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Promotion, error) {
	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open promotion feed")
		return nil, fmt.Errorf("failed to open promotion feed %s: %w", path, err)
	}
	defer file.Close()

	promotions, err := parse(ctx, file, path, l.logger)
	if err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", path).Int("promotions", len(promotions)).Msg("promotion feed loaded")
	return promotions, nil
}
