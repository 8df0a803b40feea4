// Package promofeed imports promotion definitions from gzipped CSV feeds.
//
// Each record is "code,type,value[,min_spend]". A header row starting with
// "code" is ignored. Imported promotions are active with no time window.
package promofeed

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"coffee-pos/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Loader reads one promotion feed.
type Loader interface {
	Load(ctx context.Context, path string) ([]model.Promotion, error)
}

// parse decodes a gzipped CSV stream. Malformed records are skipped.
func parse(ctx context.Context, r io.Reader, source string, logger zerolog.Logger) ([]model.Promotion, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gz.Close()

	reader := csv.NewReader(gz)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var promotions []model.Promotion
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logger.Warn().Err(err).Str("source", source).Int("line", line).Msg("skipping malformed line")
				continue
			}
			return nil, fmt.Errorf("error reading promotion feed %s: %w", source, err)
		}

		if line%10_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "code") {
			continue
		}

		p, err := parseRecord(record)
		if err != nil {
			logger.Warn().Err(err).Str("source", source).Int("line", line).Msg("skipping invalid promotion")
			continue
		}
		promotions = append(promotions, p)
	}

	return promotions, nil
}

func parseRecord(record []string) (model.Promotion, error) {
	if len(record) < 3 {
		return model.Promotion{}, fmt.Errorf("expected at least 3 fields, got %d", len(record))
	}

	code := strings.TrimSpace(record[0])
	if code == "" {
		return model.Promotion{}, errors.New("empty code")
	}

	promoType, ok := model.NormalizePromotionType(record[1])
	if !ok {
		return model.Promotion{}, fmt.Errorf("unknown type %q", record[1])
	}

	value, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil || !model.ValidPromotionValue(promoType, value) {
		return model.Promotion{}, fmt.Errorf("invalid %s value %q", promoType, record[2])
	}

	p := model.Promotion{
		Code:   code,
		Type:   promoType,
		Value:  value,
		Status: model.StatusActive,
	}

	if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
		minSpend, err := decimal.NewFromString(strings.TrimSpace(record[3]))
		if err != nil || minSpend.IsNegative() {
			return model.Promotion{}, fmt.Errorf("invalid min_spend %q", record[3])
		}
		p.MinSpend = &minSpend
	}

	return p, nil
}
