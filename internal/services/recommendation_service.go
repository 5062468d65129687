// Package services – RecommendationService
//
// This file implements the recommendation aggregator: it sums item quantities
// across historical order content and returns the most-ordered item names.
// Malformed content is skipped or defaulted, never surfaced as an error.
package services

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-order-backend/internal/domain"
	"github.com/tbourn/go-order-backend/internal/identity"
	"github.com/tbourn/go-order-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultRecommendationLimit = 8

// RecommendationService ranks previously ordered items.
type RecommendationService struct {
	DB         *gorm.DB
	Normalizer identity.Normalizer
	// Limit caps the result length; zero means 8.
	Limit int
}

// Recommend returns up to Limit item names ordered by total quantity
// descending, ties broken by name ascending. An empty mobile aggregates every
// order; otherwise only that owner's orders count.
func (s *RecommendationService) Recommend(ctx context.Context, mobile string) ([]string, error) {
	tr := otel.Tracer("services/RecommendationService")
	ctx, span := tr.Start(ctx, "Recommend",
		trace.WithAttributes(attribute.Bool("scoped", strings.TrimSpace(mobile) != "")),
	)
	defer span.End()

	if mobile = strings.TrimSpace(mobile); mobile != "" {
		if mobile = s.Normalizer.Normalize(mobile); mobile == "" {
			return []string{}, nil
		}
	}

	contents, err := repo.ListOrderItems(ctx, s.DB, mobile)
	if err != nil {
		return nil, err
	}

	limit := s.Limit
	if limit <= 0 {
		limit = defaultRecommendationLimit
	}
	return Rank(contents, limit), nil
}

// Rank aggregates raw item contents and returns the top limit names.
func Rank(contents []string, limit int) []string {
	totals := map[string]int{}
	for _, raw := range contents {
		items, ok := domain.DecodeItems(raw)
		if !ok {
			continue
		}
		for name, v := range items {
			totals[name] += quantity(v)
		}
	}

	names := make([]string, 0, len(totals))
	for name := range totals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if totals[a] != totals[b] {
			return totals[a] > totals[b]
		}
		return a < b
	})
	if len(names) > limit {
		names = names[:limit]
	}
	return names
}

// quantity converts a decoded JSON value to an item count: integers as-is,
// floats truncated, numeric strings parsed, booleans 1/0, anything else 1.
func quantity(v any) int {
	switch q := v.(type) {
	case json.Number:
		if n, err := q.Int64(); err == nil {
			return int(n)
		}
		if f, err := q.Float64(); err == nil {
			return int(math.Trunc(f))
		}
		return 1
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(q)); err == nil {
			return n
		}
		return 1
	case bool:
		if q {
			return 1
		}
		return 0
	default:
		return 1
	}
}
