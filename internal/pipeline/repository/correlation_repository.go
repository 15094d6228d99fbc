package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-market-intel/internal/entity"
	"golang-market-intel/internal/pipeline/config"
	"golang-market-intel/internal/pipeline/dto"

	"github.com/patrickmn/go-cache"
)

// CorrelationRepository resolves an entity name to a canonical ticker and
// related instruments. The analysis engine consults it only when the
// classification output itself omitted a ticker, so every entity a signal
// might reference has an attachable instrument. The backing data is a
// pluggable, externally maintained table.
type CorrelationRepository interface {
	Resolve(ctx context.Context, name string, entityType entity.EntityType) (*dto.Correlation, error)
}

// NewStaticCorrelationRepository builds a lookup from configured entries.
// Resolution is by normalized name plus type, falling back to a name-only
// match, with a short-lived cache in front.
func NewStaticCorrelationRepository(entries []config.CorrelationEntry) CorrelationRepository {
	repo := &staticCorrelationRepository{
		byNameAndType: make(map[string]dto.Correlation),
		byName:        make(map[string]dto.Correlation),
		cache:         cache.New(30*time.Minute, time.Hour),
	}
	for _, e := range entries {
		corr := dto.Correlation{Ticker: e.Ticker, RelatedTickers: e.RelatedTickers}
		key := normalizeEntityName(e.Name)
		repo.byName[key] = corr
		repo.byNameAndType[key+"|"+strings.ToUpper(e.EntityType)] = corr
	}
	return repo
}

type staticCorrelationRepository struct {
	byNameAndType map[string]dto.Correlation
	byName        map[string]dto.Correlation
	cache         *cache.Cache
}

func (r *staticCorrelationRepository) Resolve(_ context.Context, name string, entityType entity.EntityType) (*dto.Correlation, error) {
	key := normalizeEntityName(name)
	cacheKey := key + "|" + string(entityType)

	if cached, found := r.cache.Get(cacheKey); found {
		corr := cached.(dto.Correlation)
		return &corr, nil
	}

	corr, ok := r.byNameAndType[cacheKey]
	if !ok {
		corr, ok = r.byName[key]
	}
	if !ok {
		return nil, fmt.Errorf("no correlation for %q (%s)", name, entityType)
	}

	r.cache.Set(cacheKey, corr, cache.DefaultExpiration)
	return &corr, nil
}

// corporateSuffixes are trailing tokens stripped during name normalization so
// "Apple Inc." and "apple" resolve to the same row.
var corporateSuffixes = []string{"inc", "inc.", "corp", "corp.", "corporation", "ltd", "ltd.", "plc", "co", "co.", "company", "sa", "ag", "nv", "se"}

func normalizeEntityName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.TrimSuffix(name, ",")
	fields := strings.Fields(name)
	for len(fields) > 1 {
		last := strings.Trim(fields[len(fields)-1], ",.")
		trimmed := false
		for _, suffix := range corporateSuffixes {
			if last == strings.Trim(suffix, ".") {
				fields = fields[:len(fields)-1]
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}
	return strings.Join(fields, " ")
}
