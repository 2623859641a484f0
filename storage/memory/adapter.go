// Package memory is an in-process storage of recorded rates.
// Nothing survives a restart
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jonah3272/boliviablue/storage/types"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

type key struct {
	base, target, source, rateType string
	asOf                           int64 // unix nanos
}

func keyOf(r *types.ExchangeRate) key {
	return key{
		base:     r.Base.String(),
		target:   r.Target.String(),
		source:   r.Source.String(),
		rateType: r.RateType.String(),
		asOf:     r.AsOf.UTC().UnixNano(),
	}
}

type Storage struct {
	data map[key]types.ExchangeRate

	mu sync.RWMutex
}

func NewStorage() *Storage {
	return &Storage{
		data: make(map[key]types.ExchangeRate),
	}
}

func (s *Storage) SaveExchangeRate(_ context.Context, r *types.ExchangeRate) error {
	elem := *r
	elem.AsOf = elem.AsOf.UTC()
	elem.FetchedAt = elem.FetchedAt.UTC()

	s.mu.Lock()
	s.data[keyOf(r)] = elem // key is unique
	s.mu.Unlock()

	return nil
}

// filter is a compiled rate query
type filter struct {
	target   *types.Currency
	rateType *types.RateType
	source   *types.Source
	base     types.Currency
}

func newFilter(query *types.RateQuery) filter {
	return filter{
		base:     query.Base,
		target:   query.Target,
		rateType: query.RateType,
		source:   query.Source,
	}
}

func (f filter) matches(v types.ExchangeRate) bool {
	switch {
	case v.Base != f.base:
		return false
	case f.target != nil && v.Target != *f.target:
		return false
	case f.source != nil && v.Source != *f.source:
		return false
	case f.rateType != nil && v.RateType != *f.rateType:
		return false
	default:
		return true
	}
}

func (s *Storage) RateAsOf(
	_ context.Context,
	query *types.RateQuery,
	asOf time.Time,
) (*types.Page[*types.ExchangeRate], error) {
	var (
		cutoff = asOf.UTC()
		f      = newFilter(query)
	)

	type bucket struct {
		target   types.Currency
		source   types.Source
		rateType types.RateType
	}

	latest := make(map[bucket]types.ExchangeRate)

	s.mu.RLock()

	for _, v := range s.data {
		if !f.matches(v) || v.AsOf.After(cutoff) {
			continue
		}

		b := bucket{
			target:   v.Target,
			source:   v.Source,
			rateType: v.RateType,
		}

		cur, ok := latest[b]
		if !ok ||
			v.AsOf.After(cur.AsOf) ||
			(v.AsOf.Equal(cur.AsOf) && v.FetchedAt.After(cur.FetchedAt)) {
			latest[b] = v
		}
	}

	s.mu.RUnlock()

	out := make([]*types.ExchangeRate, 0, len(latest))
	for _, v := range latest {
		cp := v
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}

		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}

		return out[i].RateType < out[j].RateType
	})

	return paginate(out, query.Limit, query.Offset), nil
}

func (s *Storage) RatesInRange(
	_ context.Context,
	query *types.RateQuery,
	from, to time.Time,
) ([]*types.ExchangeRate, error) {
	var (
		f   = newFilter(query)
		out = make([]*types.ExchangeRate, 0)
	)

	from, to = from.UTC(), to.UTC()

	s.mu.RLock()

	for _, v := range s.data {
		if !f.matches(v) || v.AsOf.Before(from) || v.AsOf.After(to) {
			continue
		}

		cp := v
		out = append(out, &cp)
	}

	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *types.ExchangeRate) int {
		if c := a.AsOf.Compare(b.AsOf); c != 0 {
			return c
		}

		if a.RateType != b.RateType {
			if a.RateType < b.RateType {
				return -1
			}

			return 1
		}

		if a.Source < b.Source {
			return -1
		}

		if a.Source > b.Source {
			return 1
		}

		return 0
	})

	return out, nil
}

// paginate slices the sorted results with the query limits
func paginate(out []*types.ExchangeRate, limit int32, offset int64) *types.Page[*types.ExchangeRate] {
	total := int64(len(out))
	if total == 0 {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   0,
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}

	if limit > maxLimit {
		limit = maxLimit
	}

	if offset >= total {
		return &types.Page[*types.ExchangeRate]{
			Results: nil,
			Total:   total,
		}
	}

	start := int(offset)
	end := min(start+int(limit), len(out))

	return &types.Page[*types.ExchangeRate]{
		Results: out[start:end],
		Total:   total,
	}
}

func (s *Storage) ListSources(_ context.Context) ([]types.Source, error) {
	s.mu.RLock()

	seen := make(map[types.Source]struct{})

	for _, v := range s.data {
		seen[v.Source] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]types.Source, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	slices.Sort(out)

	return out, nil
}

func (s *Storage) ListCurrencies(_ context.Context) ([]types.Currency, error) {
	s.mu.RLock()

	seen := make(map[types.Currency]struct{})

	for _, v := range s.data {
		seen[v.Base] = struct{}{}
		seen[v.Target] = struct{}{}
	}

	s.mu.RUnlock()

	out := make([]types.Currency, 0, len(seen))

	for v := range seen {
		out = append(out, v)
	}

	slices.Sort(out)

	return out, nil
}
