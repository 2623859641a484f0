package cache

import (
	"context"

	"github.com/jonah3272/boliviablue/storage/types"
)

type fetchDelegate func(context.Context, types.Currency) (*types.RateSnapshot, error)

type mockFetcher struct {
	fetchFn fetchDelegate
}

func (m *mockFetcher) Fetch(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, currency)
	}

	return nil, nil
}
