package scheduler

import (
	"context"

	"github.com/jonah3272/boliviablue/storage/types"
)

type refreshDelegate func(context.Context, types.Currency) (*types.RateSnapshot, error)

type mockRefresher struct {
	refreshFn refreshDelegate
}

func (m *mockRefresher) Refresh(ctx context.Context, currency types.Currency) (*types.RateSnapshot, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, currency)
	}

	return nil, nil
}
