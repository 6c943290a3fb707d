package seed_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-store/internal/core"
	"phone-store/internal/store/memory"
	"phone-store/internal/store/seed"
)

func TestDemo_LoadMemory(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	store := memory.New()
	seed.Demo(now).LoadMemory(store)

	pricing := core.NewPricingEngine(store, core.Settings{Now: func() time.Time { return now }})

	pixel, err := pricing.Quote(context.Background(), "pixel-8", time.Time{})
	require.NoError(t, err)
	assert.True(t, pixel.EffectivePrice.Equal(decimal.NewFromInt(649)), pixel.EffectivePrice.String())
	assert.Equal(t, "launch-week", pixel.PromotionID)

	iphone, err := pricing.Quote(context.Background(), "iphone-15", time.Time{})
	require.NoError(t, err)
	assert.True(t, iphone.EffectivePrice.Equal(iphone.CatalogPrice))
	assert.Empty(t, iphone.PromotionID)

	// The promotion runs out a month later.
	later, err := pricing.Quote(context.Background(), "pixel-8", now.AddDate(0, 2, 0))
	require.NoError(t, err)
	assert.True(t, later.EffectivePrice.Equal(decimal.NewFromInt(699)))
}
