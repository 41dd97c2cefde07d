package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fastygo/buyerleads/internal/testutil"
	authUC "github.com/fastygo/buyerleads/usecase/auth"
)

func TestSeed_IsIdempotent(t *testing.T) {
	store := testutil.NewStore()
	ctx := context.Background()

	require.NoError(t, seed(ctx, store.Users(), store, store, zap.NewNop()))
	assert.Equal(t, 2, store.BuyerCount())

	require.NoError(t, seed(ctx, store.Users(), store, store, zap.NewNop()))
	assert.Equal(t, 2, store.BuyerCount())

	demo, err := store.Users().GetByID(ctx, authUC.UserID(demoEmail))
	require.NoError(t, err)
	assert.Equal(t, "Demo User", demo.Name)
}
