package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/kebele/internal/pkg/apperrors"
)

func TestTokensLifecycle(t *testing.T) {
	ctx := context.Background()
	tokens := NewTokens()

	require.NoError(t, tokens.CreateToken(ctx, "refresh-1", 7, time.Now().Add(time.Hour)))
	require.NoError(t, tokens.CreateToken(ctx, "stale", 7, time.Now().Add(-time.Minute)))

	id, err := tokens.GetUserIDByToken(ctx, "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = tokens.GetUserIDByToken(ctx, "stale")
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	require.NoError(t, tokens.RevokeToken(ctx, "refresh-1"))
	_, err = tokens.GetUserIDByToken(ctx, "refresh-1")
	assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	assert.ErrorIs(t, tokens.RevokeToken(ctx, "missing"), apperrors.ErrTokenNotFound)
}
