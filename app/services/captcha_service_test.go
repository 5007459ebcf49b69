package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptchaServiceRotate(t *testing.T) {
	svc, err := NewCaptchaServiceRotate(2*time.Minute, 15, 220)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("GenerateChallenge", func(t *testing.T) {
		challenge, err := svc.GenerateRotate(ctx)
		require.NoError(t, err)

		assert.NotEmpty(t, challenge.ID)
		assert.True(t, strings.HasPrefix(challenge.MasterImageBase64, "data:image/"))
		assert.True(t, strings.HasPrefix(challenge.ThumbImageBase64, "data:image/"))
	})

	t.Run("ChallengesAreDistinct", func(t *testing.T) {
		first, err := svc.GenerateRotate(ctx)
		require.NoError(t, err)
		second, err := svc.GenerateRotate(ctx)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("UnknownChallengeFails", func(t *testing.T) {
		assert.False(t, svc.VerifyRotate(ctx, "no-such-challenge", 90))
	})

	t.Run("ChallengeIsSingleUse", func(t *testing.T) {
		challenge, err := svc.GenerateRotate(ctx)
		require.NoError(t, err)

		// A wrong answer still consumes the challenge
		svc.VerifyRotate(ctx, challenge.ID, -1)
		assert.False(t, svc.VerifyRotate(ctx, challenge.ID, -1))
	})

	t.Run("ExpiredChallengeFails", func(t *testing.T) {
		short, err := NewCaptchaServiceRotate(1*time.Nanosecond, 15, 220)
		require.NoError(t, err)

		challenge, err := short.GenerateRotate(ctx)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)
		assert.False(t, short.VerifyRotate(ctx, challenge.ID, 90))
	})
}
