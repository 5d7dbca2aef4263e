package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestContext(t *testing.T) {
	require.NotNil(t, FromContext(context.Background()))

	log := zaptest.NewLogger(t)
	ctx := NewContext(context.Background(), log)
	require.Same(t, log, FromContext(ctx))
}
