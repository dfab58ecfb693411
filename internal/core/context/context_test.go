package context

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActor(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, SystemActor, Actor(ctx))
	assert.Empty(t, GetUserID(ctx))

	ctx = WithUser(ctx, &UserContext{UserID: "u-42"})
	assert.Equal(t, "u-42", Actor(ctx))

	ctx = WithSystemUser(context.Background(), "seed")
	assert.Equal(t, "system:seed", Actor(ctx))
	assert.Equal(t, []string{SystemActor}, GetUser(ctx).Roles)
}

func TestWithJobTrace(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))

	ctx := WithJobTrace(context.Background(), "outbox-relay")
	trace := GetTrace(ctx)
	require.NotNil(t, trace)
	assert.True(t, strings.HasPrefix(trace.RequestID, "outbox-relay-"))
	assert.Len(t, trace.SpanID, 8)

	other := GetTrace(WithJobTrace(context.Background(), "outbox-relay"))
	assert.NotEqual(t, trace.TraceID, other.TraceID)
}
