package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ClientIP(ctx))
	assert.Empty(t, RequestID(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx = WithTime(WithRequestID(WithUserAgent(WithClientIP(ctx, "10.0.0.1"), "buro-callback/1.0"), "req-1"), fixed)
	assert.Equal(t, "10.0.0.1", ClientIP(ctx))
	assert.Equal(t, "buro-callback/1.0", UserAgent(ctx))
	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
}
