package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithoutURL(t *testing.T) {
	assert.Nil(t, New(context.Background(), ""))
}

func TestNewUnreachable(t *testing.T) {
	assert.Nil(t, New(context.Background(), "127.0.0.1:1"))
	assert.Nil(t, New(context.Background(), "redis://%zz"))
}

func TestNilClientIsEmptyCache(t *testing.T) {
	var c *Client
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
	assert.NoError(t, c.Close())
}

func TestOptions(t *testing.T) {
	opts, err := options("localhost:6379")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts, err = options("redis://:secret@cache.internal:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
