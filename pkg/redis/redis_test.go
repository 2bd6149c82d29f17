package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigNew(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := Config{URL: "redis://" + mr.Addr(), ReadTimeout: 1, WriteTimeout: 1, DialTimeout: 1}
	client, err := cfg.New(context.Background())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestConfigNewWithoutURL(t *testing.T) {
	cfg := Config{}
	assert.False(t, cfg.Enabled())
	_, err := cfg.New(context.Background())
	assert.ErrorIs(t, err, ErrNoURL)
}

func TestConfigNewBadURL(t *testing.T) {
	cfg := Config{URL: "not a url"}
	_, err := cfg.New(context.Background())
	assert.Error(t, err)
}
