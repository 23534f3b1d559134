package util

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		assert.LessOrEqual(t, len(line), Wrap)
		assert.NotEmpty(t, line)
	}
	assert.Equal(t, "short text", WrapString("  short   text "))
	assert.Empty(t, WrapString(""))
}

func TestClientConfigFromEnv(t *testing.T) {
	t.Setenv("OKV_ENDPOINTS", "a:1, b:2,,")
	t.Setenv("OKV_RETRIES", "5")
	t.Setenv("OKV_SHARD", "300")
	t.Setenv("OKV_SERIALIZER", "json")
	InitConfig()
	t.Cleanup(viper.Reset)

	conf := GetClientConfig()
	assert.Equal(t, []string{"a:1", "b:2"}, conf.Endpoints)
	assert.Equal(t, 5, conf.RetryCount)
	assert.Equal(t, uint64(300), GetShardID())

	s, err := GetSerializer()
	require.NoError(t, err)
	assert.NotNil(t, s)

	t.Setenv("OKV_SERIALIZER", "xml")
	_, err = GetSerializer()
	assert.Error(t, err)
}

func TestTransportFromEnv(t *testing.T) {
	InitConfig()
	t.Cleanup(viper.Reset)

	for _, name := range []string{"http", "tcp", "unix"} {
		t.Setenv("OKV_TRANSPORT", name)

		client, err := GetTransport()
		require.NoError(t, err, name)
		assert.NotNil(t, client, name)

		server, err := GetServerTransport()
		require.NoError(t, err, name)
		assert.NotNil(t, server, name)
	}

	t.Setenv("OKV_TRANSPORT", "quic")
	_, err := GetTransport()
	assert.Error(t, err)
	_, err = GetServerTransport()
	assert.Error(t, err)
}

func TestSocketConfigFromEnv(t *testing.T) {
	t.Setenv("OKV_WRITE_BUFFER", "64")
	t.Setenv("OKV_READ_BUFFER", "32")
	t.Setenv("OKV_TCP_NODELAY", "false")
	t.Setenv("OKV_TCP_KEEPALIVE", "30")
	t.Setenv("OKV_CONN_PER_ENDPOINT", "3")
	InitConfig()
	t.Cleanup(viper.Reset)

	conf := GetClientConfig()
	assert.Equal(t, 3, conf.ConnectionsPerEndpoint)
	assert.Equal(t, 64*1024, conf.Socket.WriteBufferSize)
	assert.Equal(t, 32*1024, conf.Socket.ReadBufferSize)
	assert.False(t, conf.Socket.TCPNoDelay)
	assert.Equal(t, 30, conf.Socket.TCPKeepAliveSec)
	assert.Zero(t, conf.Socket.TCPLingerSec)
}
