package serve

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/oKV/lib/db/util"
	"github.com/ValentinKolb/oKV/rpc/common"
)

func TestParseClusterMembers(t *testing.T) {
	members, err := parseClusterMembers("node-1=localhost:63001, node-2=localhost:63002")
	require.NoError(t, err)
	assert.Equal(t, map[uint64]string{
		util.HashString("node-1", 0): "localhost:63001",
		util.HashString("node-2", 0): "localhost:63002",
	}, members)

	for _, list := range []string{"", "node-1", "=addr", "node-1="} {
		_, err = parseClusterMembers(list)
		assert.Error(t, err, list)
	}
}

func TestProcessConfigTransport(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, ServeCmd.ParseFlags([]string{"--transport", "tcp", "--workers-per-conn", "8", "--write-buffer", "128"}))
	require.NoError(t, processConfig(ServeCmd, nil))
	assert.Equal(t, common.TransportTCP, serveCmdConfig.Transport)
	assert.Equal(t, 8, serveCmdConfig.WorkersPerConnection)
	assert.Equal(t, 128*1024, serveCmdConfig.Socket.WriteBufferSize)

	require.NoError(t, ServeCmd.ParseFlags([]string{"--transport", "quic"}))
	assert.Error(t, processConfig(ServeCmd, nil))
}
