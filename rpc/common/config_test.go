package common

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/oKV/lib/db"
)

func TestParseShards(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []ServerShard
		wantErr string
	}{
		{
			name:  "single local",
			input: "100=lstore",
			want:  []ServerShard{{ShardID: 100, Type: ShardTypeLocal, Engine: db.ImplMaple}},
		},
		{
			name:  "mixed with engines",
			input: "100=lstore, 200=lstore(bolt),300=dstore(maple)",
			want: []ServerShard{
				{ShardID: 100, Type: ShardTypeLocal, Engine: db.ImplMaple},
				{ShardID: 200, Type: ShardTypeLocal, Engine: db.ImplBolt},
				{ShardID: 300, Type: ShardTypeReplicated, Engine: db.ImplMaple},
			},
		},
		{name: "trailing comma", input: "1=dstore,", want: []ServerShard{{ShardID: 1, Type: ShardTypeReplicated, Engine: db.ImplMaple}}},
		{name: "empty", input: "", wantErr: "no shards"},
		{name: "missing type", input: "100", wantErr: "expected ID=TYPE"},
		{name: "bad id", input: "abc=lstore", wantErr: "invalid shard id"},
		{name: "zero id", input: "0=lstore", wantErr: "invalid shard id"},
		{name: "duplicate id", input: "1=lstore,1=dstore", wantErr: "duplicate"},
		{name: "unknown type", input: "1=cache", wantErr: "invalid shard type"},
		{name: "unknown engine", input: "1=lstore(pebble)", wantErr: "invalid engine"},
		{name: "unclosed engine", input: "1=lstore(bolt", wantErr: "missing ')'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseShards(tt.input)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServerConfigString(t *testing.T) {
	cfg := ServerConfig{
		Shards:         []ServerShard{{ShardID: 1, Type: ShardTypeLocal, Engine: db.ImplBolt}},
		Endpoint:       ":8080",
		LogLevel:       "info",
		ClusterMembers: map[uint64]string{1: "localhost:63001"},
		ReplicaID:      1,
	}

	out := cfg.String()
	assert.Contains(t, out, ":8080")
	assert.Contains(t, out, "lstore (bolt)")
	assert.False(t, cfg.HasReplicatedShard())
	assert.NotContains(t, out, "RAFT")
	assert.NotContains(t, out, "TCP NoDelay")

	cfg.Transport = TransportTCP
	cfg.WorkersPerConnection = 4
	assert.Contains(t, cfg.String(), "TCP NoDelay")

	cfg.Shards = append(cfg.Shards, ServerShard{ShardID: 2, Type: ShardTypeReplicated, Engine: db.ImplMaple})
	assert.True(t, cfg.HasReplicatedShard())
	assert.Contains(t, cfg.String(), "localhost:63001")

	client := ClientConfig{Endpoints: []string{"http://a", "http://b"}, RetryCount: 3}
	assert.Equal(t, 2, strings.Count(client.String(), "http://"))
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error"} {
		_, err := ParseLogLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := ParseLogLevel("verbose")
	assert.Error(t, err)
}
