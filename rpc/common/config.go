package common

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lni/dragonboat/v4/config"

	"github.com/ValentinKolb/oKV/lib/db"
)

// --------------------------------------------------------------------------
// helper functions for to interface with Dragonboat (for the server util)
// --------------------------------------------------------------------------

// Dragonboat uses RTT (Round Trip Time) to determine the timing of elections and heartbeats.
// These default values are selected according to the RAFT Paper
const (
	electionRTTFactor  = 10
	heartbeatRTTFactor = 1
)

// ToDragonboatConfig converts the ServerConfig to Dragonboat Config
func (c *ServerConfig) ToDragonboatConfig(shardId uint64) config.Config {
	return config.Config{
		ReplicaID:          c.ReplicaID,
		ShardID:            shardId,
		ElectionRTT:        electionRTTFactor,
		HeartbeatRTT:       heartbeatRTTFactor,
		CheckQuorum:        true,
		SnapshotEntries:    c.SnapshotEntries,
		CompactionOverhead: c.CompactionOverhead,
	}
}

// ToNodeHostConfig creates a NodeHostConfig for Dragonboat
func (c *ServerConfig) ToNodeHostConfig() config.NodeHostConfig {
	return config.NodeHostConfig{
		WALDir:         c.DataDir,
		NodeHostDir:    c.DataDir,
		RTTMillisecond: c.RTTMillisecond,
		RaftAddress:    c.ClusterMembers[c.ReplicaID],
	}
}

// --------------------------------------------------------------------------
// Shards
// --------------------------------------------------------------------------

// ShardType selects the flat store served for a shard
type ShardType string

const (
	ShardTypeLocal      ShardType = "lstore" // store local to this server
	ShardTypeReplicated ShardType = "dstore" // store replicated over the raft cluster
)

// ServerShard describes one shard of the RPC server
type ServerShard struct {
	// ShardID is the ID of the shard, clients address it in every request
	ShardID uint64
	// Type of the store behind the shard
	Type ShardType
	// Engine is the database engine of the store
	Engine db.Implementation
}

func (s ServerShard) String() string {
	return fmt.Sprintf("%d=%s(%s)", s.ShardID, s.Type, s.Engine)
}

// ParseShards parses a shard list like "100=lstore,200=lstore(bolt),300=dstore".
// The engine defaults to maple.
func ParseShards(list string) ([]ServerShard, error) {
	var shards []ServerShard
	seen := make(map[uint64]bool)

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		idStr, typeStr, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("invalid shard %q: expected ID=TYPE", part)
		}

		id, err := strconv.ParseUint(strings.TrimSpace(idStr), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid shard id %q: must be a positive integer", idStr)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate shard id %d", id)
		}
		seen[id] = true

		shard := ServerShard{ShardID: id, Engine: db.ImplMaple}
		typeStr = strings.TrimSpace(typeStr)
		if name, engine, hasEngine := strings.Cut(typeStr, "("); hasEngine {
			engine, closed := strings.CutSuffix(engine, ")")
			if !closed {
				return nil, fmt.Errorf("invalid shard %q: missing ')'", part)
			}
			typeStr = name
			shard.Engine = db.Implementation(strings.TrimSpace(engine))
		}

		switch ShardType(typeStr) {
		case ShardTypeLocal, ShardTypeReplicated:
			shard.Type = ShardType(typeStr)
		default:
			return nil, fmt.Errorf("invalid shard type %q: must be %s or %s", typeStr, ShardTypeLocal, ShardTypeReplicated)
		}
		switch shard.Engine {
		case db.ImplMaple, db.ImplBolt:
		default:
			return nil, fmt.Errorf("invalid engine %q: must be %s or %s", shard.Engine, db.ImplMaple, db.ImplBolt)
		}

		shards = append(shards, shard)
	}

	if len(shards) == 0 {
		return nil, fmt.Errorf("no shards configured")
	}
	return shards, nil
}

// --------------------------------------------------------------------------
// Transports
// --------------------------------------------------------------------------

// Names of the transports a server can listen on and a client can connect with
const (
	TransportHTTP = "http"
	TransportTCP  = "tcp"
	TransportUnix = "unix"
)

// SocketConfig tunes the connections of the tcp and unix transports. Zero values keep
// the operating system defaults. The TCP fields are ignored for unix sockets.
type SocketConfig struct {
	WriteBufferSize int // bytes
	ReadBufferSize  int // bytes
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

func (s SocketConfig) describe(f *formatter) {
	f.field("Write Buffer", fmt.Sprintf("%d bytes", s.WriteBufferSize))
	f.field("Read Buffer", fmt.Sprintf("%d bytes", s.ReadBufferSize))
	f.field("TCP NoDelay", strconv.FormatBool(s.TCPNoDelay))
	f.field("TCP KeepAlive", fmt.Sprintf("%d sec", s.TCPKeepAliveSec))
	f.field("TCP Linger", fmt.Sprintf("%d sec", s.TCPLingerSec))
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the RPC server and the RAFT cluster.
type ServerConfig struct {
	// Shards served by this server
	Shards []ServerShard

	// Dragonboat parameters
	RTTMillisecond     uint64
	SnapshotEntries    uint64
	CompactionOverhead uint64
	DataDir            string
	ReplicaID          uint64
	ClusterMembers     map[uint64]string

	// Timeout of replicated store operations
	TimeoutSecond int64

	// Transport settings. Endpoint is a host:port for http and tcp and a socket
	// path for unix.
	Transport            string
	Endpoint             string
	WorkersPerConnection int
	Socket               SocketConfig

	// Logging configuration
	LogLevel string
}

// HasReplicatedShard checks if the configuration contains any raft replicated shards
func (c *ServerConfig) HasReplicatedShard() bool {
	for _, shard := range c.Shards {
		if shard.Type == ShardTypeReplicated {
			return true
		}
	}
	return false
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	f := newFormatter()

	f.section("RPC Server")
	f.field("Transport", c.Transport)
	f.field("Endpoint", c.Endpoint)
	if c.Transport == TransportTCP || c.Transport == TransportUnix {
		f.field("Workers per Connection", strconv.Itoa(c.WorkersPerConnection))
		c.Socket.describe(f)
	}
	f.field("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	f.field("Data Directory", c.DataDir)

	f.section("Logging")
	f.field("Log Level", c.LogLevel)

	f.section("Shards")
	for _, shard := range c.Shards {
		f.field(strconv.FormatUint(shard.ShardID, 10), fmt.Sprintf("%s (%s)", shard.Type, shard.Engine))
	}

	if c.HasReplicatedShard() {
		f.section("Node Identity")
		f.field("RAFT Address", c.ClusterMembers[c.ReplicaID])
		f.field("Node ID", strconv.FormatUint(c.ReplicaID, 10))

		f.section("RAFT Parameters")
		f.field("Round Trip Time (ms)", fmt.Sprintf("%d ms", c.RTTMillisecond))
		f.field("Election RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*electionRTTFactor))
		f.field("Heartbeat RTT (ms)", fmt.Sprintf("%d", c.RTTMillisecond*heartbeatRTTFactor))
		f.field("Snapshot Entries", fmt.Sprintf("%d", c.SnapshotEntries))
		f.field("Compaction Overhead", fmt.Sprintf("%d", c.CompactionOverhead))

		f.section("Cluster Members")
		ids := make([]uint64, 0, len(c.ClusterMembers))
		for id := range c.ClusterMembers {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			f.field(fmt.Sprintf("Node %d", id), c.ClusterMembers[id])
		}
	}
	return f.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of RPC clients
type ClientConfig struct {
	Endpoints     []string
	TimeoutSecond int
	RetryCount    int

	// ConnectionsPerEndpoint is used by the socket transports, values < 1 mean one
	ConnectionsPerEndpoint int
	Socket                 SocketConfig
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	f := newFormatter()

	f.section("Client Configuration")
	f.field("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	f.field("Retry Count", strconv.Itoa(c.RetryCount))
	f.field("Conns per Endpoint", strconv.Itoa(max(c.ConnectionsPerEndpoint, 1)))
	c.Socket.describe(f)

	f.section("Endpoints")
	for i, endpoint := range c.Endpoints {
		f.field(strconv.Itoa(i), endpoint)
	}
	return f.String()
}

// formatter renders configs as titled sections of aligned fields
type formatter struct {
	strings.Builder
}

func newFormatter() *formatter {
	return &formatter{}
}

func (f *formatter) section(title string) {
	fmt.Fprintf(f, "\n%s\n", strings.ToUpper(title))
}

func (f *formatter) field(name, value string) {
	fmt.Fprintf(f, "  %-22s: %s\n", name, value)
}
