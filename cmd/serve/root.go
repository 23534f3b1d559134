package serve

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmdUtil "github.com/ValentinKolb/oKV/cmd/util"
	"github.com/ValentinKolb/oKV/lib/db/util"
	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/server"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:   "serve",
		Short: "Start the oKV server",
		Long: `Start an oKV server holding the flat stores the ordered layer is built on.
Flags can also be set via environment variables OKV_<FLAG> (e.g. OKV_DATA_DIR=/var/lib/okv).`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "shards"
	ServeCmd.PersistentFlags().String(key, "100=lstore", cmdUtil.WrapString("Comma-separated list of shards to serve. Format: ID=TYPE or ID=TYPE(ENGINE) where TYPE is lstore or dstore and ENGINE is maple (default) or bolt, e.g. 100=lstore,200=lstore(bolt),300=dstore"))

	key = "rtt-millisecond"
	ServeCmd.PersistentFlags().Uint64(key, 100, cmdUtil.WrapString("(dstore) Average round trip time in milliseconds between two nodes. ElectionRTT and HeartbeatRTT are derived from it"))

	key = "snapshot-entries"
	ServeCmd.PersistentFlags().Uint64(key, 10, cmdUtil.WrapString("(dstore) Number of applied raft log entries between two automatic snapshots, 0 disables snapshotting"))

	key = "compaction-overhead"
	ServeCmd.PersistentFlags().Uint64(key, 5, cmdUtil.WrapString("(dstore) Number of log entries kept after a snapshot"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("Directory for raft data, snapshots and bolt database files"))

	key = "replica-id"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(dstore) Name of this node, must appear in cluster-members (e.g. 'node-1')"))

	key = "cluster-members"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("(dstore) Comma-separated list of raft nodes in the format 'node-1=localhost:63001,node-2=localhost:63002'"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("(dstore) Timeout of replicated operations in seconds"))

	key = "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("Address the server listens on, a socket path for the unix transport"))

	key = "transport"
	ServeCmd.PersistentFlags().String(key, common.TransportHTTP, cmdUtil.WrapString("Transport to serve the shards with (http, tcp, unix)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, 16, cmdUtil.WrapString("Requests handled in parallel per connection (tcp and unix only)"))

	cmdUtil.SetupSocketFlags(ServeCmd)

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("Log level (debug, info, warn, error)"))
}

// processConfig fills the server configuration from flags and the environment
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	shards, err := common.ParseShards(viper.GetString("shards"))
	if err != nil {
		return err
	}
	serveCmdConfig.Shards = shards

	serveCmdConfig.RTTMillisecond = viper.GetUint64("rtt-millisecond")
	serveCmdConfig.SnapshotEntries = viper.GetUint64("snapshot-entries")
	serveCmdConfig.CompactionOverhead = viper.GetUint64("compaction-overhead")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.WorkersPerConnection = viper.GetInt("workers-per-conn")
	serveCmdConfig.Socket = cmdUtil.GetSocketConfig()

	switch t := viper.GetString("transport"); t {
	case common.TransportHTTP, common.TransportTCP, common.TransportUnix:
		serveCmdConfig.Transport = t
	default:
		return fmt.Errorf("invalid transport %q (expected one of: http, tcp, unix)", t)
	}

	if !serveCmdConfig.HasReplicatedShard() {
		return nil
	}

	id := viper.GetString("replica-id")
	if id == "" {
		return fmt.Errorf("replica-id is required for dstore shards")
	}
	serveCmdConfig.ReplicaID = util.HashString(id, 0)

	members, err := parseClusterMembers(viper.GetString("cluster-members"))
	if err != nil {
		return err
	}
	if _, ok := members[serveCmdConfig.ReplicaID]; !ok {
		return fmt.Errorf("replica %q is not listed in cluster-members", id)
	}
	serveCmdConfig.ClusterMembers = members
	return nil
}

// parseClusterMembers parses "name=address,..." into raft replica ids and addresses.
// Replica ids are the hashes of the node names.
func parseClusterMembers(list string) (map[uint64]string, error) {
	members := make(map[uint64]string)
	for _, member := range strings.Split(list, ",") {
		member = strings.TrimSpace(member)
		if member == "" {
			continue
		}
		name, addr, ok := strings.Cut(member, "=")
		if !ok || name == "" || addr == "" {
			return nil, fmt.Errorf("invalid cluster member %q (expected NAME=ADDRESS)", member)
		}
		members[util.HashString(name, 0)] = addr
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("cluster-members is required for dstore shards")
	}
	return members, nil
}

func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	t, err := cmdUtil.GetServerTransport()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		t,
		s,
	)
	defer serv.Close()

	return serv.Serve()
}
