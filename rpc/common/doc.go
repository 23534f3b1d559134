// Package common holds the types shared by the RPC client and server.
//
//   - Message: one struct for every request and response. Which fields are set
//     depends on the MessageType, the New*Request/New*Response helpers fill them.
//
//   - ServerConfig and ServerShard: the shards a server hosts (lstore or dstore,
//     maple or bolt engine) plus the Dragonboat parameters of replicated shards.
//     ParseShards reads the "100=lstore,200=lstore(bolt),300=dstore" notation.
//
//   - ClientConfig: endpoints, timeout and retry count of a client.
//
//   - Logging: InitLoggers installs a Dragonboat logger factory writing to stderr and
//     sets the level of every oKV and Dragonboat logger.
package common
