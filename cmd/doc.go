// Package cmd implements the okv command line interface.
//
// Subpackages:
//
//   - serve: runs flat key-value shards behind the http, tcp or unix RPC transport
//   - db: ordered store operations (put, get, range, batch, ...) against a served shard
//   - util: flag, environment and client setup shared by the commands
//
// Every flag can also be set through the environment as OKV_<FLAG> with dashes
// replaced by underscores (e.g. OKV_LOG_LEVEL=debug). .env and .env.local are loaded
// on start. See okv --help for a list of all commands.
package cmd
