// Package server serves flat stores over an RPC transport.
//
// Every configured shard gets its own store.IStore, either a local store (lstore) or a
// raft replicated store (dstore), on top of the maple or the bolt engine. Bolt files are
// placed in DataDir. Requests are decoded with the configured serializer and dispatched
// by the IStore adapter, which also answers batch and prefix requests when the store
// implements store.IBatchStore and store.IPrefixStore.
//
// Example:
//
//	s := server.NewRPCServer(
//		common.ServerConfig{
//			Shards:   []common.ServerShard{{ShardID: 100, Type: common.ShardTypeLocal, Engine: db.ImplBolt}},
//			DataDir:  "data",
//			Endpoint: "0.0.0.0:8080",
//			LogLevel: "info",
//		},
//		http.NewHttpServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	defer s.Close()
//	if err := s.Serve(); err != nil {
//		log.Fatal(err)
//	}
//
// Serve blocks while the transport is listening and must only be called once.
package server
