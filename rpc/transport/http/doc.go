// Package http implements the transport interfaces over plain HTTP.
//
// Requests are POSTed to /{shardId} with the serialized message as body. The server
// also exposes the VictoriaMetrics registry on GET /metrics, including the ordered
// layer counters and a per-shard request duration histogram.
//
// The client balances requests round robin over all endpoints. A request that fails
// to reach an endpoint is retried on the next one, up to RetryCount attempts.
// The client is safe for concurrent use.
package http
