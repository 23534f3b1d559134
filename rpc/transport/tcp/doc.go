// Package tcp carries oKV rpc frames over TCP connections. It supplies the socket
// specific part of the base transport: dialing, listening and the socket options of
// common.SocketConfig (TCP_NODELAY, keep-alive, linger and buffer sizes).
//
// Use it when the backing stores of an ordered layer run on another machine and the
// overhead of HTTP matters:
//
//	okv serve --transport tcp --endpoint 0.0.0.0:9090 --shards 100=lstore(bolt)
//	okv db --transport tcp --endpoints host-a:9090,host-b:9090 range --gte user/
//
// Pooled server buffers hold 512 KiB. Requests above that size get a buffer of their
// own, the hard limit is base.MaxFrameSize.
package tcp
