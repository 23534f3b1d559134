// Package unix carries oKV rpc frames over unix domain sockets. The endpoint of
// server and client is the socket path.
//
// It is the transport of choice when the ordered layer and the server holding its
// backing store share a host, for example a sidecar:
//
//	okv serve --transport unix --endpoint /run/okv.sock
//	okv db --transport unix --endpoints /run/okv.sock keys
//
// Only the buffer sizes of common.SocketConfig apply. Pooled server buffers hold
// 64 KiB.
package unix
