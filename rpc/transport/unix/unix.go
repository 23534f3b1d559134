package unix

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/transport"
	"github.com/ValentinKolb/oKV/rpc/transport/base"
)

// DefaultBufferSize is the size of the pooled server read buffers
const DefaultBufferSize = 64 << 10

type connector struct{}

func (connector) GetName() string {
	return common.TransportUnix
}

func (connector) Connect(path string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", path, timeout)
}

// Listen removes a stale socket file at path before listening on it
func (connector) Listen(path string) (net.Listener, error) {
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("failed to remove stale socket %q: %w", path, err)
	}
	return net.Listen("unix", path)
}

// UpgradeConnection sets the socket buffer sizes. The TCP options do not apply.
func (connector) UpgradeConnection(conn net.Conn, config common.SocketConfig) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}
	if config.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}
	if config.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}
	return nil
}

// NewUnixClientTransport returns a client transport over unix domain sockets
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(connector{})
}

// NewUnixServerTransport returns a server transport listening on a socket path
func NewUnixServerTransport() *base.ServerTransport {
	return base.NewBaseServerTransport(connector{}, DefaultBufferSize)
}
