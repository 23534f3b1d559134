package tcp

import (
	"net"
	"time"

	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/transport"
	"github.com/ValentinKolb/oKV/rpc/transport/base"
)

// DefaultBufferSize is the size of the pooled server read buffers
const DefaultBufferSize = 512 << 10

type connector struct{}

func (connector) GetName() string {
	return common.TransportTCP
}

func (connector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("tcp", endpoint, timeout)
}

func (connector) Listen(endpoint string) (net.Listener, error) {
	return net.Listen("tcp", endpoint)
}

// UpgradeConnection applies the socket options to conn. Connections that are not
// TCP connections are left alone.
func (connector) UpgradeConnection(conn net.Conn, config common.SocketConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetNoDelay(config.TCPNoDelay); err != nil {
		return err
	}
	if config.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}
	if config.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}
	if config.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(config.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}
	if config.TCPLingerSec > 0 {
		if err := tcpConn.SetLinger(config.TCPLingerSec); err != nil {
			return err
		}
	}
	return nil
}

// NewTCPClientTransport returns a client transport over TCP connections
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(connector{})
}

// NewTCPServerTransport returns a server transport listening on a TCP address
func NewTCPServerTransport() *base.ServerTransport {
	return base.NewBaseServerTransport(connector{}, DefaultBufferSize)
}
