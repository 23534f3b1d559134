package base

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/transport"
)

var Logger = logger.GetLogger("transport/rpc")

var errClosed = errors.New("transport is closed")

// --------------------------------------------------------------------------
// Connector
// --------------------------------------------------------------------------

// IClientConnector is the part of a client transport that depends on the socket type
type IClientConnector interface {
	// GetName returns the transport name, e.g. "tcp"
	GetName() string

	// Connect dials endpoint
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// UpgradeConnection applies the socket options to a fresh connection
	UpgradeConnection(conn net.Conn, config common.SocketConfig) error
}

// --------------------------------------------------------------------------
// Client transport
// --------------------------------------------------------------------------

type response struct {
	data []byte
	err  error
}

// clientConn is one multiplexed connection. Requests are matched to responses by
// request id, so any number of requests can be in flight. A broken connection is
// redialed by the next request that picks it.
type clientConn struct {
	parent   *clientTransport
	endpoint string

	mu      sync.Mutex // guards conn and serializes frame writes
	conn    net.Conn
	pending *xsync.MapOf[uint64, chan response]
}

type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig

	mu     sync.RWMutex
	conns  []*clientConn
	closed atomic.Bool

	nextConn      atomic.Uint64
	nextRequestID atomic.Uint64
}

// NewBaseClientTransport returns a client transport that sends frames over the
// connections made by connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{connector: connector}
}

// Connect opens ConnectionsPerEndpoint connections to every endpoint. It fails when
// not a single one could be established. Connections that fail now are retried when
// a request picks them.
func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("%s transport: no endpoints configured", t.connector.GetName())
	}

	t.closeConnections()
	t.config = config
	t.closed.Store(false)

	perEndpoint := max(config.ConnectionsPerEndpoint, 1)
	conns := make([]*clientConn, 0, len(config.Endpoints)*perEndpoint)
	var (
		up      int
		lastErr error
	)
	for _, endpoint := range config.Endpoints {
		for i := 0; i < perEndpoint; i++ {
			c := &clientConn{
				parent:   t,
				endpoint: endpoint,
				pending:  xsync.NewMapOf[uint64, chan response](),
			}
			c.mu.Lock()
			_, err := c.ensure()
			c.mu.Unlock()
			if err != nil {
				lastErr = err
				Logger.Warningf("%s transport: %v", t.connector.GetName(), err)
			} else {
				up++
			}
			conns = append(conns, c)
		}
	}

	t.mu.Lock()
	t.conns = conns
	t.mu.Unlock()

	if up == 0 {
		t.closeConnections()
		return fmt.Errorf("%s transport: no endpoint reachable: %w", t.connector.GetName(), lastErr)
	}
	Logger.Infof("%s transport: %d of %d connections to %d endpoints established",
		t.connector.GetName(), up, len(conns), len(config.Endpoints))
	return nil
}

// Send writes req to the next connection and waits for the matching response. Failed
// attempts move on to the next connection after an exponential backoff with jitter.
func (t *clientTransport) Send(shardId uint64, req []byte) ([]byte, error) {
	attempts := max(t.config.RetryCount, 1)
	backoff := 50 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		c, err := t.pick()
		if err != nil {
			return nil, err
		}

		resp, err := c.roundTrip(shardId, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		Logger.Debugf("request to %s failed (attempt %d/%d): %v", c.endpoint, attempt, attempts, err)

		if attempt < attempts {
			time.Sleep(time.Duration(float64(backoff) * (0.9 + 0.2*rand.Float64())))
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", attempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.closed.Store(true)
	t.closeConnections()
	return nil
}

// pick returns the next connection in round robin order
func (t *clientTransport) pick() (*clientConn, error) {
	if t.closed.Load() {
		return nil, errClosed
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.conns) == 0 {
		return nil, fmt.Errorf("%s transport: not connected", t.connector.GetName())
	}
	return t.conns[t.nextConn.Add(1)%uint64(len(t.conns))], nil
}

func (t *clientTransport) closeConnections() {
	t.mu.Lock()
	conns := t.conns
	t.conns = nil
	t.mu.Unlock()

	for _, c := range conns {
		c.mu.Lock()
		if c.conn != nil {
			c.drop(c.conn, errClosed)
		}
		c.mu.Unlock()
	}
}

func (t *clientTransport) timeout() time.Duration {
	return time.Duration(t.config.TimeoutSecond) * time.Second
}

// --------------------------------------------------------------------------
// Connection
// --------------------------------------------------------------------------

// ensure returns the live connection, dialing a new one if needed. c.mu must be held.
func (c *clientConn) ensure() (net.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}
	if c.parent.closed.Load() {
		return nil, errClosed
	}

	conn, err := c.parent.connector.Connect(c.endpoint, c.parent.timeout())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config.Socket); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to configure connection to %s: %w", c.endpoint, err)
	}

	c.conn = conn
	go c.readResponses(conn)
	return conn, nil
}

// drop closes conn and fails every pending request. c.mu must be held.
func (c *clientConn) drop(conn net.Conn, cause error) {
	if c.conn != conn {
		return
	}
	c.conn = nil
	_ = conn.Close()

	c.pending.Range(func(_ uint64, ch chan response) bool {
		select {
		case ch <- response{err: cause}:
		default:
		}
		return true
	})
}

// roundTrip sends one request and waits for its response or the timeout
func (c *clientConn) roundTrip(shardID uint64, req []byte) ([]byte, error) {
	id := c.parent.nextRequestID.Add(1)
	ch := make(chan response, 1)
	c.pending.Store(id, ch)
	defer c.pending.Delete(id)

	timeout := c.parent.timeout()

	c.mu.Lock()
	conn, err := c.ensure()
	if err == nil {
		if timeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(timeout))
		}
		if err = writeFrame(conn, shardID, id, req); err != nil {
			c.drop(conn, err)
		}
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-ch:
		return res.data, res.err
	case <-expired:
		return nil, fmt.Errorf("request %d to %s timed out after %s", id, c.endpoint, timeout)
	}
}

// readResponses hands every frame read from conn to the request waiting for it.
// It ends when conn fails or is closed.
func (c *clientConn) readResponses(conn net.Conn) {
	for {
		shardID, id, data, err := readFrame(conn, nil)
		if err != nil {
			c.mu.Lock()
			c.drop(conn, fmt.Errorf("connection to %s lost: %w", c.endpoint, err))
			c.mu.Unlock()
			return
		}

		ch, ok := c.pending.Load(id)
		if !ok {
			Logger.Warningf("response for unknown request %d (shard %d) from %s", id, shardID, c.endpoint)
			continue
		}
		select {
		case ch <- response{data: data}:
		default:
		}
	}
}
