package base

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"

	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/transport"
)

// IServerConnector is the part of a server transport that depends on the socket type
type IServerConnector interface {
	// GetName returns the transport name, e.g. "tcp"
	GetName() string

	// Listen opens the listener for endpoint
	Listen(endpoint string) (net.Listener, error)

	// UpgradeConnection applies the socket options to an accepted connection
	UpgradeConnection(conn net.Conn, config common.SocketConfig) error
}

// ServerTransport accepts framed requests on the listener of its connector. Requests
// of one connection are handled by up to WorkersPerConnection goroutines, responses
// carry the request id and may be written out of order.
type ServerTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	bufferPool sync.Pool

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
}

// NewBaseServerTransport returns a server transport whose read buffers hold
// bufferSize bytes. Larger requests get a buffer of their own.
func NewBaseServerTransport(connector IServerConnector, bufferSize int) *ServerTransport {
	t := &ServerTransport{
		connector: connector,
		conns:     make(map[net.Conn]struct{}),
	}
	t.bufferPool.New = func() any {
		buf := make([]byte, bufferSize)
		return &buf
	}
	return t
}

func (t *ServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

// Listen opens the listener for config.Endpoint and serves it until Close
func (t *ServerTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("%s transport: no handler registered", t.connector.GetName())
	}
	t.config = config

	listener, err := t.connector.Listen(config.Endpoint)
	if err != nil {
		return fmt.Errorf("%s transport: %w", t.connector.GetName(), err)
	}
	Logger.Infof("%s transport: listening on %s with %d workers per connection",
		t.connector.GetName(), config.Endpoint, t.workers())
	return t.Serve(listener)
}

// Serve accepts connections on listener until Close is called
func (t *ServerTransport) Serve(listener net.Listener) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		_ = listener.Close()
		return nil
	}
	t.listener = listener
	t.mu.Unlock()

	for {
		conn, err := listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			Logger.Errorf("%s transport: accept failed: %v", t.connector.GetName(), err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		if err := t.connector.UpgradeConnection(conn, t.config.Socket); err != nil {
			Logger.Errorf("%s transport: failed to configure connection from %s: %v", t.connector.GetName(), conn.RemoteAddr(), err)
			_ = conn.Close()
			continue
		}
		if !t.track(conn) {
			_ = conn.Close()
			return nil
		}
		go t.handleConnection(conn)
	}
}

// Close stops accepting and closes all open connections
func (t *ServerTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	for conn := range t.conns {
		_ = conn.Close()
	}
	return err
}

func (t *ServerTransport) track(conn net.Conn) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return false
	}
	t.conns[conn] = struct{}{}
	return true
}

func (t *ServerTransport) untrack(conn net.Conn) {
	t.mu.Lock()
	delete(t.conns, conn)
	t.mu.Unlock()
}

func (t *ServerTransport) workers() int {
	return max(t.config.WorkersPerConnection, 1)
}

// handleConnection reads frames until the client hangs up. Every request runs in a
// worker; reading blocks while all workers of the connection are busy.
func (t *ServerTransport) handleConnection(conn net.Conn) {
	defer t.untrack(conn)
	defer conn.Close()

	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
		slots   = make(chan struct{}, t.workers())
		timeout = time.Duration(t.config.TimeoutSecond) * time.Second
	)

	respond := func(shardID, requestID uint64, payload []byte) {
		start := time.Now()
		resp := t.handler(shardID, payload)
		metrics.GetOrCreateHistogram(fmt.Sprintf(`okv_rpc_request_duration_seconds{shard="%d"}`, shardID)).UpdateDuration(start)
		metrics.GetOrCreateCounter(fmt.Sprintf(`okv_rpc_request_bytes_total{shard="%d"}`, shardID)).Add(len(payload))

		writeMu.Lock()
		defer writeMu.Unlock()
		if timeout > 0 {
			_ = conn.SetWriteDeadline(time.Now().Add(timeout))
		}
		if err := writeFrame(conn, shardID, requestID, resp); err != nil {
			Logger.Errorf("failed to write response %d to %s: %v", requestID, conn.RemoteAddr(), err)
		}
	}

	for {
		bufp := t.bufferPool.Get().(*[]byte)
		shardID, requestID, payload, err := readFrame(conn, *bufp)
		if err != nil {
			t.bufferPool.Put(bufp)
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				Logger.Debugf("connection from %s closed", conn.RemoteAddr())
			} else {
				Logger.Errorf("connection from %s: %v", conn.RemoteAddr(), err)
			}
			break
		}

		slots <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() {
				t.bufferPool.Put(bufp)
				<-slots
				wg.Done()
			}()
			respond(shardID, requestID, payload)
		}()
	}

	wg.Wait()
}

var _ transport.IRPCServerTransport = (*ServerTransport)(nil)
