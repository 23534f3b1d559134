package http

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ValentinKolb/oKV/rpc/common"
)

// newTestServer starts a server transport whose handler echoes shard id and request
func newTestServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	st := &httpServerTransport{}
	st.RegisterHandler(func(shardId uint64, req []byte) []byte {
		if calls != nil {
			calls.Add(1)
		}
		return []byte(fmt.Sprintf("%d:%s", shardId, req))
	})
	srv := httptest.NewServer(st.mux(true))
	t.Cleanup(srv.Close)
	return srv
}

func connect(t *testing.T, endpoints ...string) *httpClientTransport {
	t.Helper()
	ct := NewHttpClientTransport().(*httpClientTransport)
	require.NoError(t, ct.Connect(common.ClientConfig{Endpoints: endpoints, TimeoutSecond: 5, RetryCount: 3}))
	t.Cleanup(func() { _ = ct.Close() })
	return ct
}

func TestSendRoundTrip(t *testing.T) {
	srv := newTestServer(t, nil)
	ct := connect(t, srv.URL)

	resp, err := ct.Send(42, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "42:hello", string(resp))
}

func TestEndpointWithoutScheme(t *testing.T) {
	srv := newTestServer(t, nil)
	ct := connect(t, srv.Listener.Addr().String())

	resp, err := ct.Send(1, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "1:x", string(resp))
}

func TestRoundRobin(t *testing.T) {
	var a, b atomic.Int32
	srvA := newTestServer(t, &a)
	srvB := newTestServer(t, &b)
	ct := connect(t, srvA.URL, srvB.URL)

	for i := 0; i < 10; i++ {
		_, err := ct.Send(1, []byte("x"))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(5), a.Load())
	assert.Equal(t, int32(5), b.Load())
}

func TestRetryOnDeadEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	ct := connect(t, deadURL, srv.URL)
	for i := 0; i < 4; i++ {
		resp, err := ct.Send(7, []byte("retry"))
		require.NoError(t, err)
		assert.Equal(t, "7:retry", string(resp))
	}
}

func TestAllEndpointsDown(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	ct := connect(t, deadURL)
	_, err := ct.Send(1, []byte("x"))
	assert.Error(t, err)
}

func TestInvalidShardId(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Post(srv.URL+"/not-a-number", "application/octet-stream", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)
	ct := connect(t, srv.URL)
	_, err := ct.Send(99, []byte("x"))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `okv_rpc_request_duration_seconds_count{shard="99"}`)
}

func TestNotConnected(t *testing.T) {
	ct := NewHttpClientTransport()
	_, err := ct.Send(1, nil)
	assert.Error(t, err)

	assert.Error(t, ct.Connect(common.ClientConfig{}))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}
