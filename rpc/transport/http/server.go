package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"

	"github.com/ValentinKolb/oKV/rpc/common"
	"github.com/ValentinKolb/oKV/rpc/transport"
)

var Logger = logger.GetLogger("transport/rpc")

// maxRequestSize bounds the body of a single rpc request
const maxRequestSize = 64 << 20

// NewHttpServerTransport returns a server transport serving
//
//	POST /{shardId}  one serialized request per body
//	GET  /metrics    prometheus metrics of the process
//	GET  /healthz    liveness check
func NewHttpServerTransport() transport.IRPCServerTransport {
	return &httpServerTransport{}
}

type httpServerTransport struct {
	handler transport.ServerHandleFunc
}

func (t *httpServerTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

// Listen blocks until the listener fails
func (t *httpServerTransport) Listen(config common.ServerConfig) error {
	if t.handler == nil {
		return fmt.Errorf("http transport: no handler registered")
	}

	srv := &http.Server{
		Addr:              config.Endpoint,
		Handler:           t.mux(config.LogLevel == "debug"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	Logger.Infof("listening on %s", config.Endpoint)
	return srv.ListenAndServe()
}

func (t *httpServerTransport) mux(debug bool) *http.ServeMux {
	var rpc http.Handler = http.HandlerFunc(t.serveRPC)
	if debug {
		rpc = withRequestLog(rpc)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /{shardId}", rpc)
	mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})
	return mux
}

// serveRPC passes the body to the registered handler and writes its answer back.
// Protocol errors are part of the answer, the status is only non 200 when the
// request never reached the handler.
func (t *httpServerTransport) serveRPC(w http.ResponseWriter, r *http.Request) {
	shardId, err := strconv.ParseUint(r.PathValue("shardId"), 10, 64)
	if err != nil {
		http.Error(w, "invalid shard id", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	_ = r.Body.Close()
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusRequestEntityTooLarge)
		return
	}

	start := time.Now()
	resp := t.handler(shardId, body)
	metrics.GetOrCreateHistogram(fmt.Sprintf(`okv_rpc_request_duration_seconds{shard="%d"}`, shardId)).UpdateDuration(start)
	metrics.GetOrCreateCounter(fmt.Sprintf(`okv_rpc_request_bytes_total{shard="%d"}`, shardId)).Add(len(body))

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err = w.Write(resp); err != nil {
		Logger.Errorf("shard %d: failed to write response: %v", shardId, err)
	}
}

// statusRecorder remembers the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		Logger.Debugf("%s %s => %d (%s)", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
