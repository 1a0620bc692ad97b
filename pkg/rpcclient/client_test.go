package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nspcc-dev/avail-go/internal/testmeta"
	"github.com/nspcc-dev/avail-go/pkg/availrpc"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// handlerFunc returns JSON-RPC result or error for the request.
type handlerFunc func(req *availrpc.Request) (any, *availrpc.Error)

// testServer is a JSON-RPC server counting requests per method.
type testServer struct {
	*httptest.Server

	lock  sync.Mutex
	calls map[string]int
	last  map[string][]any
}

func (s *testServer) count(method string) int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.calls[method]
}

func (s *testServer) params(method string) []any {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.last[method]
}

func newTestServer(t *testing.T, handlers map[string]handlerFunc) *testServer {
	s := &testServer{calls: make(map[string]int), last: make(map[string][]any)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := new(availrpc.Request)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.lock.Lock()
		s.calls[req.Method]++
		s.last[req.Method] = req.Params
		s.lock.Unlock()

		h, ok := handlers[req.Method]
		if !ok {
			writeResponse(t, w, req.ID, nil, availrpc.NewError(availrpc.MethodNotFoundCode, "Method not found", ""))
			return
		}
		res, rpcErr := h(req)
		if res == errHTTP {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeResponse(t, w, req.ID, res, rpcErr)
	}))
	t.Cleanup(s.Close)
	return s
}

// errHTTP makes the server reply with HTTP 500 and no body.
var errHTTP = &struct{ x int }{}

func writeResponse(t *testing.T, w http.ResponseWriter, id uint64, res any, rpcErr *availrpc.Error) {
	resp := map[string]any{"jsonrpc": "2.0", "id": id}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = res
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func constResult(v any) handlerFunc {
	return func(*availrpc.Request) (any, *availrpc.Error) { return v, nil }
}

func newTestClient(t *testing.T, s *testServer, opts Options) *Client {
	c, err := New(context.Background(), s.URL, opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// initTestCache fills the client cache with the test metadata.
func initTestCache(c *Client) {
	prefix := uint16(42)
	c.cacheLock.Lock()
	c.cache = cache{
		initDone:   true,
		genesis:    util.H256{1, 2, 3},
		runtime:    result.RuntimeVersion{SpecName: "avail", SpecVersion: 22, TransactionVersion: 1},
		meta:       testmeta.New(),
		properties: result.ChainProperties{SS58Format: &prefix},
	}
	c.cacheLock.Unlock()
}

var fastBackoff = []time.Duration{3 * time.Millisecond, 2 * time.Millisecond, time.Millisecond}

func TestRetryOnTransportError(t *testing.T) {
	var (
		lock  sync.Mutex
		fails = 2
		h     = util.H256{0xaa}
	)
	s := newTestServer(t, map[string]handlerFunc{
		availrpc.ChainGetFinalizedHead: func(*availrpc.Request) (any, *availrpc.Error) {
			lock.Lock()
			defer lock.Unlock()
			if fails > 0 {
				fails--
				return errHTTP, nil
			}
			return h, nil
		},
	})
	c := newTestClient(t, s, Options{RetryOnError: true, Backoff: fastBackoff})

	res, err := c.GetFinalizedHead()
	require.NoError(t, err)
	require.Equal(t, h, res)
	require.Equal(t, 3, s.count(availrpc.ChainGetFinalizedHead))
}

func TestRetryLadderExhausted(t *testing.T) {
	s := newTestServer(t, map[string]handlerFunc{
		availrpc.ChainGetFinalizedHead: constResult(errHTTP),
	})
	c := newTestClient(t, s, Options{RetryOnError: true, Backoff: fastBackoff})

	_, err := c.GetFinalizedHead()
	require.Error(t, err)
	require.Equal(t, 1+len(fastBackoff), s.count(availrpc.ChainGetFinalizedHead))
}

func TestRetryLadderOrder(t *testing.T) {
	var (
		lock     sync.Mutex
		attempts []time.Time
	)
	s := newTestServer(t, map[string]handlerFunc{
		availrpc.ChainGetFinalizedHead: func(*availrpc.Request) (any, *availrpc.Error) {
			lock.Lock()
			defer lock.Unlock()
			attempts = append(attempts, time.Now())
			return errHTTP, nil
		},
	})
	core, logs := observer.New(zapcore.WarnLevel)
	// Delays are taken from the end of the ladder.
	ladder := []time.Duration{60 * time.Millisecond, 2 * time.Millisecond, 20 * time.Millisecond}
	expected := []time.Duration{20 * time.Millisecond, 2 * time.Millisecond, 60 * time.Millisecond}
	c := newTestClient(t, s, Options{RetryOnError: true, Backoff: ladder, Logger: zap.New(core)})

	_, err := c.GetFinalizedHead()
	require.Error(t, err)

	entries := logs.FilterMessage("RPC request failed, retrying").All()
	require.Len(t, entries, len(expected))
	for i, e := range entries {
		require.Equal(t, expected[i], e.ContextMap()["delay"], i)
	}

	lock.Lock()
	defer lock.Unlock()
	require.Len(t, attempts, 1+len(expected))
	for i := range expected {
		require.GreaterOrEqual(t, attempts[i+1].Sub(attempts[i]), expected[i], i)
	}
	// Options are not changed by retries.
	require.Equal(t, []time.Duration{60 * time.Millisecond, 2 * time.Millisecond, 20 * time.Millisecond}, c.opts.Backoff)
}

func TestNoRetry(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		s := newTestServer(t, map[string]handlerFunc{
			availrpc.ChainGetFinalizedHead: constResult(errHTTP),
		})
		c := newTestClient(t, s, Options{Backoff: fastBackoff})
		_, err := c.GetFinalizedHead()
		require.Error(t, err)
		require.Equal(t, 1, s.count(availrpc.ChainGetFinalizedHead))
	})
	t.Run("RPC error", func(t *testing.T) {
		s := newTestServer(t, map[string]handlerFunc{
			availrpc.AuthorSubmitExtrinsic: func(*availrpc.Request) (any, *availrpc.Error) {
				return nil, availrpc.NewError(availrpc.InvalidTransactionCode, "Invalid Transaction", "Transaction is outdated")
			},
		})
		c := newTestClient(t, s, Options{RetryOnError: true, Backoff: fastBackoff})
		_, err := c.SubmitExtrinsic([]byte{1, 2, 3})
		var rpcErr *availrpc.Error
		require.True(t, errors.As(err, &rpcErr))
		require.Equal(t, int64(availrpc.InvalidTransactionCode), rpcErr.Code)
		require.True(t, availrpc.IsStale(err))
		require.Equal(t, 1, s.count(availrpc.AuthorSubmitExtrinsic))
		require.Equal(t, []any{"0x010203"}, s.params(availrpc.AuthorSubmitExtrinsic))
	})
	t.Run("bad result", func(t *testing.T) {
		s := newTestServer(t, map[string]handlerFunc{
			availrpc.ChainGetFinalizedHead: constResult(42),
		})
		c := newTestClient(t, s, Options{RetryOnError: true, Backoff: fastBackoff})
		_, err := c.GetFinalizedHead()
		require.Error(t, err)
		require.Equal(t, 1, s.count(availrpc.ChainGetFinalizedHead))
	})
}

func TestRetryContextCancelled(t *testing.T) {
	s := newTestServer(t, map[string]handlerFunc{
		availrpc.ChainGetFinalizedHead: constResult(errHTTP),
	})
	ctx, cancel := context.WithCancel(context.Background())
	c, err := New(ctx, s.URL, Options{RetryOnError: true, Backoff: []time.Duration{time.Hour}})
	require.NoError(t, err)
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err = c.GetFinalizedHead()
	require.Error(t, err)
}

func TestNotInitialized(t *testing.T) {
	s := newTestServer(t, nil)
	c := newTestClient(t, s, Options{})

	_, err := c.Metadata()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.RuntimeVersion()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.GenesisHash()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = c.GetEvents(util.H256{})
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestInitBadMetadata(t *testing.T) {
	s := newTestServer(t, map[string]handlerFunc{
		availrpc.ChainGetBlockHash:      constResult(util.H256{1}),
		availrpc.SystemProperties:       constResult(map[string]any{"ss58Format": 42, "tokenDecimals": 18, "tokenSymbol": "AVAIL"}),
		availrpc.StateGetRuntimeVersion: constResult(map[string]any{"specName": "avail", "specVersion": 22, "transactionVersion": 1}),
		availrpc.StateGetMetadata:       constResult("0x6d657461"),
	})
	c := newTestClient(t, s, Options{})
	require.Error(t, c.Init())
	_, err := c.Metadata()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestRefreshRuntime(t *testing.T) {
	s := newTestServer(t, map[string]handlerFunc{
		availrpc.StateGetRuntimeVersion: constResult(map[string]any{"specName": "avail", "specVersion": 23, "transactionVersion": 1}),
		availrpc.StateGetMetadata:       constResult("0x00"),
	})
	c := newTestClient(t, s, Options{})
	initTestCache(c)
	// Broken metadata doesn't change anything.
	_, err := c.RefreshRuntime()
	require.Error(t, err)
	rv, err := c.RuntimeVersion()
	require.NoError(t, err)
	require.EqualValues(t, 22, rv.SpecVersion)
}
