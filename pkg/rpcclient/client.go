package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/nspcc-dev/avail-go/pkg/availrpc"
	"github.com/nspcc-dev/avail-go/pkg/availrpc/result"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/metadata"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
	// BlockCacheSize is the number of the most recently fetched blocks kept
	// by the client.
	BlockCacheSize = 3
)

// DefaultBackoff is the default retry ladder. Entries are consumed from the
// end, so the first retry waits one second and the last one eight.
var DefaultBackoff = []time.Duration{8 * time.Second, 5 * time.Second, 3 * time.Second, 2 * time.Second, time.Second}

var (
	// ErrNotInitialized is returned from methods requiring Init to be called
	// before.
	ErrNotInitialized = errors.New("RPC client is not initialized")
	// ErrNotFound is returned when the node has no requested block or header.
	ErrNotFound = errors.New("not found")
)

// Client represents the middleman for executing JSON RPC calls to remote
// Avail nodes. Client is thread-safe and can be used from multiple
// goroutines.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	ctx      context.Context
	opts     Options
	log      *zap.Logger
	requestF func(*availrpc.Request) (*availrpc.Response, error)

	cacheLock sync.RWMutex
	// cache stores RPC node related information the client is bound to.
	// It's filled in during Init() and RefreshRuntime().
	cache cache

	// blocks are the most recently fetched blocks by hash.
	blocks *lru.Cache

	latestReqID *atomic.Uint64
	// getNextRequestID returns an ID to be used for the subsequent request
	// creation.
	getNextRequestID func() uint64
}

// Options defines options for the RPC client. All values are optional, zero
// durations are replaced by a default of 4 seconds.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// Limit total number of connections per host. No limit by default.
	MaxConnsPerHost int
	// RetryOnError enables retrying of requests failed at the transport
	// level, JSON-RPC errors are never retried.
	RetryOnError bool
	// Backoff is the retry delay ladder, DefaultBackoff if nil.
	Backoff []time.Duration
	// Logger is used to report retries, no logging if nil.
	Logger *zap.Logger
}

// cache stores cache values for the RPC client methods.
type cache struct {
	initDone   bool
	genesis    util.H256
	runtime    result.RuntimeVersion
	meta       *metadata.Metadata
	properties result.ChainProperties
}

// NewDefaultOptions returns options with retries enabled.
func NewDefaultOptions() Options {
	return Options{RetryOnError: true}
}

// New returns a new Client ready to use. Init should be called before using
// methods that need metadata or runtime version.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	cl := new(Client)
	err := initClient(ctx, cl, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func initClient(ctx context.Context, cl *Client, endpoint string, opts Options) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return err
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.Backoff == nil {
		opts.Backoff = DefaultBackoff
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	blocks, err := lru.New(BlockCacheSize)
	if err != nil {
		return err
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}

	cl.ctx = ctx
	cl.cli = httpClient
	cl.endpoint = u
	cl.opts = opts
	cl.log = opts.Logger
	cl.blocks = blocks
	cl.latestReqID = atomic.NewUint64(0)
	cl.getNextRequestID = cl.getRequestID
	cl.requestF = cl.makeHTTPRequest
	return nil
}

func (c *Client) getRequestID() uint64 {
	return c.latestReqID.Inc()
}

// Context returns client instance context.
func (c *Client) Context() context.Context {
	return c.ctx
}

// Endpoint returns the client endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Init caches genesis hash, runtime version, metadata and chain properties
// of the network the client is connected to. It must be called before
// any metadata-dependent requests.
func (c *Client) Init() error {
	genesis, err := c.GetBlockHash(0)
	if err != nil {
		return fmt.Errorf("failed to get genesis hash: %w", err)
	}
	props, err := c.GetProperties()
	if err != nil {
		return fmt.Errorf("failed to get chain properties: %w", err)
	}
	rv, meta, err := c.fetchRuntime()
	if err != nil {
		return err
	}

	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()
	c.cache.genesis = genesis
	c.cache.properties = *props
	c.cache.runtime = *rv
	c.cache.meta = meta
	c.cache.initDone = true
	return nil
}

// RefreshRuntime re-fetches runtime version and metadata, it's needed after
// runtime upgrades. It returns true if the runtime has changed.
func (c *Client) RefreshRuntime() (bool, error) {
	rv, meta, err := c.fetchRuntime()
	if err != nil {
		return false, err
	}
	c.cacheLock.Lock()
	defer c.cacheLock.Unlock()
	changed := c.cache.runtime.SpecVersion != rv.SpecVersion ||
		c.cache.runtime.TransactionVersion != rv.TransactionVersion
	c.cache.runtime = *rv
	c.cache.meta = meta
	if changed {
		// Cached blocks are decoded with the old metadata.
		c.blocks.Purge()
		c.log.Info("runtime upgraded", zap.Uint32("spec", rv.SpecVersion), zap.Uint32("tx", rv.TransactionVersion))
	}
	return changed, nil
}

func (c *Client) fetchRuntime() (*result.RuntimeVersion, *metadata.Metadata, error) {
	rv, err := c.GetRuntimeVersion(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get runtime version: %w", err)
	}
	meta, err := c.GetMetadata(nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return rv, meta, nil
}

// Metadata returns the cached runtime metadata.
func (c *Client) Metadata() (*metadata.Metadata, error) {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	if !c.cache.initDone {
		return nil, ErrNotInitialized
	}
	return c.cache.meta, nil
}

// RuntimeVersion returns the cached runtime version.
func (c *Client) RuntimeVersion() (result.RuntimeVersion, error) {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	if !c.cache.initDone {
		return result.RuntimeVersion{}, ErrNotInitialized
	}
	return c.cache.runtime, nil
}

// GenesisHash returns the cached genesis hash.
func (c *Client) GenesisHash() (util.H256, error) {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	if !c.cache.initDone {
		return util.H256{}, ErrNotInitialized
	}
	return c.cache.genesis, nil
}

// Properties returns the cached chain properties.
func (c *Client) Properties() (result.ChainProperties, error) {
	c.cacheLock.RLock()
	defer c.cacheLock.RUnlock()
	if !c.cache.initDone {
		return result.ChainProperties{}, ErrNotInitialized
	}
	return c.cache.properties, nil
}

// Close closes unused underlying networks connections.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

// performRequest sends the request and unmarshals the result into v,
// retrying transport failures according to the backoff ladder.
func (c *Client) performRequest(method string, p []any, v any) error {
	var ladder []time.Duration
	if c.opts.RetryOnError {
		ladder = append(ladder, c.opts.Backoff...)
	}
	for attempt := 1; ; attempt++ {
		start := time.Now()
		retriable, err := c.performOnce(method, p, v)
		observeRequest(method, time.Since(start), err)
		if err == nil || !retriable || len(ladder) == 0 {
			return err
		}
		delay := ladder[len(ladder)-1]
		ladder = ladder[:len(ladder)-1]
		retriesTotal.WithLabelValues(method).Inc()
		c.log.Warn("RPC request failed, retrying",
			zap.String("method", method),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		t := time.NewTimer(delay)
		select {
		case <-c.ctx.Done():
			t.Stop()
			return fmt.Errorf("%w (retries aborted: %v)", err, c.ctx.Err())
		case <-t.C:
		}
	}
}

// performOnce makes a single request, it also reports whether the failure
// (if any) can be retried.
func (c *Client) performOnce(method string, p []any, v any) (bool, error) {
	r := availrpc.NewRequest(c.getNextRequestID(), method, p...)
	raw, err := c.requestF(r)
	if raw != nil && raw.Error != nil {
		return false, raw.Error
	} else if err != nil {
		return !errors.Is(err, ErrWSConnLost), err
	} else if raw == nil || raw.Result == nil {
		return false, errors.New("no result returned")
	}
	if err = json.Unmarshal(raw.Result, v); err != nil {
		return false, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return false, nil
}

func (c *Client) makeHTTPRequest(r *availrpc.Request) (*availrpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(availrpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint.String(), buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and if
	// it parses, it has more relevant data than HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = fmt.Errorf("JSON decoding: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Ping attempts to create a connection to the endpoint and returns an error
// if there is any.
func (c *Client) Ping() error {
	conn, err := net.DialTimeout("tcp", c.endpoint.Host, c.opts.DialTimeout)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}

func (c *Client) cachedBlock(h util.H256) (*block.Block, bool) {
	v, ok := c.blocks.Get(h)
	if !ok {
		return nil, false
	}
	return v.(*block.Block), true
}
