package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nspcc-dev/avail-go/pkg/availrpc"
	"github.com/nspcc-dev/avail-go/pkg/block"
	"go.uber.org/zap"
)

// WSClient is a websocket-enabled RPC client. It has the same API as Client
// but uses a persistent connection and also provides subscriptions to new
// and finalized heads. Receiver channels are closed when the connection is
// lost or the client is closed.
type WSClient struct {
	Client

	ws       *websocket.Conn
	done     chan struct{}
	requests chan *availrpc.Request
	shutdown chan struct{}

	closeOnce sync.Once
	closeErr  error

	respLock  sync.Mutex
	respChans map[uint64]chan *availrpc.Response

	subsLock      sync.RWMutex
	subscriptions map[string]*subscription
	// pending are subscriptions by request ID, they're registered by
	// wsReader when the response is received.
	pending map[uint64]*subscription
	// early keeps notifications that arrived before the subscription
	// response, they're only collected while some subscription is pending.
	early map[string][]json.RawMessage
}

type subscription struct {
	id          string
	unsubscribe string
	rcvr        chan<- *block.Header
}

// wsMessage is a combined type for responses and notifications since we can
// get any of them here.
type wsMessage struct {
	JSONRPC string                      `json:"jsonrpc"`
	ID      *uint64                     `json:"id,omitempty"`
	Method  string                      `json:"method,omitempty"`
	Params  availrpc.SubscriptionParams `json:"params"`
	Error   *availrpc.Error             `json:"error,omitempty"`
	Result  json.RawMessage             `json:"result,omitempty"`
}

const (
	// Message limit for receiving side.
	wsReadLimit = 10 * 1024 * 1024

	// Disconnection timeout.
	wsPongLimit = 60 * time.Second

	// Ping period for connection liveness check.
	wsPingPeriod = wsPongLimit / 2

	// Write deadline.
	wsWriteLimit = wsPingPeriod / 2

	// Maximum number of notifications kept for unknown subscription.
	maxEarlyNotifications = 16

	// Maximum number of unknown subscriptions notifications are kept for.
	maxEarlySubscriptions = 8
)

// ErrWSConnLost is returned from requests made after the connection loss.
var ErrWSConnLost = errors.New("connection lost")

// NewWS returns a new WSClient ready to use (with established websocket
// connection). You need to use websocket URL for it like `ws://1.2.3.4:9944`.
func NewWS(ctx context.Context, endpoint string, opts Options) (*WSClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	if dialer.HandshakeTimeout <= 0 {
		dialer.HandshakeTimeout = defaultDialTimeout
	}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	wsc := &WSClient{
		ws:            ws,
		shutdown:      make(chan struct{}),
		done:          make(chan struct{}),
		requests:      make(chan *availrpc.Request),
		respChans:     make(map[uint64]chan *availrpc.Response),
		subscriptions: make(map[string]*subscription),
		pending:       make(map[uint64]*subscription),
		early:         make(map[string][]json.RawMessage),
	}
	err = initClient(ctx, &wsc.Client, endpoint, opts)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	wsc.Client.cli = nil
	wsc.Client.requestF = wsc.makeWsRequest
	go wsc.wsReader()
	go wsc.wsWriter()
	return wsc, nil
}

// Close closes connection to the remote side rendering this client instance
// unusable.
func (c *WSClient) Close() {
	c.closeOnce.Do(func() {
		// Closing shutdown channel sends a signal to wsWriter to break out of
		// the loop. In doing so it does ws.Close() closing the network
		// connection which in turn makes wsReader receive an error from
		// ws.ReadJSON() and also break out of the loop closing c.done.
		close(c.shutdown)
	})
	<-c.done
}

// GetError returns the reason of connection loss, it's nil if the client
// was closed properly or the connection is still alive.
func (c *WSClient) GetError() error {
	select {
	case <-c.done:
		return c.closeErr
	default:
		return nil
	}
}

func (c *WSClient) wsReader() {
	c.ws.SetReadLimit(wsReadLimit)
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	})
	var connErr error
readloop:
	for {
		msg := new(wsMessage)
		err := c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		if err == nil {
			err = c.ws.ReadJSON(msg)
		}
		if err != nil {
			// Timeout/connection loss/malformed response.
			connErr = fmt.Errorf("failed to read JSON response (timeout/connection loss/malformed response): %w", err)
			break readloop
		}
		switch {
		case msg.ID == nil && msg.Method != "":
			c.notify(msg.Params)
		case msg.ID != nil && (msg.Error != nil || msg.Result != nil):
			resp := new(availrpc.Response)
			resp.ID = json.RawMessage(strconv.FormatUint(*msg.ID, 10))
			resp.JSONRPC = msg.JSONRPC
			resp.Error = msg.Error
			resp.Result = msg.Result
			c.respLock.Lock()
			ch, ok := c.respChans[*msg.ID]
			delete(c.respChans, *msg.ID)
			c.respLock.Unlock()
			if !ok {
				c.log.Debug("unexpected response", zap.Uint64("id", *msg.ID))
				continue
			}
			if msg.Error == nil {
				c.register(*msg.ID, msg.Result)
			}
			ch <- resp // Buffered.
		default:
			connErr = errors.New("malformed message, neither valid response nor notification")
			break readloop
		}
	}
	select {
	case <-c.shutdown:
		connErr = nil
	default:
	}
	c.closeErr = connErr
	close(c.done)

	c.respLock.Lock()
	for id, ch := range c.respChans {
		close(ch)
		delete(c.respChans, id)
	}
	c.respLock.Unlock()

	c.subsLock.Lock()
	closed := make(map[chan<- *block.Header]bool)
	for id, sub := range c.subscriptions {
		if !closed[sub.rcvr] {
			close(sub.rcvr)
			closed[sub.rcvr] = true
		}
		delete(c.subscriptions, id)
	}
	c.subsLock.Unlock()
	if connErr != nil {
		c.log.Warn("websocket connection lost", zap.Error(connErr))
	}
}

func (c *WSClient) notify(p availrpc.SubscriptionParams) {
	c.subsLock.Lock()
	sub, ok := c.subscriptions[p.Subscription]
	if !ok {
		c.keepEarly(p)
		c.subsLock.Unlock()
		return
	}
	c.subsLock.Unlock()
	c.deliver(sub.rcvr, p.Result)
}

// keepEarly stores notification of unknown subscription if it can belong
// to some pending one. Must be called with subsLock held.
func (c *WSClient) keepEarly(p availrpc.SubscriptionParams) {
	list, known := c.early[p.Subscription]
	if len(c.pending) == 0 ||
		(!known && len(c.early) >= maxEarlySubscriptions) ||
		len(list) >= maxEarlyNotifications {
		c.log.Debug("dropping notification for unknown subscription", zap.String("id", p.Subscription))
		return
	}
	c.early[p.Subscription] = append(list, p.Result)
}

// register activates pending subscription made by the request with the
// given ID and delivers notifications received before it. It's only called
// from wsReader, so all notifications are delivered by it.
func (c *WSClient) register(reqID uint64, result json.RawMessage) {
	c.subsLock.Lock()
	sub, ok := c.pending[reqID]
	if !ok {
		c.subsLock.Unlock()
		return
	}
	delete(c.pending, reqID)
	if err := json.Unmarshal(result, &sub.id); err != nil {
		c.dropEarly()
		c.subsLock.Unlock()
		return
	}
	c.subscriptions[sub.id] = sub
	early := c.early[sub.id]
	delete(c.early, sub.id)
	c.dropEarly()
	c.subsLock.Unlock()
	for _, raw := range early {
		c.deliver(sub.rcvr, raw)
	}
}

// dropEarly forgets early notifications when there are no pending
// subscriptions. Must be called with subsLock held.
func (c *WSClient) dropEarly() {
	if len(c.pending) == 0 {
		clear(c.early)
	}
}

func (c *WSClient) deliver(rcvr chan<- *block.Header, raw json.RawMessage) {
	h := new(block.Header)
	if err := json.Unmarshal(raw, h); err != nil {
		c.log.Warn("failed to decode header notification", zap.Error(err))
		return
	}
	select {
	case rcvr <- h:
	case <-c.shutdown:
	}
}

func (c *WSClient) wsWriter() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer c.ws.Close()
	defer pingTicker.Stop()
	for {
		select {
		case <-c.shutdown:
			return
		case <-c.done:
			return
		case req := <-c.requests:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout)); err != nil {
				return
			}
			if err := c.ws.WriteJSON(req); err != nil {
				return
			}
		case <-pingTicker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) makeWsRequest(r *availrpc.Request) (*availrpc.Response, error) {
	ch := make(chan *availrpc.Response, 1)
	c.respLock.Lock()
	select {
	case <-c.done:
		c.respLock.Unlock()
		return nil, ErrWSConnLost
	default:
	}
	c.respChans[r.ID] = ch
	c.respLock.Unlock()

	drop := func() {
		c.respLock.Lock()
		delete(c.respChans, r.ID)
		c.respLock.Unlock()
	}
	select {
	case <-c.done:
		drop()
		return nil, ErrWSConnLost
	case c.requests <- r:
	}
	t := time.NewTimer(c.opts.RequestTimeout)
	defer t.Stop()
	select {
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrWSConnLost
		}
		return resp, nil
	case <-t.C:
		drop()
		return nil, fmt.Errorf("%s: timeout", r.Method)
	case <-c.ctx.Done():
		drop()
		return nil, c.ctx.Err()
	}
}

// ReceiveNewHeads subscribes to new best block headers. Headers are sent
// to rcvr until Unsubscribe is called or the connection is lost (rcvr is
// closed then).
func (c *WSClient) ReceiveNewHeads(rcvr chan<- *block.Header) (string, error) {
	return c.subscribe(availrpc.ChainSubscribeNewHeads, availrpc.ChainUnsubscribeNewHeads, rcvr)
}

// ReceiveFinalizedHeads subscribes to finalized block headers, see
// ReceiveNewHeads for details.
func (c *WSClient) ReceiveFinalizedHeads(rcvr chan<- *block.Header) (string, error) {
	return c.subscribe(availrpc.ChainSubscribeFinalized, availrpc.ChainUnsubscribeFinal, rcvr)
}

func (c *WSClient) subscribe(method, unsubscribe string, rcvr chan<- *block.Header) (string, error) {
	if rcvr == nil {
		return "", errors.New("nil receiver")
	}
	var (
		sub = &subscription{unsubscribe: unsubscribe, rcvr: rcvr}
		r   = availrpc.NewRequest(c.getNextRequestID(), method)
	)
	c.subsLock.Lock()
	c.pending[r.ID] = sub
	c.subsLock.Unlock()

	start := time.Now()
	resp, err := c.makeWsRequest(r)
	if err == nil && resp.Error != nil {
		err = resp.Error
	}
	observeRequest(method, time.Since(start), err)
	c.subsLock.Lock()
	defer c.subsLock.Unlock()
	delete(c.pending, r.ID)
	c.dropEarly()
	if err != nil {
		// The response might be processed by wsReader after the timeout.
		if sub.id != "" && c.subscriptions[sub.id] == sub {
			delete(c.subscriptions, sub.id)
		}
		return "", err
	}
	if sub.id == "" {
		return "", fmt.Errorf("%s: bad subscription ID %s", method, resp.Result)
	}
	select {
	case <-c.done:
		return "", ErrWSConnLost
	default:
	}
	return sub.id, nil
}

// Unsubscribe cancels the subscription with the given ID. The receiver
// channel is not closed.
func (c *WSClient) Unsubscribe(id string) error {
	c.subsLock.Lock()
	sub, ok := c.subscriptions[id]
	if !ok {
		c.subsLock.Unlock()
		return errors.New("no subscription with this ID")
	}
	delete(c.subscriptions, id)
	delete(c.early, id)
	c.subsLock.Unlock()

	var resp bool
	if err := c.performRequest(sub.unsubscribe, []any{id}, &resp); err != nil {
		return err
	}
	if !resp {
		return errors.New("unsubscribe method returned false result")
	}
	return nil
}

// UnsubscribeAll cancels all active subscriptions.
func (c *WSClient) UnsubscribeAll() error {
	c.subsLock.RLock()
	ids := make([]string, 0, len(c.subscriptions))
	for id := range c.subscriptions {
		ids = append(ids, id)
	}
	c.subsLock.RUnlock()
	for _, id := range ids {
		if err := c.Unsubscribe(id); err != nil {
			return err
		}
	}
	return nil
}
