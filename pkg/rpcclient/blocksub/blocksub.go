/*
Package blocksub provides a polling-based block subscription. Subscriber
follows the best or the finalized chain from the given height emitting
every block exactly once and in order, it doesn't need websocket
connection and it survives temporary RPC failures.
*/
package blocksub

import (
	"context"
	"fmt"
	"time"

	"github.com/nspcc-dev/avail-go/pkg/block"
	"github.com/nspcc-dev/avail-go/pkg/util"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is the default head polling interval.
	DefaultPollInterval = 5 * time.Second
	// DefaultRetryCount is the default number of subsequent failed
	// requests tolerated by Next.
	DefaultRetryCount = 5
)

// Mode is the chain followed by Subscriber.
type Mode byte

const (
	// Best follows the best chain, blocks can be reorganized out.
	Best Mode = iota
	// Finalized follows finalized blocks only.
	Finalized
)

// RPC is an interface required from the RPC client by Subscriber.
type RPC interface {
	Context() context.Context
	GetBestHeader() (*block.Header, error)
	GetFinalizedHead() (util.H256, error)
	GetHeader(h util.H256) (*block.Header, error)
	GetBlockHash(n uint32) (util.H256, error)
	GetBlock(h util.H256) (*block.Block, error)
}

// Config is the Subscriber configuration, zero values are replaced with
// defaults.
type Config struct {
	Mode         Mode
	PollInterval time.Duration
	// RetryCount is the number of subsequent failed requests after which
	// Next returns an error.
	RetryCount int
	Logger     *zap.Logger
}

// Subscriber is a polling block subscription. It's not thread-safe.
type Subscriber struct {
	rpc    RPC
	cfg    Config
	next   uint32
	tip    uint32
	hasTip bool
	fails  int
}

// New creates a Subscriber that starts from the block with the given
// number.
func New(rpc RPC, start uint32, cfg Config) *Subscriber {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = DefaultRetryCount
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Subscriber{rpc: rpc, cfg: cfg, next: start}
}

// NewFromHead creates a Subscriber starting from the current head of the
// chain followed.
func NewFromHead(rpc RPC, cfg Config) (*Subscriber, error) {
	s := New(rpc, 0, cfg)
	tip, err := s.head()
	if err != nil {
		return nil, err
	}
	s.next = tip
	return s, nil
}

// Height returns the number of the block that will be returned by the next
// Next call.
func (s *Subscriber) Height() uint32 {
	return s.next
}

func (s *Subscriber) head() (uint32, error) {
	var (
		h   *block.Header
		err error
	)
	if s.cfg.Mode == Finalized {
		var fin util.H256
		fin, err = s.rpc.GetFinalizedHead()
		if err == nil {
			h, err = s.rpc.GetHeader(fin)
		}
	} else {
		h, err = s.rpc.GetBestHeader()
	}
	if err != nil {
		return 0, err
	}
	return uint32(h.Number), nil
}

func (s *Subscriber) fetch(n uint32) (*block.Block, error) {
	h, err := s.rpc.GetBlockHash(n)
	if err != nil {
		return nil, err
	}
	return s.rpc.GetBlock(h)
}

// failed counts the error, it returns an error if there were too many of
// them in a row.
func (s *Subscriber) failed(what string, err error) error {
	s.fails++
	s.cfg.Logger.Debug("block subscription request failed",
		zap.String("request", what),
		zap.Uint32("height", s.next),
		zap.Int("attempt", s.fails),
		zap.Error(err))
	if s.fails > s.cfg.RetryCount {
		s.fails = 0
		return fmt.Errorf("failed to get %s: %w", what, err)
	}
	return nil
}

// Next returns the next block waiting for it to appear if needed. Errors
// are returned after RetryCount subsequent failures, the Subscriber can be
// used after that and it continues from the same height.
func (s *Subscriber) Next(ctx context.Context) (*block.Block, error) {
	for {
		if s.hasTip && s.next <= s.tip {
			b, err := s.fetch(s.next)
			if err == nil {
				s.fails = 0
				s.next++
				return b, nil
			}
			if err = s.failed(fmt.Sprintf("block %d", s.next), err); err != nil {
				return nil, err
			}
		} else {
			tip, err := s.head()
			if err == nil {
				s.fails = 0
				s.tip, s.hasTip = tip, true
				if s.next <= tip {
					continue
				}
			} else if err = s.failed("chain head", err); err != nil {
				return nil, err
			}
		}
		t := time.NewTimer(s.cfg.PollInterval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-s.rpc.Context().Done():
			t.Stop()
			return nil, s.rpc.Context().Err()
		}
	}
}

// Run sends blocks to rcvr until the context is done or Next fails.
func (s *Subscriber) Run(ctx context.Context, rcvr chan<- *block.Block) error {
	for {
		b, err := s.Next(ctx)
		if err != nil {
			return err
		}
		select {
		case rcvr <- b:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
