package pool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anode/modbuspec/pkg/transport"
)

// ErrClosed is returned by Borrow after the pool has been closed.
var ErrClosed = errors.New("connection pool is closed")

// BorrowTimeoutError is returned when no connection becomes available
// within the configured borrow timeout.
type BorrowTimeoutError struct {
	Timeout time.Duration
}

func (e *BorrowTimeoutError) Error() string {
	return fmt.Sprintf("timeout waiting for connection from pool after %s", e.Timeout)
}

const (
	defaultSize          = 5
	defaultBorrowTimeout = 5 * time.Second
)

type Options struct {
	// Factory creates connected transports. Required.
	Factory transport.Factory
	// Size is the fixed number of pooled connections (default 5).
	Size int
	// BorrowTimeout bounds how long Borrow blocks (default 5s).
	BorrowTimeout time.Duration
	// DisableValidateOnBorrow turns off the liveness check performed
	// before handing out a connection. Validation is on by default.
	DisableValidateOnBorrow bool
	Logger                  *zap.Logger
}

// Pool lends transport connections to concurrent callers. It is
// pre-populated to its full size at construction; construction fails
// atomically if any initial connection cannot be created.
type Pool struct {
	factory          transport.Factory
	idle             chan transport.Transport
	size             int
	borrowTimeout    time.Duration
	validateOnBorrow bool
	logger           *zap.Logger

	mu     sync.Mutex
	closed bool
}

func New(opts Options) (*Pool, error) {
	if opts.Factory == nil {
		return nil, errors.New("connection factory must be set")
	}
	if opts.Size <= 0 {
		opts.Size = defaultSize
	}
	if opts.BorrowTimeout <= 0 {
		opts.BorrowTimeout = defaultBorrowTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	p := &Pool{
		factory:          opts.Factory,
		idle:             make(chan transport.Transport, opts.Size),
		size:             opts.Size,
		borrowTimeout:    opts.BorrowTimeout,
		validateOnBorrow: !opts.DisableValidateOnBorrow,
		logger:           opts.Logger,
	}

	conns := make([]transport.Transport, opts.Size)
	var g errgroup.Group
	for i := range conns {
		g.Go(func() error {
			conn, err := p.factory()
			if err != nil {
				return err
			}
			conns[i] = conn
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, conn := range conns {
			if conn != nil {
				_ = conn.Disconnect()
			}
		}
		return nil, fmt.Errorf("failed to initialize connection pool: %w", err)
	}
	for _, conn := range conns {
		p.idle <- conn
	}

	p.logger.Info("connection pool initialized", zap.Int("size", opts.Size))
	return p, nil
}

// Borrow takes a connection from the pool, blocking up to the borrow
// timeout (or until ctx is cancelled). A connection that becomes available
// after the borrower gave up stays in the pool; it is never dropped.
func (p *Pool) Borrow(ctx context.Context) (*Lease, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	p.mu.Unlock()

	timer := time.NewTimer(p.borrowTimeout)
	defer timer.Stop()

	select {
	case conn := <-p.idle:
		if p.validateOnBorrow && !conn.IsConnected() {
			p.logger.Warn("pooled connection is dead, replacing")
			_ = conn.Disconnect()
			replacement, err := p.factory()
			if err != nil {
				// Keep the dead connection as a capacity token so the
				// pool never shrinks; the next borrow retries the factory.
				p.put(conn, uuid.Nil)
				return nil, fmt.Errorf("failed to replace dead connection: %w", err)
			}
			conn = replacement
		}
		lease := &Lease{id: uuid.New(), conn: conn, pool: p}
		p.logger.Debug("connection borrowed", zap.String("lease", lease.id.String()))
		return lease, nil
	case <-timer.C:
		p.logger.Warn("timeout waiting for connection from pool", zap.Duration("timeout", p.borrowTimeout))
		return nil, &BorrowTimeoutError{Timeout: p.borrowTimeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// put returns a connection to the idle set. The closed check and the send
// happen under the same lock as Close's flag flip, so a return racing Close
// cannot re-enqueue a connection after the drain.
func (p *Pool) put(conn transport.Transport, leaseID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		_ = conn.Disconnect()
		return
	}

	select {
	case p.idle <- conn:
		p.logger.Debug("connection returned", zap.String("lease", leaseID.String()))
	default:
		// Pool shrank or a replacement outnumbered the slots.
		p.logger.Warn("pool full, closing excess connection", zap.String("lease", leaseID.String()))
		_ = conn.Disconnect()
	}
}

// Close drains and disconnects all pooled connections. Idempotent;
// subsequent borrows fail with ErrClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.logger.Info("closing connection pool")
	for {
		select {
		case conn := <-p.idle:
			if err := conn.Disconnect(); err != nil {
				p.logger.Warn("error closing pooled connection", zap.Error(err))
			}
		default:
			return nil
		}
	}
}

func (p *Pool) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Size returns the configured pool size.
func (p *Pool) Size() int { return p.size }

// Available returns the number of idle connections.
func (p *Pool) Available() int { return len(p.idle) }

// Lease is a borrowed connection. Release it exactly once when done; extra
// releases are no-ops and never double-return the connection.
type Lease struct {
	id   uuid.UUID
	conn transport.Transport
	pool *Pool

	mu       sync.Mutex
	released bool
}

func (l *Lease) ID() uuid.UUID { return l.id }

// Transport returns the leased connection. Must not be used after Release.
func (l *Lease) Transport() transport.Transport {
	return l.conn
}

// Release returns the connection to the pool, or disconnects it if the
// pool has been closed in the meantime.
func (l *Lease) Release() {
	l.mu.Lock()
	if l.released {
		l.mu.Unlock()
		return
	}
	l.released = true
	l.mu.Unlock()

	l.pool.put(l.conn, l.id)
}
