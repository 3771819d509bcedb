package table

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/justinabrahms/padchess/internal/chess"
	"github.com/rs/zerolog"
)

// ErrClosed is returned for requests submitted after Run has returned
var ErrClosed = errors.New("table closed")

// Update is published after every completed transition. Seq counts
// published transitions; an update for a read carries the Seq of the state
// it observed.
type Update struct {
	ID       string         `json:"id"`
	Seq      uint64         `json:"seq"`
	Request  string         `json:"request"`
	Events   []chess.Event  `json:"-"`
	Snapshot chess.Snapshot `json:"snapshot"`
}

type request struct {
	name  string
	apply func(*chess.Engine) []chess.Event
	reply chan Update
}

// Table owns a chess engine. All mutation goes through one channel and is
// processed by Run one request at a time; observers only ever see
// snapshots taken between requests.
type Table struct {
	engine    *chess.Engine
	requests  chan request
	done      chan struct{}
	logger    zerolog.Logger
	queueSize int
	seq       uint64

	mu          sync.RWMutex
	subscribers map[string]chan Update
	closed      bool
}

// Option configures a table
type Option func(*Table)

// WithLogger sets a custom logger
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// WithQueueSize sets how many requests may wait for the actor
func WithQueueSize(size int) Option {
	return func(t *Table) {
		if size >= 0 {
			t.queueSize = size
		}
	}
}

// New creates a table around engine. The table takes ownership of it.
func New(engine *chess.Engine, opts ...Option) *Table {
	t := &Table{
		engine:      engine,
		done:        make(chan struct{}),
		logger:      zerolog.Nop(),
		queueSize:   64,
		subscribers: make(map[string]chan Update),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.requests = make(chan request, t.queueSize)
	return t
}

// Run processes requests until ctx is done. It must be called exactly once.
func (t *Table) Run(ctx context.Context) error {
	defer t.shutdown()

	t.logger.Info().Msg("Table running")
	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("Table stopping")
			return ctx.Err()
		case req := <-t.requests:
			update := t.process(req)
			req.reply <- update
		}
	}
}

func (t *Table) process(req request) Update {
	var events []chess.Event
	if req.apply != nil {
		events = req.apply(t.engine)
	}
	if len(events) > 0 {
		t.seq++
	}
	update := Update{
		ID:       uuid.NewString(),
		Seq:      t.seq,
		Request:  req.name,
		Events:   events,
		Snapshot: t.engine.Snapshot(),
	}
	if len(events) > 0 {
		t.publish(update)
	}
	t.logger.Debug().
		Str("request", req.name).
		Str("update", update.ID).
		Uint64("seq", update.Seq).
		Int("events", len(events)).
		Str("phase", update.Snapshot.Phase.String()).
		Msg("Processed request")
	return update
}

func (t *Table) shutdown() {
	t.mu.Lock()
	t.closed = true
	for id, ch := range t.subscribers {
		close(ch)
		delete(t.subscribers, id)
	}
	t.mu.Unlock()
	close(t.done)
}

func (t *Table) submit(ctx context.Context, name string, apply func(*chess.Engine) []chess.Event) (Update, error) {
	req := request{name: name, apply: apply, reply: make(chan Update, 1)}

	select {
	case t.requests <- req:
	case <-ctx.Done():
		return Update{}, ctx.Err()
	case <-t.done:
		return Update{}, ErrClosed
	}

	select {
	case update := <-req.reply:
		return update, nil
	case <-ctx.Done():
		return Update{}, ctx.Err()
	case <-t.done:
		// Run may have answered just before stopping
		select {
		case update := <-req.reply:
			return update, nil
		default:
			return Update{}, ErrClosed
		}
	}
}

// Input applies a board touch
func (t *Table) Input(ctx context.Context, in chess.Input) (Update, error) {
	return t.submit(ctx, "input", func(e *chess.Engine) []chess.Event {
		return e.ApplyInput(in)
	})
}

// Promote resolves a pending promotion
func (t *Table) Promote(ctx context.Context, kind chess.Kind) (Update, error) {
	return t.submit(ctx, "promote", func(e *chess.Engine) []chess.Event {
		return e.Promote(kind)
	})
}

func (t *Table) Undo(ctx context.Context) (Update, error) {
	return t.submit(ctx, "undo", func(e *chess.Engine) []chess.Event {
		return e.Undo()
	})
}

func (t *Table) NewGame(ctx context.Context) (Update, error) {
	return t.submit(ctx, "new_game", func(e *chess.Engine) []chess.Event {
		return e.NewGame()
	})
}

// State reads the settled state through the actor without changing it
func (t *Table) State(ctx context.Context) (Update, error) {
	return t.submit(ctx, "snapshot", nil)
}

// Snapshot reads the settled state through the actor
func (t *Table) Snapshot(ctx context.Context) (chess.Snapshot, error) {
	update, err := t.State(ctx)
	if err != nil {
		return chess.Snapshot{}, err
	}
	return update.Snapshot, nil
}

// Subscribe registers an observer. Updates that do not fit in the buffer
// are dropped for that observer. The channel is closed by cancel or when
// the table stops.
func (t *Table) Subscribe(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	id := uuid.NewString()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	t.subscribers[id] = ch
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subscribers[id]; ok {
			delete(t.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (t *Table) publish(update Update) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	for id, ch := range t.subscribers {
		select {
		case ch <- update:
		default:
			t.logger.Warn().Str("subscriber", id).Str("update", update.ID).Msg("Subscriber full, dropping update")
		}
	}
}
