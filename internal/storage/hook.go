// Package storage provides the write-through persistence hook described in
// spec.md §1/§6.4: the core never reads state back from it, and a hook
// failure never surfaces as a tool-call error. It exists purely so mutations
// have somewhere to go if an operator wires up real durability later.
package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/surrealdb/surrealdb.go"

	"github.com/latticerun/reasoning-mcp/internal/config"
)

const (
	writeTimeout  = 2 * time.Second
	mutationTopic = "mutations"
	admitBacklog  = 256
)

// Mutation is a single observed state change, fire-and-forgotten to the
// hook after the core operation that produced it has already returned.
type Mutation struct {
	SessionID string
	Kind      string // e.g. "tree.add_leaf", "datalog.add_bulk"
	Payload   map[string]any
}

// Hook receives mutations asynchronously. Implementations must not block the
// caller and must never be consulted to answer a read.
type Hook interface {
	Record(m Mutation)
	Close()
}

// NoopHook discards every mutation. Used when DATABASE_URL is "memory" or
// unset, and as the fallback when the SurrealDB connection cannot be
// established.
type NoopHook struct{}

func (NoopHook) Record(Mutation) {}
func (NoopHook) Close()          {}

// SurrealHook mirrors mutations into a SurrealDB instance on a background
// goroutine. A small admission buffer in front of Record implements the
// "drop under backlog, never block the caller" policy; everything behind it
// is a watermill in-process pub/sub (github.com/ThreeDotsLabs/watermill,
// pubsub/gochannel), the same library the teacher's internal/event.Bus holds
// onto but never actually calls Publish/Subscribe on. Each mutation is
// wrapped in a watermill message keyed by a ulid (github.com/oklog/ulid/v2,
// also a teacher dependency) so the backlog is trivially orderable by
// arrival time if it's ever inspected.
type SurrealHook struct {
	db  *surrealdb.DB
	log zerolog.Logger

	admit  chan Mutation
	pubsub *gochannel.GoChannel
	wg     sync.WaitGroup
	done   chan struct{}
}

// New builds the configured Hook. A malformed or unreachable DATABASE_URL
// degrades to NoopHook rather than failing process startup — persistence is
// explicitly not load-bearing for either service.
func New(cfg config.Config, log zerolog.Logger) Hook {
	if cfg.IsMemoryOnly() {
		return NoopHook{}
	}

	db, err := surrealdb.New(cfg.DatabaseURL)
	if err != nil {
		log.Warn().Err(err).Str("database_url", cfg.DatabaseURL).
			Msg("surreal write-through hook disabled: connection failed")
		return NoopHook{}
	}

	if err := db.Use("reasoning", "sessions"); err != nil {
		log.Warn().Err(err).Msg("surreal write-through hook disabled: USE failed")
		db.Close()
		return NoopHook{}
	}

	ps := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: admitBacklog,
		Persistent:          false,
	}, watermill.NopLogger{})

	msgs, err := ps.Subscribe(context.Background(), mutationTopic)
	if err != nil {
		log.Warn().Err(err).Msg("surreal write-through hook disabled: subscribe failed")
		db.Close()
		return NoopHook{}
	}

	h := &SurrealHook{
		db:     db,
		log:    log,
		admit:  make(chan Mutation, admitBacklog),
		pubsub: ps,
		done:   make(chan struct{}),
	}
	h.wg.Add(2)
	go h.publishLoop()
	go h.writeLoop(msgs)
	return h
}

// Record admits m to the publish loop without blocking. A full admission
// buffer means the write-through path is falling behind; the mutation is
// dropped and logged rather than risking backpressure onto the tool call
// that produced it.
func (h *SurrealHook) Record(m Mutation) {
	select {
	case h.admit <- m:
	default:
		h.log.Warn().Str("session_id", m.SessionID).Str("kind", m.Kind).
			Msg("surreal write-through hook backlog full, dropping mutation")
	}
}

// publishLoop drains the admission buffer into the watermill pub/sub.
func (h *SurrealHook) publishLoop() {
	defer h.wg.Done()
	for {
		select {
		case m := <-h.admit:
			h.publish(m)
		case <-h.done:
			return
		}
	}
}

func (h *SurrealHook) publish(m Mutation) {
	payload, err := json.Marshal(m)
	if err != nil {
		h.log.Warn().Err(err).Str("session_id", m.SessionID).Str("kind", m.Kind).
			Msg("surreal write-through hook: mutation marshal failed, dropping")
		return
	}
	msg := message.NewMessage(ulid.Make().String(), payload)
	if err := h.pubsub.Publish(mutationTopic, msg); err != nil {
		h.log.Warn().Err(err).Str("session_id", m.SessionID).Str("kind", m.Kind).
			Msg("surreal write-through hook: publish failed, dropping")
	}
}

// writeLoop consumes published mutations and mirrors them into SurrealDB.
func (h *SurrealHook) writeLoop(msgs <-chan *message.Message) {
	defer h.wg.Done()
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var m Mutation
			if err := json.Unmarshal(msg.Payload, &m); err != nil {
				h.log.Warn().Err(err).Msg("surreal write-through hook: mutation unmarshal failed, dropping")
			} else {
				h.write(m)
			}
			msg.Ack()
		case <-h.done:
			return
		}
	}
}

func (h *SurrealHook) write(m Mutation) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = ctx // surrealdb.go's v1 client API is not context-aware; reserved for a future version.

	thing := m.Kind + ":" + m.SessionID
	if _, err := h.db.Create(thing, m.Payload); err != nil {
		h.log.Warn().Err(err).Str("session_id", m.SessionID).Str("kind", m.Kind).
			Msg("surreal write-through hook: write failed, dropping")
	}
}

func (h *SurrealHook) Close() {
	close(h.done)
	h.wg.Wait()
	_ = h.pubsub.Close()
	h.db.Close()
}
