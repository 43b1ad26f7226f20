// Package broker maintains the set of live client sessions and fans
// out the trade broadcast every connected session observes when
// matches occur (spec §4.5).
package broker

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Session is anything a Broker can broadcast framed text to. A
// session is responsible for its own framing; Send must be safe to
// call concurrently with the session's own reads.
type Session interface {
	ID() string
	Send(payload []byte) error
}

// Broker holds the attached session set under its own guard. Send
// failures detach the offending session without aborting delivery to
// the rest (spec §4.5); the guard is never held across a Send call,
// since sending may suspend (spec §5).
type Broker struct {
	mu       sync.Mutex
	sessions map[string]Session
}

// New returns an empty Broker.
func New() *Broker {
	return &Broker{sessions: make(map[string]Session)}
}

// Attach adds session to the live set once its handshake completes.
func (b *Broker) Attach(s Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[s.ID()] = s
}

// Detach removes session on disconnect or send failure.
func (b *Broker) Detach(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, id)
}

// Count returns the number of currently attached sessions.
func (b *Broker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

// Broadcast attempts delivery of payload to every attached session. A
// send failure detaches that session and does not abort delivery to
// the rest (spec §4.5, P7).
func (b *Broker) Broadcast(payload []byte) {
	b.mu.Lock()
	targets := make([]Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	for _, s := range targets {
		if err := s.Send(payload); err != nil {
			log.Error().Err(err).Str("session", s.ID()).Msg("broadcast send failed, detaching session")
			b.Detach(s.ID())
		}
	}
}
