package broker

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id       string
	received [][]byte
	failNext bool
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Send(payload []byte) error {
	if f.failNext {
		return errors.New("send failed")
	}
	f.received = append(f.received, payload)
	return nil
}

func TestBroker_AttachAndCount(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.Count())

	b.Attach(&fakeSession{id: "a"})
	b.Attach(&fakeSession{id: "b"})
	assert.Equal(t, 2, b.Count())
}

func TestBroker_Detach(t *testing.T) {
	b := New()
	b.Attach(&fakeSession{id: "a"})
	b.Detach("a")
	assert.Equal(t, 0, b.Count())
}

// P7: every attached session observes every broadcast payload.
func TestBroker_BroadcastReachesEverySession(t *testing.T) {
	b := New()
	s1 := &fakeSession{id: "a"}
	s2 := &fakeSession{id: "b"}
	b.Attach(s1)
	b.Attach(s2)

	b.Broadcast([]byte("hello"))

	require.Len(t, s1.received, 1)
	require.Len(t, s2.received, 1)
	assert.Equal(t, []byte("hello"), s1.received[0])
	assert.Equal(t, []byte("hello"), s2.received[0])
}

// A single failing session is detached without blocking delivery to
// the rest (spec §4.5).
func TestBroker_BroadcastDetachesFailingSessionWithoutBlockingOthers(t *testing.T) {
	b := New()
	bad := &fakeSession{id: "bad", failNext: true}
	good := &fakeSession{id: "good"}
	b.Attach(bad)
	b.Attach(good)

	b.Broadcast([]byte("payload"))

	assert.Equal(t, 1, b.Count())
	require.Len(t, good.received, 1)
}
