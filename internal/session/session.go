package session

import (
	"errors"
	"net"
	"sync"

	"github.com/gorilla/websocket"
)

// wsSession adapts one upgraded websocket connection to the
// broker.Session interface. Writes are guarded by their own mutex:
// gorilla/websocket permits at most one concurrent writer per
// connection, and both the broker's broadcast and this session's own
// reply path may write to it.
type wsSession struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex
}

func newWSSession(id string, conn *websocket.Conn) *wsSession {
	return &wsSession{id: id, conn: conn}
}

func (s *wsSession) ID() string { return s.id }

// Send writes payload as a single text frame (spec §6: one UTF-8
// textual payload per message).
func (s *wsSession) Send(payload []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	err := s.conn.WriteMessage(websocket.TextMessage, payload)
	if errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent) {
		return errClosed
	}
	return err
}

func (s *wsSession) Close() error {
	return s.conn.Close()
}
