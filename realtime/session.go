package realtime

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/coregx/livechat"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pingPeriod      = 30 * time.Second
	pongWait        = pingPeriod * 2
	maxFrameSize    = 64 * 1024
	jsonContentType = "application/json;charset=UTF-8"
)

// outbound is a queued frame or, when closing is set, a request to close
// once everything queued before it has been written.
type outbound struct {
	data    []byte
	closing bool
	code    int
	reason  string
}

var (
	errSessionClosed = errors.New("session closed")
	errSendBuffer    = errors.New("send buffer exceeded")
)

// Session is one client connection.
//
// Outbound frames go through a buffered channel drained by a single write
// loop. Identity and subscriptions belong to the read loop and are never
// touched from other goroutines.
type Session struct {
	ID string

	conn *websocket.Conn
	send chan outbound
	done chan struct{}
	once sync.Once

	identity      *livechat.Identity
	subscriptions map[string]string // subscription id -> destination
}

func newSession(conn *websocket.Conn, bufferSize int) *Session {
	return &Session{
		ID:            uuid.NewString(),
		conn:          conn,
		send:          make(chan outbound, bufferSize),
		done:          make(chan struct{}),
		subscriptions: make(map[string]string),
	}
}

// Send queues f for delivery. A slow client whose buffer is full is closed.
func (s *Session) Send(f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return err
	}

	select {
	case <-s.done:
		return errSessionClosed
	default:
	}

	select {
	case <-s.done:
		return errSessionClosed
	case s.send <- outbound{data: buf.Bytes()}:
		return nil
	default:
		s.drop()
		return errSendBuffer
	}
}

// Close stops the write loop and closes the socket with code and reason.
func (s *Session) Close(code int, reason string) {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = s.conn.Close()
	})
}

// drop closes the socket without the close handshake. A full queue means the
// write loop may hold the connection's write lock on a stalled peer.
func (s *Session) drop() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}

// closeAfterFlush closes the session after the frames already queued are written.
func (s *Session) closeAfterFlush(code int, reason string) {
	select {
	case <-s.done:
	case s.send <- outbound{closing: true, code: code, reason: reason}:
	default:
		s.drop()
	}
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			if msg.closing {
				s.Close(msg.code, msg.reason)
				return
			}
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg.data); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}
