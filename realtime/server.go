package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/coregx/livechat"
	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

// ProtocolVersion is the only STOMP version spoken.
const ProtocolVersion = "1.2"

const defaultSendBuffer = 256

// Server upgrades HTTP requests to WebSocket sessions and routes their frames.
//
// Thread safety: Safe for concurrent use.
type Server struct {
	gatekeeper *livechat.Gatekeeper
	dispatcher *livechat.MessageDispatcher
	tracker    *livechat.ReadReceiptTracker
	broker     *Broker
	upgrader   websocket.Upgrader
	origins    []string
	sendBuffer int
	logger     livechat.Logger
	metrics    *livechat.Metrics
	clock      livechat.Clock
}

// ServerOption configures a Server.
type ServerOption func(*Server) error

// NewServer creates a new Server.
//
// Required options:
//   - WithGatekeeper
//   - WithDispatcher
//   - WithReadTracker
//   - WithBroker
//
// Optional:
//   - WithAllowedOrigins (default: any origin)
//   - WithSendBuffer (default: 256 frames)
//   - WithServerLogger
//   - WithServerMetrics
//   - WithServerClock
func NewServer(opts ...ServerOption) (*Server, error) {
	s := &Server{
		sendBuffer: defaultSendBuffer,
		logger:     &livechat.NoopLogger{},
		clock:      time.Now,
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, livechat.NewErrorWithCause(livechat.ErrCodeConfiguration, "failed to apply server option", err)
		}
	}

	if s.gatekeeper == nil {
		return nil, livechat.NewError(livechat.ErrCodeConfiguration, "Gatekeeper is required (use WithGatekeeper)")
	}
	if s.dispatcher == nil {
		return nil, livechat.NewError(livechat.ErrCodeConfiguration, "MessageDispatcher is required (use WithDispatcher)")
	}
	if s.tracker == nil {
		return nil, livechat.NewError(livechat.ErrCodeConfiguration, "ReadReceiptTracker is required (use WithReadTracker)")
	}
	if s.broker == nil {
		return nil, livechat.NewError(livechat.ErrCodeConfiguration, "Broker is required (use WithBroker)")
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		Subprotocols:    []string{"v12.stomp"},
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// WithGatekeeper sets the frame gatekeeper.
func WithGatekeeper(g *livechat.Gatekeeper) ServerOption {
	return func(s *Server) error {
		if g == nil {
			return fmt.Errorf("gatekeeper cannot be nil")
		}
		s.gatekeeper = g
		return nil
	}
}

// WithDispatcher sets the handler for /pub/chat/message.
func WithDispatcher(d *livechat.MessageDispatcher) ServerOption {
	return func(s *Server) error {
		if d == nil {
			return fmt.Errorf("dispatcher cannot be nil")
		}
		s.dispatcher = d
		return nil
	}
}

// WithReadTracker sets the handler for /pub/chat/read.
func WithReadTracker(t *livechat.ReadReceiptTracker) ServerOption {
	return func(s *Server) error {
		if t == nil {
			return fmt.Errorf("read tracker cannot be nil")
		}
		s.tracker = t
		return nil
	}
}

// WithBroker sets the subscription broker.
func WithBroker(b *Broker) ServerOption {
	return func(s *Server) error {
		if b == nil {
			return fmt.Errorf("broker cannot be nil")
		}
		s.broker = b
		return nil
	}
}

// WithAllowedOrigins restricts the Origin header on upgrade. "*" allows any.
func WithAllowedOrigins(origins ...string) ServerOption {
	return func(s *Server) error {
		s.origins = origins
		return nil
	}
}

// WithSendBuffer sets how many outbound frames a session may queue.
func WithSendBuffer(n int) ServerOption {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("send buffer must be positive, got %d", n)
		}
		s.sendBuffer = n
		return nil
	}
}

// WithServerLogger sets the logger instance.
func WithServerLogger(logger livechat.Logger) ServerOption {
	return func(s *Server) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithServerMetrics records rejected frames.
func WithServerMetrics(m *livechat.Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// WithServerClock sets the time source for error timestamps.
func WithServerClock(clock livechat.Clock) ServerOption {
	return func(s *Server) error {
		if clock == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		s.clock = clock
		return nil
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.origins) == 0 || slices.Contains(s.origins, "*") {
		return true
	}
	origin := r.Header.Get("Origin")
	return origin == "" || slices.Contains(s.origins, origin)
}

// ServeHTTP upgrades the request and runs the session until it ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warnf("WebSocket upgrade failed: %v", err)
		return
	}

	sess := newSession(conn, s.sendBuffer)
	s.logger.Debugf("Session %s opened from %s", sess.ID, r.RemoteAddr)

	go sess.writeLoop()
	s.readLoop(context.WithoutCancel(r.Context()), sess)
}

func (s *Server) readLoop(ctx context.Context, sess *Session) {
	defer func() {
		s.broker.Remove(sess)
		sess.closeAfterFlush(websocket.CloseNormalClosure, "")
		s.logger.Debugf("Session %s closed", sess.ID)
	}()

	sess.conn.SetReadLimit(maxFrameSize)
	_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugf("Session %s read failed: %v", sess.ID, err)
			}
			return
		}
		_ = sess.conn.SetReadDeadline(time.Now().Add(pongWait))

		f, err := frame.NewReader(bytes.NewReader(data)).Read()
		if err != nil {
			s.reject(ctx, sess, nil, livechat.NewErrorWithCause(livechat.ErrCodeInvalidMessage, "malformed frame", err))
			continue
		}
		if f == nil {
			continue // heart-beat
		}

		if !s.handleFrame(ctx, sess, f) {
			return
		}
	}
}

// handleFrame processes one frame and reports whether the session stays open.
func (s *Server) handleFrame(ctx context.Context, sess *Session, f *frame.Frame) bool {
	identity, err := s.gatekeeper.Intercept(ctx, f, sess.identity)
	if err != nil {
		s.reject(ctx, sess, f, err)
		if f.Command == frame.CONNECT || f.Command == frame.STOMP {
			sess.closeAfterFlush(websocket.ClosePolicyViolation, livechat.ToProtocol(err).Code)
			return false
		}
		return true
	}

	switch f.Command {
	case frame.CONNECT, frame.STOMP:
		sess.identity = identity
		s.reply(sess, frame.New(frame.CONNECTED,
			frame.Version, ProtocolVersion,
			frame.HeartBeat, "0,0",
			"server", "livechat",
			"user-name", fmt.Sprint(identity.UserID()),
		))
		return true

	case frame.SUBSCRIBE:
		id, destination := f.Header.Get(frame.Id), f.Header.Get(frame.Destination)
		if id == "" || destination == "" {
			s.reject(ctx, sess, f, livechat.NewError(livechat.ErrCodeInvalidMessage, "SUBSCRIBE requires id and destination"))
			return true
		}
		if previous, ok := sess.subscriptions[id]; ok {
			s.broker.Unsubscribe(sess, id, previous)
		}
		sess.subscriptions[id] = destination
		s.broker.Subscribe(sess, id, destination)

	case frame.UNSUBSCRIBE:
		id := f.Header.Get(frame.Id)
		if destination, ok := sess.subscriptions[id]; ok {
			s.broker.Unsubscribe(sess, id, destination)
			delete(sess.subscriptions, id)
		}

	case frame.SEND:
		if err := s.route(ctx, sess, f); err != nil {
			s.reject(ctx, sess, f, err)
			return true
		}

	case frame.DISCONNECT:
		s.receipt(sess, f)
		sess.closeAfterFlush(websocket.CloseNormalClosure, "")
		return false
	}

	s.receipt(sess, f)
	return true
}

// route hands a SEND frame to its application handler.
func (s *Server) route(ctx context.Context, sess *Session, f *frame.Frame) error {
	if sess.identity == nil {
		return livechat.NewError(livechat.ErrCodeAuthInvalidTokenFormat, "connection is not authenticated")
	}

	switch destination := f.Header.Get(frame.Destination); destination {
	case livechat.SendMessageDestination:
		var req livechat.SendMessageRequest
		if err := json.Unmarshal(f.Body, &req); err != nil {
			return livechat.NewErrorWithCause(livechat.ErrCodeInvalidMessage, "message payload is not valid JSON", err)
		}
		req.WriterID = sess.identity.UserID()
		_, err := s.dispatcher.SendMessage(ctx, req)
		return err

	case livechat.MarkReadDestination:
		var req livechat.MarkReadRequest
		if err := json.Unmarshal(f.Body, &req); err != nil {
			return livechat.NewErrorWithCause(livechat.ErrCodeInvalidMessage, "read payload is not valid JSON", err)
		}
		req.ReaderID = sess.identity.UserID()
		_, err := s.tracker.MarkRead(ctx, req)
		return err

	default:
		return livechat.NewError(livechat.ErrCodeInvalidMessage, "unknown destination: "+destination)
	}
}

// reject sends one ERROR frame to sess. f may be nil for unparseable input.
func (s *Server) reject(ctx context.Context, sess *Session, f *frame.Frame, err error) {
	protocol := livechat.ToProtocol(err)
	s.metrics.FrameRejected(ctx, protocol.Code)

	if protocol == livechat.ProtocolInternal {
		s.logger.Errorf("Session %s frame failed: %v", sess.ID, err)
	} else {
		s.logger.Debugf("Session %s frame rejected: %v", sess.ID, err)
	}

	reply := frame.New(frame.ERROR,
		"message", protocol.Code,
		frame.ContentType, jsonContentType,
	)
	if f != nil {
		if receipt := f.Header.Get(frame.Receipt); receipt != "" {
			reply.Header.Set(frame.ReceiptId, receipt)
		}
	}
	reply.Body = livechat.EncodeErrorEvent(err, s.clock().UTC())
	s.reply(sess, reply)
}

func (s *Server) receipt(sess *Session, f *frame.Frame) {
	if receipt := f.Header.Get(frame.Receipt); receipt != "" {
		s.reply(sess, frame.New(frame.RECEIPT, frame.ReceiptId, receipt))
	}
}

func (s *Server) reply(sess *Session, f *frame.Frame) {
	if err := sess.Send(f); err != nil {
		s.logger.Debugf("Session %s reply dropped: %v", sess.ID, err)
	}
}
