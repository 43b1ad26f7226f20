// Package session owns the client-facing transport: a websocket
// upgrade handshake per connection, a worker pool that reads and
// dispatches each session's frames, and the ambient /healthz and
// /metrics HTTP surface (spec §6).
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ironbook/internal/book"
	"ironbook/internal/broker"
	"ironbook/internal/metrics"
	"ironbook/internal/tradelog"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const defaultNWorkers = 32

// errClosed marks a Send against a session that has already been torn
// down; handler.go treats it as unworthy of an error log.
var errClosed = errors.New("session: connection closed")

// Server owns the /ws transport and the read-task worker pool that
// backs it, adapted from the teacher's TCP net.Server but upgraded to
// websocket/JSON framing and a fully parallel dispatch path (spec §5).
type Server struct {
	listenAddr  string
	listenPort  int
	metricsAddr string

	upgrader websocket.Upgrader
	pool     workerPool
	dispatch dispatcher

	mu       sync.Mutex
	sessions map[string]*wsSession

	cancel context.CancelFunc
}

// New wires a Server against the book manager, trade log and broker
// that every worker's dispatch step needs.
func New(listenAddr string, listenPort int, metricsAddr string, manager *book.Manager, tradeLog *tradelog.TradeLog, brk *broker.Broker) *Server {
	return &Server{
		listenAddr:  listenAddr,
		listenPort:  listenPort,
		metricsAddr: metricsAddr,
		upgrader:    websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		pool:        newWorkerPool(defaultNWorkers),
		dispatch:    dispatcher{manager: manager, tradeLog: tradeLog, broker: brk},
		sessions:    make(map[string]*wsSession),
	}
}

// Shutdown cancels the context Run is bound to.
func (s *Server) Shutdown() {
	log.Info().Msg("session server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run starts the metrics/healthz mux, the worker pool, and the /ws
// HTTP listener, blocking until ctx is cancelled or a component dies.
func (s *Server) Run(ctx context.Context) error {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	t.Go(func() error {
		s.pool.setup(t, s.handleTask)
		<-t.Dying()
		return nil
	})

	t.Go(func() error {
		return s.runMetricsServer(ctx)
	})

	t.Go(func() error {
		return s.runWSServer(ctx)
	})

	log.Info().
		Str("addr", s.listenAddr).
		Int("port", s.listenPort).
		Str("metrics", s.metricsAddr).
		Msg("session server running")

	<-t.Dying()
	return t.Err()
}

func (s *Server) runMetricsServer(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	srv := &http.Server{Addr: s.metricsAddr, Handler: r}
	return s.runAndShutdownOn(ctx, srv)
}

func (s *Server) runWSServer(ctx context.Context) error {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.handleUpgrade)

	srv := &http.Server{Addr: fmt.Sprintf("%s:%d", s.listenAddr, s.listenPort), Handler: r}
	return s.runAndShutdownOn(ctx, srv)
}

func (s *Server) runAndShutdownOn(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Str("addr", srv.Addr).Msg("http server shutdown error")
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleUpgrade completes the websocket handshake, registers the new
// session with the broker, and hands its first read task to the pool.
// Each subsequent read is re-queued by handleTask itself, so a session
// never monopolizes a worker while idle (spec §5).
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	sess := newWSSession(uuid.New().String(), conn)
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	s.dispatch.broker.Attach(sess)
	metrics.AttachedSessions.Inc()

	log.Info().Str("session", sess.ID()).Msg("session attached")
	s.pool.addTask(sess)
}

// handleTask reads exactly one frame from sess, dispatches it, and
// re-enqueues sess for its next frame. A read error tears the session
// down; it is never treated as fatal to the pool itself (spec §7).
func (s *Server) handleTask(t *tomb.Tomb, task any) error {
	sess, ok := task.(*wsSession)
	if !ok {
		log.Error().Msg("session worker: unexpected task type")
		return nil
	}

	_, payload, err := sess.conn.ReadMessage()
	if err != nil {
		s.detachSession(sess)
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	default:
	}

	s.dispatch.handle(sess, payload)
	s.pool.addTask(sess)
	return nil
}

func (s *Server) detachSession(sess *wsSession) {
	s.mu.Lock()
	delete(s.sessions, sess.ID())
	s.mu.Unlock()
	s.dispatch.broker.Detach(sess.ID())
	metrics.AttachedSessions.Dec()
	_ = sess.Close()
	log.Info().Str("session", sess.ID()).Msg("session detached")
}
