package ingest

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/majiix/wtingest/quic"
	"github.com/majiix/wtingest/quic/quicgo"
	"github.com/majiix/wtingest/webtransport"
	"github.com/majiix/wtingest/webtransport/webtransportgo"
)

// Server accepts QUIC connections, serves them as HTTP/3 and turns every
// WebTransport CONNECT request into an ingest Session.
type Server struct {
	/*
	 * Server's Address
	 */
	Addr string

	/*
	 * TLS configuration
	 * TLS 1.3 is always required and the HTTP/3 ALPN identifiers are used
	 * when NextProtos is empty.
	 */
	TLSConfig *tls.Config

	/*
	 * QUIC configuration
	 * Datagrams are always enabled. KeepAlivePeriod defaults to 3 seconds.
	 */
	QUICConfig *quic.Config

	/*
	 * Ingest configuration
	 */
	Config *Config

	/*
	 * Logger
	 */
	Logger *slog.Logger

	/*
	 * Metrics
	 * If nil, nothing is recorded.
	 */
	Metrics *Metrics

	/*
	 * Announcer
	 * If set, every session is announced on start and withdrawn on end.
	 */
	Announcer Announcer

	/*
	 * WebTransport Server
	 * If nil, a webtransport-go server using this Server as its handler is created.
	 */
	WebtransportServer webtransport.Server

	/*
	 * ListenFunc creates QUIC listeners for ListenAndServe and ListenAndServeTLS.
	 * If nil, quic-go is used.
	 */
	ListenFunc quic.ListenAddrFunc

	mu            sync.RWMutex
	listeners     map[quic.EarlyListener]struct{}
	listenerGroup sync.WaitGroup
	activeSess    map[*Session]struct{}
	conns         *connTable

	initOnce sync.Once

	inShutdown atomic.Bool

	drainOnce sync.Once
	drained   chan struct{} // closed once shutting down with no active session
}

func (s *Server) init() {
	s.initOnce.Do(func() {
		s.listeners = make(map[quic.EarlyListener]struct{})
		s.activeSess = make(map[*Session]struct{})
		s.conns = newConnTable()
		s.drained = make(chan struct{})

		if s.Logger == nil {
			s.Logger = slog.New(slog.DiscardHandler)
		}
		s.Logger = s.Logger.With("address", s.Addr)

		if s.WebtransportServer == nil {
			s.WebtransportServer = webtransportgo.NewServer(s, s.Config.checkOrigin())
		}

		s.Logger.Debug("initialized server")
	})
}

func (s *Server) tlsConfig() *tls.Config {
	tlsConfig := s.TLSConfig.Clone()
	tlsConfig.MinVersion = tls.VersionTLS13
	tlsConfig.ClientAuth = tls.NoClientCert
	if len(tlsConfig.NextProtos) == 0 {
		tlsConfig.NextProtos = NextProtos()
	}
	return tlsConfig
}

// defaultKeepAlivePeriod keeps connections of publishers that only send
// occasional datagrams from reaching the idle timeout.
const defaultKeepAlivePeriod = 3 * time.Second

func (s *Server) quicConfig() *quic.Config {
	var quicConfig *quic.Config
	if s.QUICConfig != nil {
		quicConfig = s.QUICConfig.Clone()
	} else {
		quicConfig = &quic.Config{}
	}
	quicConfig.EnableDatagrams = true
	if quicConfig.KeepAlivePeriod == 0 {
		quicConfig.KeepAlivePeriod = defaultKeepAlivePeriod
	}
	return quicConfig
}

func (s *Server) listen() (quic.EarlyListener, error) {
	listen := s.ListenFunc
	if listen == nil {
		listen = quicgo.ListenAddrEarly
	}

	ln, err := listen(s.Addr, s.tlsConfig(), s.quicConfig())
	if err != nil {
		s.Logger.Error("failed to start QUIC listener", "error", err)
		return nil, fmt.Errorf("listen %s: %w", s.Addr, err)
	}
	return ln, nil
}

func (s *Server) ListenAndServe() error {
	if s.shuttingDown() {
		return ErrServerClosed
	}

	s.init()

	if s.TLSConfig == nil {
		return errors.New("ingest: TLS configuration is required for QUIC")
	}

	ln, err := s.listen()
	if err != nil {
		return err
	}

	return s.ServeQUICListener(ln)
}

func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	if s.shuttingDown() {
		return ErrServerClosed
	}

	s.init()

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		s.Logger.Error("failed to load X509 key pair",
			"cert_file", certFile,
			"key_file", keyFile,
			"error", err,
		)
		return fmt.Errorf("load key pair: %w", err)
	}

	if s.TLSConfig == nil {
		s.TLSConfig = &tls.Config{}
	} else {
		s.TLSConfig = s.TLSConfig.Clone()
	}
	s.TLSConfig.Certificates = []tls.Certificate{cert}

	ln, err := s.listen()
	if err != nil {
		return err
	}

	return s.ServeQUICListener(ln)
}

// ServeQUICListener accepts connections on ln until ln fails or the server
// is closed. Each connection is served on its own goroutine.
func (s *Server) ServeQUICListener(ln quic.EarlyListener) error {
	if s.shuttingDown() {
		return ErrServerClosed
	}

	s.init()

	if !s.addListener(ln) {
		ln.Close()
		return ErrServerClosed
	}
	defer s.removeListener(ln)

	s.Logger.Info("listening for QUIC connections", "listen_address", ln.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if s.shuttingDown() {
				return ErrServerClosed
			}
			s.Logger.Error("failed to accept QUIC connection", "error", err)
			return err
		}

		go s.handleConn(conn)
	}
}

// handleConn waits for the handshake and serves the connection. A failed
// handshake abandons this connection only.
func (s *Server) handleConn(conn quic.EarlyConnection) {
	s.Metrics.connectionAccepted()

	logger := s.Logger.With("remote_address", conn.RemoteAddr())
	logger.Debug("accepted a new QUIC connection")

	select {
	case <-conn.HandshakeComplete():
	case <-conn.Context().Done():
		s.Metrics.handshakeFailed()
		logger.Warn("QUIC handshake failed", "error", context.Cause(conn.Context()))
		return
	}

	if err := s.ServeQUICConn(conn); err != nil {
		if isClosedError(err) {
			logger.Debug("connection closed", "error", err)
			return
		}
		logger.Warn("connection ended", "error", err)
	}
}

// ServeQUICConn serves an established connection as HTTP/3 until the
// connection ends. It is registered for session accounting for that time.
func (s *Server) ServeQUICConn(conn quic.Connection) error {
	if s.shuttingDown() {
		return ErrServerClosed
	}

	s.init()

	logger := s.Logger.With("remote_address", conn.RemoteAddr())

	protocol := conn.ConnectionState().TLS.NegotiatedProtocol
	if !slices.Contains(nextProtos[:], protocol) {
		logger.Error("unsupported negotiated protocol", "protocol", protocol)
		conn.CloseWithError(quic.ApplicationErrorCode(quic.ConnectionRefused), "unsupported protocol")
		return fmt.Errorf("unsupported protocol: %q", protocol)
	}

	s.conns.add(conn, s.Config.maxSessionsPerConn())
	defer s.conns.remove(conn)

	logger.Debug("serving HTTP/3 connection", "protocol", protocol)

	return s.WebtransportServer.ServeQUICConn(conn)
}

// ServeHTTP handles HTTP/3 requests. Only WebTransport CONNECT requests for
// an asset path are served; they run as a Session until it ends.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.init()

	logger := s.Logger.With("remote_address", r.RemoteAddr)

	if r.Method != http.MethodConnect || r.Proto != "webtransport" {
		logger.Debug("ignoring request",
			"method", r.Method,
			"protocol", r.Proto,
			"path", r.URL.Path,
		)
		http.NotFound(w, r)
		return
	}

	if s.shuttingDown() {
		s.Metrics.sessionRejected("shutdown")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	route, err := ParseAssetPath(r.URL.Path)
	if err != nil {
		s.Metrics.sessionRejected("path")
		logger.Warn("rejected session", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slot, err := s.conns.acquire(r.RemoteAddr)
	if err != nil {
		s.Metrics.sessionRejected("limit")
		logger.Warn("rejected session", "error", err, "asset_id", route.AssetID)
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	conn, err := s.WebtransportServer.Upgrade(w, r)
	if err != nil {
		slot.abandon()
		s.Metrics.sessionRejected("upgrade")
		logger.Error("failed to upgrade http to webtransport", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	slot.consume()

	sess := newSession(conn, r.URL.Path, route, s.Config, logger, s.Metrics)
	s.serveSession(r.Context(), sess)

	if raw := slot.finish(); raw != nil {
		logger.Debug("closing connection after its last session")
		raw.CloseWithError(quic.ApplicationErrorCode(SessionErrorCodeNoError), "")
	}
}

func (s *Server) serveSession(ctx context.Context, sess *Session) {
	if !s.addSession(sess) {
		sess.Terminate(SessionErrorCodeGoingAway, "server closed")
		return
	}
	defer s.removeSession(sess)

	s.Metrics.sessionStarted()
	defer s.Metrics.sessionEnded()

	announced := s.announce(ctx, sess)

	if err := sess.run(ctx); err != nil {
		sess.Terminate(SessionErrorCodeInternal, "ingest failed")
	} else {
		sess.Terminate(SessionErrorCodeNoError, "")
	}

	if announced {
		s.withdraw(context.WithoutCancel(ctx), sess)
	}
}

const announceTimeout = 5 * time.Second

func (s *Server) announce(ctx context.Context, sess *Session) bool {
	if s.Announcer == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, announceTimeout)
	defer cancel()

	if err := s.Announcer.Announce(ctx, sess.Announcement()); err != nil {
		sess.logger.Warn("failed to announce session", "error", err)
		return false
	}
	return true
}

func (s *Server) withdraw(ctx context.Context, sess *Session) {
	ctx, cancel := context.WithTimeout(ctx, announceTimeout)
	defer cancel()

	if err := s.Announcer.Withdraw(ctx, sess.Announcement()); err != nil {
		sess.logger.Warn("failed to withdraw session", "error", err)
	}
}

// Sessions returns the active sessions ordered by start time.
func (s *Server) Sessions() []*Session {
	s.init()

	s.mu.RLock()
	sessions := make([]*Session, 0, len(s.activeSess))
	for sess := range s.activeSess {
		sessions = append(sessions, sess)
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions
}

// Lookup returns the most recently started active session publishing assetID.
func (s *Server) Lookup(assetID string) (*Session, bool) {
	sessions := s.Sessions()
	for i := len(sessions) - 1; i >= 0; i-- {
		if sessions[i].AssetID == assetID {
			return sessions[i], true
		}
	}
	return nil, false
}

// Close closes every listener, terminates active sessions and closes the
// WebTransport server without waiting.
func (s *Server) Close() error {
	s.inShutdown.Store(true)
	s.init()

	s.Logger.Info("closing server")

	s.closeListeners()

	s.mu.RLock()
	for sess := range s.activeSess {
		sess.Terminate(SessionErrorCodeGoingAway, "server closed")
	}
	s.mu.RUnlock()

	return s.WebtransportServer.Close()
}

// Shutdown closes every listener and waits for active sessions to end.
// When ctx is done first, the remaining sessions are terminated.
func (s *Server) Shutdown(ctx context.Context) error {
	s.inShutdown.Store(true)
	s.init()

	s.Logger.Info("shutting down server")

	s.closeListeners()
	s.listenerGroup.Wait()

	s.mu.Lock()
	if len(s.activeSess) == 0 {
		s.drainOnce.Do(func() { close(s.drained) })
	}
	s.mu.Unlock()

	select {
	case <-s.drained:
	case <-ctx.Done():
		s.mu.RLock()
		for sess := range s.activeSess {
			sess.Terminate(SessionErrorCodeGoingAway, "shutdown timeout")
		}
		s.mu.RUnlock()

		s.WebtransportServer.Close()
		return ctx.Err()
	}

	return s.WebtransportServer.Shutdown(ctx)
}

func (s *Server) closeListeners() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ln := range s.listeners {
		if err := ln.Close(); err != nil {
			s.Logger.Debug("failed to close listener", "error", err)
		}
	}
}

func (s *Server) addListener(ln quic.EarlyListener) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shuttingDown() {
		return false
	}
	s.listeners[ln] = struct{}{}
	s.listenerGroup.Add(1)
	return true
}

func (s *Server) removeListener(ln quic.EarlyListener) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listeners[ln]; !ok {
		return
	}
	delete(s.listeners, ln)
	s.listenerGroup.Done()
}

func (s *Server) addSession(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shuttingDown() {
		return false
	}
	s.activeSess[sess] = struct{}{}
	return true
}

func (s *Server) removeSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.activeSess, sess)

	if len(s.activeSess) == 0 && s.shuttingDown() {
		s.drainOnce.Do(func() { close(s.drained) })
	}
}

func (s *Server) shuttingDown() bool {
	return s.inShutdown.Load()
}
