package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/majiix/wtingest/quic"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/majiix/wtingest/ingest"

// Session is one WebTransport session publishing a single asset.
// It owns its chunk store; nothing is shared with other sessions.
type Session struct {
	ID         string
	Path       string
	Room       string
	AssetID    string
	RemoteAddr string
	StartedAt  time.Time

	conn    quic.Connection
	store   *ChunkStore
	config  *Config
	logger  *slog.Logger
	metrics *Metrics
	limiter *rate.Limiter

	streams sync.WaitGroup

	done chan struct{}
}

func newSession(conn quic.Connection, path string, route AssetRoute, config *Config, logger *slog.Logger, metrics *Metrics) *Session {
	id := uuid.NewString()

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Session{
		ID:         id,
		Path:       path,
		Room:       route.Room,
		AssetID:    route.AssetID,
		RemoteAddr: conn.RemoteAddr().String(),
		StartedAt:  time.Now(),
		conn:       conn,
		store:      NewChunkStore(),
		config:     config,
		logger: logger.With(
			"session_id", id,
			"asset_id", route.AssetID,
		),
		metrics: metrics,
		limiter: config.datagramLimiter(),
		done:    make(chan struct{}),
	}
}

// Store returns the session's chunk store.
func (s *Session) Store() *ChunkStore {
	return s.store
}

// Done is closed when the session has finished.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) Announcement() Announcement {
	return Announcement{
		SessionID:  s.ID,
		Room:       s.Room,
		AssetID:    s.AssetID,
		RemoteAddr: s.RemoteAddr,
	}
}

// SessionInfo is a point-in-time description of a session.
type SessionInfo struct {
	ID         string       `json:"id"`
	Path       string       `json:"path"`
	Room       string       `json:"room"`
	AssetID    string       `json:"asset_id"`
	RemoteAddr string       `json:"remote_address"`
	StartedAt  time.Time    `json:"started_at"`
	Buffers    []BufferInfo `json:"buffers"`
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:         s.ID,
		Path:       s.Path,
		Room:       s.Room,
		AssetID:    s.AssetID,
		RemoteAddr: s.RemoteAddr,
		StartedAt:  s.StartedAt,
		Buffers:    s.store.Snapshot(),
	}
}

// Terminate closes the underlying WebTransport session, which ends run.
func (s *Session) Terminate(code quic.ApplicationErrorCode, msg string) {
	if err := s.conn.CloseWithError(code, msg); err != nil {
		s.logger.Debug("failed to close session", "error", err)
	}
}

// run serves the session until the connection ends or one of its loops exits.
// The stream accept loop, the datagram loop and the eviction sweeper share one
// context; whichever returns first cancels the others.
func (s *Session) run(ctx context.Context) error {
	defer close(s.done)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "ingest.session",
		trace.WithAttributes(
			attribute.String("session.id", s.ID),
			attribute.String("asset.id", s.AssetID),
			attribute.String("room", s.Room),
		),
	)
	defer span.End()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	stop := context.AfterFunc(s.conn.Context(), func() {
		cancel(context.Cause(s.conn.Context()))
	})
	defer stop()

	s.logger.Info("session started", "room", s.Room, "path", s.Path)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel(nil)
		return s.handleIngest(gctx)
	})
	g.Go(func() error {
		defer cancel(nil)
		return s.handleDatagrams(gctx)
	})
	if interval := s.config.sweepInterval(); interval > 0 {
		g.Go(func() error {
			s.store.RunSweeper(gctx, interval, s.onEvict)
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("session ended", "error", err)
		return err
	}

	s.logger.Info("session ended", "buffers", s.store.Len())
	return nil
}

func (s *Session) onEvict(keys []string) {
	s.metrics.buffersEvictedAdd(len(keys))
	s.logger.Debug("evicted expired buffers", "keys", keys)
}

// handleIngest accepts unidirectional streams and ingests each one on its own
// goroutine. It returns once the accept loop has ended and every in-flight
// stream has been handled.
func (s *Session) handleIngest(ctx context.Context) error {
	defer s.streams.Wait()

	for {
		stream, err := s.conn.AcceptUniStream(ctx)
		if err != nil {
			if ctx.Err() != nil || isClosedError(err) {
				return nil
			}
			return fmt.Errorf("accept stream: %w", err)
		}

		s.streams.Add(1)
		go s.handleStream(ctx, stream)
	}
}

func (s *Session) handleStream(ctx context.Context, stream quic.ReceiveStream) {
	defer s.streams.Done()

	logger := s.logger.With("stream_id", stream.StreamID())

	_, span := otel.Tracer(tracerName).Start(ctx, "ingest.stream",
		trace.WithAttributes(attribute.Int64("stream.id", int64(stream.StreamID()))),
	)
	defer span.End()

	hdr, n, err := s.ingestStream(stream)
	if err != nil {
		code := streamErrorCode(err)
		stream.CancelRead(code)

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.metrics.streamFailed(strconv.FormatUint(uint64(code), 10))
		logger.Warn("failed to ingest stream", "error", err)
		return
	}

	span.SetAttributes(
		attribute.String("media", hdr.MediaType.String()),
		attribute.String("role", hdr.Role.String()),
		attribute.Int("bytes", n),
	)
	s.metrics.streamIngested(hdr, n)
	logger.Debug("ingested stream",
		"media", hdr.MediaType.String(),
		"role", hdr.Role.String(),
		"timestamp", hdr.Timestamp,
		"bytes", n,
	)
}

// ingestStream reads one framed chunk and appends its payload to the buffer
// for the derived cache key. The payload is appended in one piece, so a
// rejected stream never leaves a partial chunk in the store.
func (s *Session) ingestStream(stream quic.ReceiveStream) (ChunkHeader, int, error) {
	if timeout := s.config.streamReadTimeout(); timeout > 0 {
		if err := stream.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return ChunkHeader{}, 0, fmt.Errorf("set read deadline: %w", err)
		}
	}

	hdr, err := ReadChunkHeader(stream, s.config.maxHeaderLength())
	if err != nil {
		return ChunkHeader{}, 0, err
	}

	limit := s.config.maxChunkSize()
	payload, err := io.ReadAll(io.LimitReader(stream, limit+1))
	if err != nil {
		return hdr, 0, fmt.Errorf("read payload: %w", err)
	}
	if int64(len(payload)) > limit {
		return hdr, 0, fmt.Errorf("%w: more than %d bytes", ErrChunkTooLarge, limit)
	}

	key := DeriveCacheKey(s.AssetID, hdr.MediaType, hdr.IsInit())
	maxAge := secondsToDuration(ExtractMaxAge(hdr.CacheControl, s.config.defaultMaxAge()))

	if s.store.Append(key, maxAge, payload) {
		s.logger.Debug("created buffer", "key", key, "max_age", maxAge)
	}

	return hdr, len(payload), nil
}

func secondsToDuration(seconds uint64) time.Duration {
	if seconds > uint64(math.MaxInt64/int64(time.Second)) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds) * time.Second
}
