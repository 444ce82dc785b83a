package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/majiix/wtingest/ingest"
	"github.com/majiix/wtingest/internal/media"
	"github.com/majiix/wtingest/internal/platform/config"
	"github.com/majiix/wtingest/internal/platform/logger"
	"github.com/majiix/wtingest/internal/platform/metrics"
	"github.com/majiix/wtingest/internal/platform/tracing"
	"github.com/majiix/wtingest/internal/presence"
	"github.com/majiix/wtingest/internal/transcode"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const serviceName = "wtingest"

type options struct {
	listenAddr      string
	certPath        string
	keyPath         string
	httpAddr        string
	mediaRoot       string
	allowOrigin     string
	ffmpegBinary    string
	logLevel        string
	logFormat       string
	redisAddrs      string
	redisPrefix     string
	jaegerEndpoint  string
	shutdownTimeout time.Duration

	maxSessionsPerConn int
	streamReadTimeout  time.Duration
	maxHeaderLength    int
	maxChunkSize       int
	defaultMaxAge      time.Duration
	sweepInterval      time.Duration
	echoPrefix         string
	datagramRate       float64
	datagramBurst      int
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	if err := config.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	opts := &options{}
	cmd := &cobra.Command{
		Use:          "ingestd",
		Short:        "Live media ingest over WebTransport",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.listenAddr, "listen", config.GetEnv("LISTEN_ADDR", "0.0.0.0:4433"), "QUIC listen address")
	f.StringVar(&opts.certPath, "cert", config.GetEnv("CERT_PATH", "cert.pem"), "TLS certificate file")
	f.StringVar(&opts.keyPath, "key", config.GetEnv("KEY_PATH", "key.pem"), "TLS private key file")
	f.StringVar(&opts.httpAddr, "http", config.GetEnv("HTTP_ADDR", "0.0.0.0:8080"), "HTTP listen address for media, status and metrics")
	f.StringVar(&opts.mediaRoot, "media-root", config.GetEnv("MEDIA_ROOT", "media"), "directory holding transcoded media")
	f.StringVar(&opts.allowOrigin, "allow-origin", config.GetEnv("ALLOW_ORIGIN", "*"), "Access-Control-Allow-Origin sent with media files")
	f.StringVar(&opts.ffmpegBinary, "ffmpeg", config.GetEnv("FFMPEG_BINARY", transcode.DefaultBinary), "transcoder executable")
	f.StringVar(&opts.logLevel, "log-level", config.GetEnv("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", config.GetEnv("LOG_FORMAT", "json"), "log format (json, text)")
	f.StringVar(&opts.redisAddrs, "redis", config.GetEnv("REDIS_ADDR", ""), "comma separated Redis addresses for presence; empty disables it")
	f.StringVar(&opts.redisPrefix, "redis-prefix", config.GetEnv("REDIS_PREFIX", presence.DefaultPrefix), "Redis key prefix")
	f.StringVar(&opts.jaegerEndpoint, "jaeger", config.GetEnv("OTEL_EXPORTER_JAEGER_ENDPOINT", ""), "Jaeger collector endpoint; empty disables tracing")
	f.DurationVar(&opts.shutdownTimeout, "shutdown-timeout", config.GetEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second), "graceful shutdown timeout")

	f.IntVar(&opts.maxSessionsPerConn, "max-sessions-per-conn", config.GetEnvInt("MAX_SESSIONS_PER_CONN", 1), "WebTransport sessions allowed per QUIC connection")
	f.DurationVar(&opts.streamReadTimeout, "stream-read-timeout", config.GetEnvDuration("STREAM_READ_TIMEOUT", 30*time.Second), "deadline for reading one ingest stream")
	f.IntVar(&opts.maxHeaderLength, "max-header-length", config.GetEnvInt("MAX_HEADER_LENGTH", 4<<10), "largest accepted chunk header in bytes")
	f.IntVar(&opts.maxChunkSize, "max-chunk-size", config.GetEnvInt("MAX_CHUNK_SIZE", 16<<20), "largest accepted chunk payload in bytes")
	f.DurationVar(&opts.defaultMaxAge, "default-max-age", config.GetEnvDuration("DEFAULT_MAX_AGE", time.Minute), "buffer lifetime when a chunk carries no max-age")
	f.DurationVar(&opts.sweepInterval, "sweep-interval", config.GetEnvDuration("SWEEP_INTERVAL", 5*time.Second), "eviction sweep period")
	f.StringVar(&opts.echoPrefix, "echo-prefix", config.GetEnv("ECHO_PREFIX", ""), "prefix prepended to echoed datagrams")
	f.Float64Var(&opts.datagramRate, "datagram-rate", config.GetEnvFloat("DATAGRAM_RATE", 0), "echoed datagrams per second per session; 0 is unlimited")
	f.IntVar(&opts.datagramBurst, "datagram-burst", config.GetEnvInt("DATAGRAM_BURST", 0), "datagram echo burst")

	return cmd
}

func (o *options) ingestConfig() *ingest.Config {
	cfg := &ingest.Config{
		MaxSessionsPerConn: o.maxSessionsPerConn,
		StreamReadTimeout:  o.streamReadTimeout,
		DefaultMaxAge:      o.defaultMaxAge,
		SweepInterval:      o.sweepInterval,
		DatagramRate:       o.datagramRate,
		DatagramBurst:      o.datagramBurst,
	}
	if o.maxHeaderLength > 0 {
		cfg.MaxHeaderLength = uint64(o.maxHeaderLength)
	}
	if o.maxChunkSize > 0 {
		cfg.MaxChunkSize = int64(o.maxChunkSize)
	}
	if o.echoPrefix != "" {
		cfg.EchoPrefix = []byte(o.echoPrefix)
	}
	return cfg
}

func run(ctx context.Context, opts *options) error {
	log := logger.New(opts.logLevel, opts.logFormat)
	slog.SetDefault(log)

	shutdownTracing, err := tracing.Init(ctx, serviceName, opts.jaegerEndpoint)
	if err != nil {
		log.Error("failed to initialise tracing", "error", err)
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	met := metrics.New()

	announcer, closeAnnouncer, err := newAnnouncer(opts, log)
	if err != nil {
		log.Error("failed to set up presence", "error", err)
		return err
	}
	defer closeAnnouncer()

	server := &ingest.Server{
		Addr:      opts.listenAddr,
		Config:    opts.ingestConfig(),
		Logger:    log.With("component", "ingest"),
		Metrics:   ingest.NewMetrics(met.Registry()),
		Announcer: announcer,
	}

	transcoder := &transcode.Transcoder{
		Binary: opts.ffmpegBinary,
		Logger: log.With("component", "transcode"),
	}
	handler := media.NewHandler(opts.mediaRoot, opts.allowOrigin, media.ServerDirectory(server), transcoder, log, met)
	httpServer := &http.Server{
		Addr:              opts.httpAddr,
		Handler:           media.NewRouter(handler, log.With("component", "http"), met),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := server.ListenAndServeTLS(opts.certPath, opts.keyPath)
		if errors.Is(err, ingest.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		log.Info("serving HTTP", "address", opts.httpAddr)
		err := httpServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), opts.shutdownTimeout)
		defer cancel()
		return errors.Join(
			server.Shutdown(ctx),
			httpServer.Shutdown(ctx),
		)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", "error", err)
		return err
	}

	log.Info("server stopped")
	return nil
}

func newAnnouncer(opts *options, log *slog.Logger) (ingest.Announcer, func(), error) {
	if strings.TrimSpace(opts.redisAddrs) == "" {
		return presence.Nop{}, func() {}, nil
	}

	r, err := presence.NewRedis(presence.RedisConfig{
		Addrs:       strings.Split(opts.redisAddrs, ","),
		Password:    config.GetEnv("REDIS_PASSWORD", ""),
		Prefix:      opts.redisPrefix,
		DialTimeout: 5 * time.Second,
		Logger:      log.With("component", "presence"),
	})
	if err != nil {
		return nil, nil, err
	}

	return r, func() {
		if err := r.Close(); err != nil {
			log.Warn("failed to close redis client", "error", err)
		}
	}, nil
}
