// Command wtprobe publishes a short synthetic asset to an ingest server and
// checks the datagram echo.
package main

import (
	"bytes"
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/majiix/wtingest/ingest"
	"github.com/majiix/wtingest/quic"
	"github.com/majiix/wtingest/webtransport/webtransportgo"
)

func main() {
	url := flag.String("url", "https://localhost:4433/live/room1/probe", "ingest session URL")
	insecure := flag.Bool("insecure", false, "skip certificate verification")
	timeout := flag.Duration("timeout", 10*time.Second, "overall timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, *url, *insecure); err != nil {
		slog.Error("check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("check completed", "url", *url)
}

func run(ctx context.Context, url string, insecure bool) error {
	tlsConfig := &tls.Config{
		NextProtos:         ingest.NextProtos(),
		InsecureSkipVerify: insecure,
	}

	_, sess, err := webtransportgo.Dial(ctx, url, nil, tlsConfig)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer sess.CloseWithError(ingest.SessionErrorCodeNoError, "")

	slog.Info("session established", "remote_address", sess.RemoteAddr())

	return publish(ctx, sess)
}

// publish sends a short synthetic asset on sess and waits for the echo of a
// datagram.
func publish(ctx context.Context, sess quic.Connection) error {
	chunks := []struct {
		header  ingest.ChunkHeader
		payload []byte
	}{
		{
			header:  ingest.ChunkHeader{MediaType: ingest.MediaTypeVideo, Role: ingest.ChunkRoleInit, CacheControl: "max-age=60"},
			payload: []byte("init"),
		},
		{
			header:  ingest.ChunkHeader{MediaType: ingest.MediaTypeVideo, Role: ingest.ChunkRoleKey, Timestamp: uint64(time.Now().UnixMicro()), CacheControl: "max-age=60"},
			payload: []byte("key"),
		},
		{
			header:  ingest.ChunkHeader{MediaType: ingest.MediaTypeAudio, Role: ingest.ChunkRoleDelta, Timestamp: uint64(time.Now().UnixMicro())},
			payload: []byte("audio"),
		},
	}

	for _, c := range chunks {
		if err := sendChunk(ctx, sess, c.header, c.payload); err != nil {
			return err
		}
		slog.Info("sent chunk",
			"media_type", c.header.MediaType.String(),
			"role", c.header.Role.String(),
			"size", len(c.payload),
		)
	}

	ping := []byte("ping")
	if err := sess.SendDatagram(ping); err != nil {
		return fmt.Errorf("send datagram: %w", err)
	}
	echo, err := sess.ReceiveDatagram(ctx)
	if err != nil {
		return fmt.Errorf("receive datagram: %w", err)
	}
	if err := checkEcho(ping, echo); err != nil {
		return err
	}
	slog.Info("received echo", "data", string(echo))

	return nil
}

// checkEcho reports whether echo is the server's reply to sent. The server
// may prepend a prefix but keeps the payload.
func checkEcho(sent, echo []byte) error {
	if !bytes.HasSuffix(echo, sent) {
		return fmt.Errorf("unexpected echo %q for %q", echo, sent)
	}
	return nil
}

func sendChunk(ctx context.Context, sess quic.Connection, h ingest.ChunkHeader, payload []byte) error {
	stream, err := sess.OpenUniStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	if err := ingest.WriteChunk(stream, h, payload); err != nil {
		stream.CancelWrite(ingest.StreamErrorCodeInternal)
		return fmt.Errorf("write chunk: %w", err)
	}
	return stream.Close()
}
