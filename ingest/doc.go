// Package ingest implements a live media-ingest server over WebTransport.
//
// A publisher opens a WebTransport session on a path of the form
// /<root>/<room>/<assetId>/... and pushes one media fragment per
// unidirectional stream. Each stream carries an 8-byte big-endian header
// length, the header bytes and the fragment payload:
//
//	+----------------+--------+-----------+---------------+---------+
//	| length (8, BE) | flags  | timestamp | cache-control | payload |
//	|                | (1)    | (8, BE)   | (length - 9)  | (rest)  |
//	+----------------+--------+-----------+---------------+---------+
//
// Fragments are appended to per-session buffers keyed by asset, media type and
// role, and evicted once their cache-control max-age has elapsed. Datagrams
// received on a session are echoed back for connectivity probing.
//
// Basic usage:
//
//	server := &ingest.Server{
//		Addr:   ":4433",
//		Config: &ingest.Config{MaxSessionsPerConn: 1},
//		Logger: slog.Default(),
//	}
//	err := server.ListenAndServeTLS("cert.pem", "key.pem")
package ingest
