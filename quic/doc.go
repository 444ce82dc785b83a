// Package quic provides the transport abstraction used by the ingest server.
//
// The interfaces in this package cover only what an ingest session uses:
// accepting and opening unidirectional streams, reading them with a deadline,
// resetting them with an error code, and exchanging datagrams. Session logic
// in the ingest package is written against these interfaces, so a raw QUIC
// connection and a WebTransport session can stand in for each other.
// quic-go streams satisfy ReceiveStream and SendStream without wrapping.
//
// # Implementations
//
//   - quicgo subpackage: wraps github.com/quic-go/quic-go
//   - webtransport/webtransportgo: wraps github.com/quic-go/webtransport-go sessions
//
// # Basic Usage
//
//	ln, err := quicgo.ListenAddrEarly("localhost:4443", tlsConfig, quicConfig)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ln.Close()
//
//	for {
//	    conn, err := ln.Accept(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    go handleConnection(conn)
//	}
//
// For more information about QUIC, see RFC 9000:
// https://datatracker.ietf.org/doc/html/rfc9000
package quic
