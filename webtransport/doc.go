// Package webtransport provides the WebTransport abstraction used by the
// ingest server.
//
// WebTransport sessions are negotiated with an HTTP/3 extended CONNECT request
// and expose streams and datagrams to the application. This package only
// declares the server and dialer shapes; sessions are surfaced as
// quic.Connection values so that session logic does not depend on a concrete
// implementation.
//
// # Implementations
//
//   - webtransportgo subpackage: wraps github.com/quic-go/webtransport-go
//
// For more information about WebTransport, see:
// https://www.w3.org/TR/webtransport/
package webtransport
