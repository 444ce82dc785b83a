package ingest

import "github.com/quic-go/quic-go/http3"

// nextProtos lists the ALPN identifiers of the HTTP/3 family, final version first.
var nextProtos = [...]string{
	http3.NextProtoH3,
	"h3-32",
	"h3-31",
	"h3-30",
	"h3-29",
}

// NextProtos returns the ALPN identifiers offered during the TLS handshake.
// The returned slice is a copy and may be modified by the caller.
func NextProtos() []string {
	protos := make([]string, len(nextProtos))
	copy(protos, nextProtos[:])
	return protos
}
