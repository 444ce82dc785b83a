package webtransportgo

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"

	"github.com/majiix/wtingest/quic"
	"github.com/majiix/wtingest/webtransport"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

var _ webtransport.DialAddrFunc = Dial

// Dial opens a WebTransport session to addr, an https URL.
func Dial(ctx context.Context, addr string, header http.Header, tlsConfig *tls.Config) (*http.Response, quic.Connection, error) {
	d := quicgo_webtransportgo.Dialer{
		TLSClientConfig: tlsConfig,
	}
	rsp, wtsess, err := d.Dial(ctx, addr, header)
	if err != nil {
		return rsp, nil, err
	}

	if wtsess == nil {
		return rsp, nil, errors.New("webtransport session is nil after dial")
	}

	return rsp, wrapSession(wtsess), nil
}
