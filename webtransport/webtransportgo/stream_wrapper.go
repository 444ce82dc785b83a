package webtransportgo

import (
	"github.com/majiix/wtingest/quic"
	quicgo_webtransportgo "github.com/quic-go/webtransport-go"
)

var _ quic.ReceiveStream = receiveStream{}

// receiveStream adapts a WebTransport stream to quic.ReceiveStream.
// WebTransport error codes are 32 bits wide; ingest codes all fit.
type receiveStream struct {
	quicgo_webtransportgo.ReceiveStream
}

func (s receiveStream) CancelRead(code quic.StreamErrorCode) {
	s.ReceiveStream.CancelRead(quicgo_webtransportgo.StreamErrorCode(code))
}

var _ quic.SendStream = sendStream{}

type sendStream struct {
	quicgo_webtransportgo.SendStream
}

func (s sendStream) CancelWrite(code quic.StreamErrorCode) {
	s.SendStream.CancelWrite(quicgo_webtransportgo.StreamErrorCode(code))
}
