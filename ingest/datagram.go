package ingest

import (
	"context"
	"fmt"
)

// EchoReply returns the reply to a ping datagram: prefix followed by data.
// With an empty prefix the reply is data itself.
func EchoReply(prefix, data []byte) []byte {
	if len(prefix) == 0 {
		return data
	}
	reply := make([]byte, 0, len(prefix)+len(data))
	reply = append(reply, prefix...)
	return append(reply, data...)
}

// handleDatagrams echoes every received datagram until the session ends.
func (s *Session) handleDatagrams(ctx context.Context) error {
	prefix := s.config.echoPrefix()

	for {
		data, err := s.conn.ReceiveDatagram(ctx)
		if err != nil {
			if ctx.Err() != nil || isClosedError(err) {
				return nil
			}
			return fmt.Errorf("receive datagram: %w", err)
		}

		if s.limiter != nil && !s.limiter.Allow() {
			s.metrics.datagramDropped()
			continue
		}

		if err := s.conn.SendDatagram(EchoReply(prefix, data)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("failed to echo datagram", "error", err, "size", len(data))
			continue
		}
		s.metrics.datagramEchoed()
	}
}
