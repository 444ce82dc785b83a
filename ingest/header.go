package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MediaType is the kind of media carried by a chunk.
type MediaType uint8

const (
	MediaTypeAudio MediaType = iota
	MediaTypeVideo
)

func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	default:
		return "audio"
	}
}

// ChunkRole is the position of a chunk within its media sequence.
type ChunkRole uint8

const (
	ChunkRoleDelta ChunkRole = iota
	ChunkRoleKey
	ChunkRoleInit
)

func (r ChunkRole) String() string {
	switch r {
	case ChunkRoleKey:
		return "key"
	case ChunkRoleInit:
		return "init"
	default:
		return "delta"
	}
}

// Flag byte layout: bits 7-6 media tag, bits 5-4 role tag, bits 3-0 reserved.
// Every tag value is mapped so that decoding never fails.
var (
	mediaTags = [4]MediaType{
		0b00: MediaTypeAudio,
		0b01: MediaTypeVideo,
		0b10: MediaTypeAudio,
		0b11: MediaTypeAudio,
	}
	roleTags = [4]ChunkRole{
		0b00: ChunkRoleDelta,
		0b01: ChunkRoleKey,
		0b10: ChunkRoleInit,
		0b11: ChunkRoleDelta,
	}
)

const (
	lengthPrefixSize = 8
	flagsSize        = 1
	timestampSize    = 8
	fixedHeaderSize  = flagsSize + timestampSize
)

// DecodeFlags classifies a header flag byte.
func DecodeFlags(b byte) (MediaType, ChunkRole) {
	return mediaTags[b>>6], roleTags[(b>>4)&0b11]
}

// EncodeFlags returns the flag byte for the given classification.
// Reserved bits are zero.
func EncodeFlags(media MediaType, role ChunkRole) byte {
	var mediaBits, roleBits byte
	if media == MediaTypeVideo {
		mediaBits = 0b01
	}
	switch role {
	case ChunkRoleKey:
		roleBits = 0b01
	case ChunkRoleInit:
		roleBits = 0b10
	}
	return mediaBits<<6 | roleBits<<4
}

// ChunkHeader is the decoded header prefixing every ingested fragment.
type ChunkHeader struct {
	MediaType MediaType
	Role      ChunkRole

	// Timestamp is the capture time in microseconds.
	// It is zero when the header carries flags only.
	Timestamp uint64

	CacheControl string
}

func (h ChunkHeader) IsInit() bool {
	return h.Role == ChunkRoleInit
}

// Encode returns the header bytes: flags, timestamp, then the cache-control string.
func (h ChunkHeader) Encode() []byte {
	b := make([]byte, fixedHeaderSize, fixedHeaderSize+len(h.CacheControl))
	b[0] = EncodeFlags(h.MediaType, h.Role)
	binary.BigEndian.PutUint64(b[flagsSize:], h.Timestamp)
	return append(b, h.CacheControl...)
}

// DecodeChunkHeader decodes header bytes. A header shorter than the fixed
// part carries the flag byte only; any trailing bytes of a truncated timestamp
// are ignored.
func DecodeChunkHeader(b []byte) (ChunkHeader, error) {
	if len(b) == 0 {
		return ChunkHeader{}, ErrEmptyHeader
	}

	var h ChunkHeader
	h.MediaType, h.Role = DecodeFlags(b[0])

	if len(b) >= fixedHeaderSize {
		h.Timestamp = binary.BigEndian.Uint64(b[flagsSize:fixedHeaderSize])
		h.CacheControl = string(b[fixedHeaderSize:])
	}

	return h, nil
}

// ReadChunkHeader reads the 8-byte big-endian header length followed by
// exactly that many header bytes. Headers longer than maxLen are rejected
// before any header byte is read.
func ReadChunkHeader(r io.Reader, maxLen uint64) (ChunkHeader, error) {
	var prefix [lengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return ChunkHeader{}, fmt.Errorf("read header length: %w: %w", ErrTruncatedHeader, err)
		}
		return ChunkHeader{}, fmt.Errorf("read header length: %w", err)
	}

	n := binary.BigEndian.Uint64(prefix[:])
	if n == 0 {
		return ChunkHeader{}, ErrEmptyHeader
	}
	if n > maxLen {
		return ChunkHeader{}, fmt.Errorf("%w: %d > %d", ErrHeaderTooLarge, n, maxLen)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ChunkHeader{}, fmt.Errorf("read header: %w: %w", ErrTruncatedHeader, io.ErrUnexpectedEOF)
		}
		return ChunkHeader{}, fmt.Errorf("read header: %w", err)
	}

	return DecodeChunkHeader(buf)
}

// WriteChunk writes one framed fragment: length prefix, header, payload.
func WriteChunk(w io.Writer, h ChunkHeader, payload []byte) error {
	hdr := h.Encode()

	var prefix [lengthPrefixSize]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(hdr)))

	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
