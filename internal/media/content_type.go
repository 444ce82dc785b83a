package media

import (
	"path/filepath"
	"strings"
)

const (
	ContentTypePlaylist = "application/x-mpegURL"
	ContentTypeSegment  = "video/MP2T"
	ContentTypeBinary   = "application/octet-stream"
)

// ContentType returns the content type served for a media file path.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return ContentTypePlaylist
	case ".ts":
		return ContentTypeSegment
	default:
		return ContentTypeBinary
	}
}
