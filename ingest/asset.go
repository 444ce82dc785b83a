package ingest

import (
	"fmt"
	"strings"
)

// AssetRoute is the decoded session path /<root>/<room>/<assetId>/...
type AssetRoute struct {
	Root    string
	Room    string
	AssetID string
}

// ParseAssetPath extracts the asset route from a session URL path.
// Empty segments are skipped; fewer than three segments is an error.
func ParseAssetPath(path string) (AssetRoute, error) {
	segments := make([]string, 0, 4)
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}

	if len(segments) < 3 {
		return AssetRoute{}, fmt.Errorf("%w: %q has %d segments", ErrInvalidAssetPath, path, len(segments))
	}

	return AssetRoute{
		Root:    segments[0],
		Room:    segments[1],
		AssetID: segments[2],
	}, nil
}
