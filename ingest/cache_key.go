package ingest

import (
	"strconv"
	"strings"
)

// DeriveCacheKey returns the store key for a chunk of assetID.
// Initialization segments and media data of the same asset and media type
// live under distinct keys; successive chunks with the same inputs share one.
func DeriveCacheKey(assetID string, media MediaType, isInit bool) string {
	if isInit {
		return assetID + "/" + media.String() + "/init"
	}
	return assetID + "/" + media.String() + "/data"
}

// ExtractMaxAge returns the max-age directive of a cache-control string in
// seconds, or def when the directive is absent or not an unsigned integer.
func ExtractMaxAge(cacheControl string, def uint64) uint64 {
	for _, directive := range strings.Split(cacheControl, ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(name), "max-age") {
			continue
		}

		seconds, err := strconv.ParseUint(strings.Trim(strings.TrimSpace(value), `"`), 10, 64)
		if err != nil {
			return def
		}
		return seconds
	}
	return def
}
