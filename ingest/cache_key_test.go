package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCacheKey(t *testing.T) {
	tests := map[string]struct {
		asset  string
		media  MediaType
		isInit bool
		want   string
	}{
		"video init":  {asset: "cam1", media: MediaTypeVideo, isInit: true, want: "cam1/video/init"},
		"audio init":  {asset: "cam1", media: MediaTypeAudio, isInit: true, want: "cam1/audio/init"},
		"video data":  {asset: "cam1", media: MediaTypeVideo, isInit: false, want: "cam1/video/data"},
		"audio data":  {asset: "mic", media: MediaTypeAudio, isInit: false, want: "mic/audio/data"},
		"empty asset": {asset: "", media: MediaTypeVideo, isInit: true, want: "/video/init"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := DeriveCacheKey(tt.asset, tt.media, tt.isInit)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, DeriveCacheKey(tt.asset, tt.media, tt.isInit))
		})
	}
}

func TestExtractMaxAge(t *testing.T) {
	const def = 60

	tests := map[string]struct {
		input string
		want  uint64
	}{
		"plain":            {input: "max-age=42", want: 42},
		"no directive":     {input: "no-directive", want: def},
		"non numeric":      {input: "max-age=abc", want: def},
		"empty":            {input: "", want: def},
		"among directives": {input: "public, max-age=10, immutable", want: 10},
		"case insensitive": {input: "Max-Age=7", want: 7},
		"quoted":           {input: `max-age="15"`, want: 15},
		"negative":         {input: "max-age=-1", want: def},
		"s-maxage ignored": {input: "s-maxage=5", want: def},
		"zero":             {input: "max-age=0", want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMaxAge(tt.input, def))
		})
	}
}
