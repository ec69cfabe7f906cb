package upload

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveExtension(t *testing.T) {
	tests := []struct {
		contentType string
		want        string
	}{
		{"text/plain", "txt"},
		{"application/json", "json"},
		{"APPLICATION/JSON; charset=utf-8", "json"},
		{"  image/PNG  ", "png"},
		{"text/html;charset=UTF-8", "html"},
		{"image/svg+xml", "svg"},
		{"application/octet-stream", "bin"},
		{"multipart/form-data; boundary=xyz", DefaultExtension},
		{"application/x-www-form-urlencoded", DefaultExtension},
		{"application/vnd.unknown", DefaultExtension},
		{"", DefaultExtension},
		{";", DefaultExtension},
		{"not a media type at all", DefaultExtension},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveExtension(tt.contentType))
		})
	}
}

func TestResolveExtension_TableIsNonEmpty(t *testing.T) {
	for mediaType, ext := range extensions {
		assert.NotEmpty(t, ext, mediaType)
		assert.Equal(t, ext, ResolveExtension(mediaType))
	}
}

func TestDerivePath(t *testing.T) {
	ts := time.Date(2026, time.March, 7, 8, 9, 10, 123456789, time.UTC)

	got := DerivePath("/srv/uploads", "abc123", ts, "json")

	assert.Equal(t, filepath.Join("/srv/uploads", "2026-03", "data-20260307T080910Z-abc123.json"), got)
	assert.Equal(t, got, DerivePath("/srv/uploads", "abc123", ts, "json"), "deterministic")
}

func TestDerivePath_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	// 2026-01-01 01:30 at +03:00 is still December in UTC.
	ts := time.Date(2026, time.January, 1, 1, 30, 0, 0, loc)

	got := DerivePath("root", "t", ts, "txt")

	assert.Equal(t, filepath.Join("root", "2025-12", "data-20251231T223000Z-t.txt"), got)
}

func TestDerivePath_RelativeKey(t *testing.T) {
	ts := time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, filepath.Join("2026-10", "data-20261018T000000Z-tok.bin"), DerivePath("", "tok", ts, "bin"))
}

func TestDerivePath_SortsChronologically(t *testing.T) {
	base := time.Date(2026, time.September, 30, 23, 59, 58, 0, time.UTC)
	var paths []string
	for i := 0; i < 5; i++ {
		paths = append(paths, DerivePath("r", "same", base.Add(time.Duration(i)*time.Second), "txt"))
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	assert.Equal(t, paths, sorted)
}
