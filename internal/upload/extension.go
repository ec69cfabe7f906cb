package upload

import "strings"

// DefaultExtension is used for every media type missing from the table.
const DefaultExtension = "txt"

// extensions maps a bare, lowercased media type to a file extension.
var extensions = map[string]string{
	"text/plain":               "txt",
	"text/html":                "html",
	"text/css":                 "css",
	"text/csv":                 "csv",
	"text/markdown":            "md",
	"text/xml":                 "xml",
	"application/xml":          "xml",
	"text/javascript":          "js",
	"application/javascript":   "js",
	"application/json":         "json",
	"application/ld+json":      "jsonld",
	"application/yaml":         "yaml",
	"application/x-yaml":       "yaml",
	"text/yaml":                "yaml",
	"application/toml":         "toml",
	"application/pdf":          "pdf",
	"application/zip":          "zip",
	"application/gzip":         "gz",
	"application/x-tar":        "tar",
	"application/octet-stream": "bin",
	"image/png":                "png",
	"image/jpeg":               "jpg",
	"image/gif":                "gif",
	"image/webp":               "webp",
	"image/svg+xml":            "svg",
	"audio/mpeg":               "mp3",
	"audio/ogg":                "ogg",
	"audio/wav":                "wav",
	"video/mp4":                "mp4",
	"video/webm":               "webm",
}

// ResolveExtension returns the file extension for a Content-Type header value.
// Case and parameters are ignored ("APPLICATION/JSON; charset=utf-8" -> "json").
// Unknown or empty values resolve to DefaultExtension.
func ResolveExtension(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if ext, ok := extensions[mediaType]; ok {
		return ext
	}
	return DefaultExtension
}
