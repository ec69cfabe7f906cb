// Package upload derives where an accepted payload is written.
//
// Layout: {root}/{YYYY-MM}/data-{timestamp}-{token}.{ext}, all in UTC. The
// timestamp uses the ISO-8601 basic format so that names sort
// chronologically and stay free of ':' on every filesystem.
package upload

import (
	"path/filepath"
	"time"
)

const (
	monthLayout     = "2006-01"
	timestampLayout = "20060102T150405Z"
)

// DerivePath builds the storage path for one upload. It is a pure function of
// its arguments. With an empty root the result is a relative key, which is
// what object-store backends expect.
//
// Two uploads with the same token and extension inside the same second get the
// same path; the later write wins.
func DerivePath(root, token string, now time.Time, ext string) string {
	now = now.UTC()
	name := "data-" + now.Format(timestampLayout) + "-" + token + "." + ext
	return filepath.Join(root, now.Format(monthLayout), name)
}
