// Package blob archives registration images. Archival failures are reported
// to the caller but never block user creation.
package blob

import "context"

// Store writes a blob under key and returns a public URL for it.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
