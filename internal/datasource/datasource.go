// Package datasource abstracts where raw extract bytes come from. The file
// subpackage reads local exports; httpds fetches a published one once.
package datasource

import (
	"context"
	"io"
)

// Source opens one byte stream. Callers close the returned reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
