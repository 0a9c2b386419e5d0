package sqpack

import (
	"compress/flate"
	"io"
	"sync"
)

// flatePool reuses flate.Reader instances across block decompressions. A
// sqpack archive read can touch thousands of blocks per file; pooling the
// reader avoids an allocation per block the way the reference reuse pattern
// does for its own per-object decompressor.
var flatePool = sync.Pool{New: func() any { return nil }}

// getFlateReader obtains a flate.Reader (raw DEFLATE, no zlib wrapper) from
// the pool or creates a new one, resetting it to read from src.
func getFlateReader(src io.Reader) (io.ReadCloser, error) {
	if v := flatePool.Get(); v != nil {
		if fr, ok := v.(flate.Resetter); ok {
			if err := fr.Reset(src, nil); err == nil {
				return fr.(io.ReadCloser), nil
			}
		}
	}
	return flate.NewReader(src), nil
}

// putFlateReader returns a flate.Reader to the pool for reuse.
func putFlateReader(r io.ReadCloser) {
	_ = r.Close()
	flatePool.Put(r)
}
