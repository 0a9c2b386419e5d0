package sqpack

import "errors"

// Closed set of error kinds returned from this package. Archive operations
// that fail return one of these via errors.Is, optionally wrapped with
// context through fmt.Errorf("%w: ...", ...). LoadConfig is the exception: it
// returns the underlying open or YAML decode error wrapped with context.
var (
	ErrFileNotFound        = errors.New("sqpack: file not found")
	ErrUnknownCategory     = errors.New("sqpack: unknown category")
	ErrInvalidRepo         = errors.New("sqpack: invalid repository")
	ErrUnsupportedPlatform = errors.New("sqpack: unsupported platform")
	ErrInvalidIndex        = errors.New("sqpack: invalid index file")
	ErrInvalidDat          = errors.New("sqpack: invalid dat file")
	ErrDecompressFailed    = errors.New("sqpack: block decompression failed")
	ErrInvalidPageIndex    = errors.New("sqpack: invalid excel page index")
	ErrRowNotFound         = errors.New("sqpack: row not found")
	ErrLanguageNotFound    = errors.New("sqpack: language not found")
	ErrCorruptExcel        = errors.New("sqpack: corrupt excel data")
	ErrIo                  = errors.New("sqpack: io error")
)

// PathError reports a failure resolving or reading a single virtual path. It
// wraps one of the sentinel errors above so callers can use errors.Is against
// the kind without caring about the path that triggered it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

func newPathError(op, path string, err error) *PathError {
	return &PathError{Op: op, Path: path, Err: err}
}
