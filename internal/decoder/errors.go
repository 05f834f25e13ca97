package decoder

import (
	"errors"
	"fmt"

	"github.com/nextquery/nextquery/internal/tensor"
)

// ErrConfig marks construction-time configuration failures: an
// unrecognized recurrent model name or an out-of-range dimension.
// Fatal, never retried.
var ErrConfig = errors.New("invalid decoder configuration")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// ShapeError reports a per-call tensor shape inconsistency. The step
// that raised it is aborted; nothing is coerced or retried.
type ShapeError struct {
	What string
	Want tensor.Shape
	Got  tensor.Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("%s shape mismatch: want %v, got %v", e.What, e.Want, e.Got)
}

func shapeError(what string, want, got tensor.Shape) error {
	return &ShapeError{What: what, Want: want.Clone(), Got: got.Clone()}
}
