package termglyph

import (
	"errors"
	"fmt"
)

// Sentinel errors for the renderer.
var (
	// ErrNoFont is returned when an operation needs an installed font
	// set and none has been configured.
	ErrNoFont = errors.New("termglyph: no font configured")

	// ErrRenderInProgress is returned when a configuration mutator is
	// invoked from inside the upload sink.
	ErrRenderInProgress = errors.New("termglyph: configuration change during render")
)

// MetricsError reports cell metrics that cannot support rendering
// after the line-height adjustments were applied. The previous
// configuration stays installed.
type MetricsError struct {
	CellWidth  int
	CellHeight int
	Reason     string
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("termglyph: bad cell metrics %dx%d: %s", e.CellWidth, e.CellHeight, e.Reason)
}
