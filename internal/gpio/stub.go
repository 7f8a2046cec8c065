//go:build !linux

package gpio

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns ErrUnsupported on non-Linux platforms.
func NewRealReader(chipName string, lines []Line) (*RealReader, error) {
	return nil, ErrUnsupported
}

// Level is not implemented on non-Linux platforms.
func (r *RealReader) Level(pin int) (bool, error) {
	return false, ErrUnsupported
}

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
