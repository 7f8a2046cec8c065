package gpio

// FakeReader is a test double that returns scripted GPIO levels per pin.
type FakeReader struct {
	// Samples contains scripted levels for each pin.
	// Each call to Level(pin) consumes the next sample for that pin.
	Samples map[int][]bool

	// index tracks current position in each pin's samples
	index map[int]int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Level()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples map[int][]bool) *FakeReader {
	if samples == nil {
		samples = make(map[int][]bool)
	}
	return &FakeReader{Samples: samples, index: make(map[int]int)}
}

// Level returns the next scripted sample for pin.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Level(pin int) (bool, error) {
	if f.ReadError != nil {
		return false, f.ReadError
	}

	samples := f.Samples[pin]
	if len(samples) == 0 {
		return false, unknownPin(pin)
	}

	i := f.index[pin]
	if i < len(samples)-1 {
		f.index[pin] = i + 1
	}
	return samples[i], nil
}

// Set replaces the script for pin with a single constant level.
func (f *FakeReader) Set(pin int, level bool) {
	f.Samples[pin] = []bool{level}
	f.index[pin] = 0
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds every pin to the beginning of its samples.
func (f *FakeReader) Reset() {
	f.index = make(map[int]int)
	f.Closed = false
}
