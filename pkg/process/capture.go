package process

import (
	"bytes"
	"io"
	"sync"
)

// OutputCapture collects everything written to it.
type OutputCapture struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

// NewOutputCapture creates an empty OutputCapture.
func NewOutputCapture() *OutputCapture {
	return &OutputCapture{}
}

func (o *OutputCapture) Write(p []byte) (int, error) {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.buf.Write(p)
}

// Data returns the captured text.
func (o *OutputCapture) Data() string {
	o.lock.Lock()
	defer o.lock.Unlock()
	return o.buf.String()
}

// TeeCapture captures output and passes it through to another writer.
type TeeCapture struct {
	underlying  *OutputCapture
	passthrough io.Writer
	lock        sync.Mutex
}

// NewTeeCapture creates a TeeCapture writing into underlying and passthrough.
// A nil passthrough discards the copy.
func NewTeeCapture(underlying *OutputCapture, passthrough io.Writer) *TeeCapture {
	if passthrough == nil {
		passthrough = io.Discard
	}
	return &TeeCapture{
		underlying:  underlying,
		passthrough: passthrough,
	}
}

// Write writes p to the capture first so a failing passthrough never loses output.
func (t *TeeCapture) Write(p []byte) (int, error) {
	t.lock.Lock()
	defer t.lock.Unlock()

	n, err := t.underlying.Write(p)
	if err != nil {
		return n, err
	}
	if _, err := t.passthrough.Write(p); err != nil {
		return n, err
	}
	return n, nil
}

// Underlying returns the capture the tee writes into.
func (t *TeeCapture) Underlying() *OutputCapture {
	return t.underlying
}
