package device

import (
	"fmt"
	"strings"
)

// Handle is an opaque reference to a compute-side buffer of float64 values
type Handle interface {
	Tag() string
	Len() int
}

// Substrate owns compute-resident memory and moves data between it and the host.
//
// SyncToCompute copies src into the buffer starting at offset (in values, not
// bytes). When it returns, every compute-side read of that range observes src and
// no partially written range is observable. SyncToHost is the reverse direction.
// Host slices passed in are never retained.
type Substrate interface {
	Allocate(tag string, shape ...int) (Handle, error)
	SyncToCompute(h Handle, src []float64, offset int) error
	SyncToHost(h Handle, dst []float64, offset int) error
	Release(h Handle)
	Mode() string
}

// NewSubstrate selects a substrate from a device property string. An empty string
// or "host" gives a HostMirror, anything else is handed to OCCA as JSON properties,
// e.g. `{"mode": "Serial"}` or `{"mode": "CUDA", "device_id": 0}`
func NewSubstrate(props string) (Substrate, error) {
	p := strings.TrimSpace(props)
	if p == "" || strings.EqualFold(p, "host") {
		return NewHostMirror(), nil
	}
	sub, err := NewOCCASubstrate(p)
	if err != nil {
		return nil, fmt.Errorf("unable to create device from %s: %w", p, err)
	}
	return sub, nil
}

// ShapeSize returns the number of values in a buffer of the given shape
func ShapeSize(shape ...int) (size int) {
	size = 1
	for _, dim := range shape {
		if dim < 0 {
			panic(fmt.Errorf("negative dimension in shape %v", shape))
		}
		size *= dim
	}
	return
}

func checkRange(tag string, length, n, offset int) error {
	if offset < 0 || offset+n > length {
		return fmt.Errorf("range [%d,%d) outside buffer %s of length %d",
			offset, offset+n, tag, length)
	}
	return nil
}
