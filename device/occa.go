package device

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/notargets/gocca"
)

const floatSize = 8 // float64

type occaBuffer struct {
	tag string
	n   int
	mem *gocca.OCCAMemory // nil for zero length or released buffers
}

func (ob *occaBuffer) Tag() string { return ob.tag }
func (ob *occaBuffer) Len() int    { return ob.n }

// OCCASubstrate places buffers in OCCA device memory. All transfers are followed by
// a device Finish so they are complete when the call returns.
type OCCASubstrate struct {
	device     *gocca.OCCADevice
	ownsDevice bool
	mu         sync.Mutex // OCCA devices are not safe for concurrent transfers
	memory     map[*occaBuffer]struct{}
}

// NewOCCASubstrate creates a device from OCCA JSON properties. The device is freed
// along with the substrate.
func NewOCCASubstrate(props string) (oc *OCCASubstrate, err error) {
	var device *gocca.OCCADevice
	if device, err = gocca.NewDevice(props); err != nil {
		return
	}
	oc = NewOCCASubstrateFromDevice(device)
	oc.ownsDevice = true
	return
}

// NewOCCASubstrateFromDevice wraps an existing device, the caller keeps ownership
// of it and must Free it after the substrate is done
func NewOCCASubstrateFromDevice(device *gocca.OCCADevice) *OCCASubstrate {
	return &OCCASubstrate{
		device: device,
		memory: make(map[*occaBuffer]struct{}),
	}
}

func (oc *OCCASubstrate) Mode() string { return oc.device.Mode() }

func (oc *OCCASubstrate) Device() *gocca.OCCADevice { return oc.device }

func (oc *OCCASubstrate) Allocate(tag string, shape ...int) (Handle, error) {
	n := ShapeSize(shape...)
	ob := &occaBuffer{tag: tag, n: n}
	if n > 0 {
		oc.mu.Lock()
		ob.mem = oc.device.Malloc(int64(n*floatSize), nil, nil)
		oc.mu.Unlock()
		if ob.mem == nil {
			return nil, fmt.Errorf("device allocation of %d bytes for %s failed",
				n*floatSize, tag)
		}
	}
	oc.mu.Lock()
	oc.memory[ob] = struct{}{}
	oc.mu.Unlock()
	return ob, nil
}

func (oc *OCCASubstrate) buffer(h Handle, n, offset int) (ob *occaBuffer, err error) {
	var ok bool
	if h == nil {
		return nil, fmt.Errorf("nil handle")
	}
	if ob, ok = h.(*occaBuffer); !ok {
		return nil, fmt.Errorf("handle %s was not allocated by an OCCA substrate", h.Tag())
	}
	err = checkRange(ob.tag, ob.n, n, offset)
	return
}

// released is called with oc.mu held
func (ob *occaBuffer) released() error {
	if ob.mem == nil {
		return fmt.Errorf("buffer %s has been released", ob.tag)
	}
	return nil
}

func (oc *OCCASubstrate) SyncToCompute(h Handle, src []float64, offset int) (err error) {
	var ob *occaBuffer
	if ob, err = oc.buffer(h, len(src), offset); err != nil || len(src) == 0 {
		return
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if err = ob.released(); err != nil {
		return
	}
	ob.mem.CopyFromWithOffset(unsafe.Pointer(&src[0]),
		int64(len(src)*floatSize), int64(offset*floatSize))
	oc.device.Finish()
	return
}

func (oc *OCCASubstrate) SyncToHost(h Handle, dst []float64, offset int) (err error) {
	var ob *occaBuffer
	if ob, err = oc.buffer(h, len(dst), offset); err != nil || len(dst) == 0 {
		return
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if err = ob.released(); err != nil {
		return
	}
	oc.device.Finish()
	ob.mem.CopyToWithOffset(unsafe.Pointer(&dst[0]),
		int64(len(dst)*floatSize), int64(offset*floatSize))
	return
}

func (oc *OCCASubstrate) Release(h Handle) {
	ob, ok := h.(*occaBuffer)
	if !ok {
		return
	}
	oc.mu.Lock()
	defer oc.mu.Unlock()
	if ob.mem != nil {
		ob.mem.Free()
		ob.mem = nil
	}
	delete(oc.memory, ob)
}

// Free releases every buffer still held by the substrate, and the device when the
// substrate created it
func (oc *OCCASubstrate) Free() {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	for ob := range oc.memory {
		if ob.mem != nil {
			ob.mem.Free()
			ob.mem = nil
		}
		delete(oc.memory, ob)
	}
	if oc.ownsDevice && oc.device != nil {
		oc.device.Free()
		oc.device = nil
	}
}
