package device

import (
	"fmt"
	"sync"
)

type hostBuffer struct {
	tag      string
	mu       sync.Mutex
	data     []float64
	released bool
}

func (hb *hostBuffer) Tag() string { return hb.tag }
func (hb *hostBuffer) Len() int {
	hb.mu.Lock()
	defer hb.mu.Unlock()
	return len(hb.data)
}

// HostMirror keeps the compute copy of every buffer in ordinary Go memory, separate
// from the host arrays it is synchronized from
type HostMirror struct {
	mu        sync.Mutex
	syncCount map[string]int
}

func NewHostMirror() *HostMirror {
	return &HostMirror{
		syncCount: make(map[string]int),
	}
}

func (hm *HostMirror) Mode() string { return "Host" }

func (hm *HostMirror) Allocate(tag string, shape ...int) (Handle, error) {
	return &hostBuffer{
		tag:  tag,
		data: make([]float64, ShapeSize(shape...)),
	}, nil
}

func (hm *HostMirror) buffer(h Handle) (hb *hostBuffer, err error) {
	var ok bool
	if h == nil {
		return nil, fmt.Errorf("nil handle")
	}
	if hb, ok = h.(*hostBuffer); !ok {
		return nil, fmt.Errorf("handle %s was not allocated by a host mirror", h.Tag())
	}
	return
}

// usable is called with hb.mu held
func (hb *hostBuffer) usable(n, offset int) error {
	if hb.released {
		return fmt.Errorf("buffer %s has been released", hb.tag)
	}
	return checkRange(hb.tag, len(hb.data), n, offset)
}

func (hm *HostMirror) SyncToCompute(h Handle, src []float64, offset int) (err error) {
	var hb *hostBuffer
	if hb, err = hm.buffer(h); err != nil {
		return
	}
	hb.mu.Lock()
	if err = hb.usable(len(src), offset); err != nil {
		hb.mu.Unlock()
		return
	}
	copy(hb.data[offset:offset+len(src)], src)
	hb.mu.Unlock()

	hm.mu.Lock()
	hm.syncCount[hb.tag]++
	hm.mu.Unlock()
	return
}

func (hm *HostMirror) SyncToHost(h Handle, dst []float64, offset int) (err error) {
	var hb *hostBuffer
	if hb, err = hm.buffer(h); err != nil {
		return
	}
	hb.mu.Lock()
	defer hb.mu.Unlock()
	if err = hb.usable(len(dst), offset); err != nil {
		return
	}
	copy(dst, hb.data[offset:offset+len(dst)])
	return
}

func (hm *HostMirror) Release(h Handle) {
	if hb, ok := h.(*hostBuffer); ok {
		hb.mu.Lock()
		hb.released = true
		hb.data = nil
		hb.mu.Unlock()
	}
}

// SyncCount reports how many SyncToCompute calls have targeted buffers with this tag
func (hm *HostMirror) SyncCount(tag string) int {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	return hm.syncCount[tag]
}

// ResetSyncCounts zeroes all sync counters
func (hm *HostMirror) ResetSyncCounts() {
	hm.mu.Lock()
	hm.syncCount = make(map[string]int)
	hm.mu.Unlock()
}
