package device

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostMirror_SyncRoundTrip(t *testing.T) {
	hm := NewHostMirror()
	h, err := hm.Allocate("FCOR", 3, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, "FCOR", h.Tag())
	assert.Equal(t, 48, h.Len())

	host := make([]float64, 16)
	for i := range host {
		host[i] = float64(i) + 0.25
	}
	// Second element only
	require.NoError(t, hm.SyncToCompute(h, host, 16))
	assert.Equal(t, 1, hm.SyncCount("FCOR"))

	back := make([]float64, 48)
	require.NoError(t, hm.SyncToHost(h, back, 0))
	for i := 0; i < 16; i++ {
		assert.Equal(t, 0., back[i])
		assert.Equal(t, host[i], back[16+i])
		assert.Equal(t, 0., back[32+i])
	}
}

func TestHostMirror_NoAliasing(t *testing.T) {
	hm := NewHostMirror()
	h, err := hm.Allocate("PHIS", 4)
	require.NoError(t, err)
	host := []float64{1, 2, 3, 4}
	require.NoError(t, hm.SyncToCompute(h, host, 0))
	// Host writes after the sync are invisible to compute until the next sync
	host[0] = 100
	back := make([]float64, 4)
	require.NoError(t, hm.SyncToHost(h, back, 0))
	assert.Equal(t, []float64{1, 2, 3, 4}, back)
}

func TestHostMirror_Errors(t *testing.T) {
	hm := NewHostMirror()
	h, err := hm.Allocate("D", 2, 2)
	require.NoError(t, err)

	assert.Error(t, hm.SyncToCompute(h, make([]float64, 5), 0))
	assert.Error(t, hm.SyncToCompute(h, make([]float64, 2), 3))
	assert.Error(t, hm.SyncToCompute(h, make([]float64, 1), -1))
	assert.Error(t, hm.SyncToHost(h, make([]float64, 5), 0))

	hm.Release(h)
	assert.Error(t, hm.SyncToCompute(h, make([]float64, 1), 0))

	other := &occaBuffer{tag: "foreign", n: 4}
	assert.Error(t, hm.SyncToCompute(other, make([]float64, 1), 0))
}

func TestHostMirror_ConcurrentElementSyncs(t *testing.T) {
	var (
		K  = 64
		Np = 16
		hm = NewHostMirror()
		wg = sync.WaitGroup{}
	)
	h, err := hm.Allocate("METDET", K, Np)
	require.NoError(t, err)
	for k := 0; k < K; k++ {
		wg.Add(1)
		go func(k int) {
			defer wg.Done()
			block := make([]float64, Np)
			for i := range block {
				block[i] = float64(k)
			}
			assert.NoError(t, hm.SyncToCompute(h, block, k*Np))
		}(k)
	}
	wg.Wait()
	assert.Equal(t, K, hm.SyncCount("METDET"))
	back := make([]float64, K*Np)
	require.NoError(t, hm.SyncToHost(h, back, 0))
	for k := 0; k < K; k++ {
		for i := 0; i < Np; i++ {
			assert.Equal(t, float64(k), back[k*Np+i])
		}
	}
	hm.ResetSyncCounts()
	assert.Equal(t, 0, hm.SyncCount("METDET"))
}

func TestHostMirror_ReleaseDuringSync(t *testing.T) {
	var (
		hm    = NewHostMirror()
		Np    = 4
		K     = 8
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	h, err := hm.Allocate("METDET", K, Np, Np)
	require.NoError(t, err)
	for ie := 0; ie < K; ie++ {
		wg.Add(1)
		go func(ie int) {
			defer wg.Done()
			<-start
			block := make([]float64, Np*Np)
			for i := 0; i < 100; i++ {
				// Either lands before the release or reports it, never a bad slice
				if err := hm.SyncToCompute(h, block, ie*Np*Np); err != nil {
					assert.Contains(t, err.Error(), "released")
				}
				if err := hm.SyncToHost(h, block, ie*Np*Np); err != nil {
					assert.Contains(t, err.Error(), "released")
				}
			}
		}(ie)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		hm.Release(h)
	}()
	close(start)
	wg.Wait()

	assert.Equal(t, 0, h.Len())
	err = hm.SyncToCompute(h, make([]float64, Np*Np), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "released")
}

func TestShapeSize(t *testing.T) {
	assert.Equal(t, 1, ShapeSize())
	assert.Equal(t, 0, ShapeSize(0, 4, 4))
	assert.Equal(t, 4*2*3*4*4, ShapeSize(4, 2, 3, 4, 4))
	assert.Panics(t, func() { ShapeSize(-1, 4) })
}

func TestNewSubstrate_Host(t *testing.T) {
	for _, props := range []string{"", "host", " HOST "} {
		sub, err := NewSubstrate(props)
		require.NoError(t, err)
		assert.Equal(t, "Host", sub.Mode())
	}
}
