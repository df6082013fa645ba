package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/elemgeom/device"
)

func TestStore_Init(t *testing.T) {
	for _, mode := range []ViscosityMode{ConstantViscosity, VaryingViscosity} {
		t.Run(mode.String(), func(t *testing.T) {
			K := 3
			s := NewStore(nil)
			require.NoError(t, s.Init(K, mode))
			assert.Equal(t, K, s.NumElements)
			assert.Equal(t, mode, s.Mode)

			for _, f := range []*Field{s.FCor(), s.SphereMP(), s.RSphereMP(), s.MetDet(), s.PhiS()} {
				assert.Equal(t, []int{K, NP, NP}, f.Shape(), f.Name)
				assert.Equal(t, K*NP*NP, f.Len())
			}
			for _, f := range []*Field{s.MetInv(), s.D(), s.DInv()} {
				assert.Equal(t, []int{K, 2, 2, NP, NP}, f.Shape(), f.Name)
			}

			vf, ok := s.Varying()
			if mode == ConstantViscosity {
				assert.False(t, ok)
				assert.Nil(t, vf)
				assert.Len(t, s.Fields(), 8)
				assert.Panics(t, func() { s.TensorVisc() })
				assert.Panics(t, func() { s.VecSph2Cart() })
				_, found := s.Field(TensorVisc)
				assert.False(t, found)
				assert.Panics(t, func() { _, _ = s.ComputeCopy(VecSph2Cart) })
			} else {
				assert.True(t, ok)
				assert.Len(t, s.Fields(), 10)
				assert.Equal(t, []int{K, 2, 2, NP, NP}, s.TensorVisc().Shape())
				assert.Equal(t, []int{K, 2, 3, NP, NP}, s.VecSph2Cart().Shape())
				assert.Same(t, vf.TensorVisc, s.TensorVisc())
			}
		})
	}
}

func TestStore_ReInitDoesNotAlias(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.Init(2, VaryingViscosity))
	old := s.D()
	oldHandle := old.handle
	oldVisc := s.TensorVisc()
	old.Set(1, 1, 1, 3, 3, 42)

	require.NoError(t, s.Init(5, ConstantViscosity))
	assert.NotSame(t, old, s.D())
	assert.Equal(t, 0., s.D().At(1, 1, 1, 3, 3))
	assert.Equal(t, 5, s.D().K)
	assert.Panics(t, func() { s.TensorVisc() })

	// Writes through stale fields do not reach the new allocation
	old.Set(0, 0, 0, 0, 0, 7)
	oldVisc.Set(0, 0, 0, 0, 0, 7)
	assert.Equal(t, 0., s.D().At(0, 0, 0, 0, 0))

	// Old compute buffers were released
	assert.Error(t, s.Substrate().SyncToCompute(oldHandle, old.Element(0), 0))
}

func TestStore_Contracts(t *testing.T) {
	s := NewStore(nil)
	assert.Panics(t, func() { s.D() })
	assert.Panics(t, func() { _ = s.Init(-1, ConstantViscosity) })
	assert.Panics(t, func() { _ = s.Init(1, ViscosityMode(9)) })

	require.NoError(t, s.Init(0, VaryingViscosity))
	assert.Equal(t, []int{0, NP, NP}, s.PhiS().Shape())
	assert.Equal(t, 0, s.PhiS().Len())
	assert.NoError(t, s.SyncToCompute())

	require.NoError(t, s.Init(2, ConstantViscosity))
	assert.Panics(t, func() { s.FCor().Element(2) })
	assert.Panics(t, func() { s.FCor().Scalar(-1, 0, 0) })
	assert.Panics(t, func() { s.MetInv().At(0, 2, 0, 0, 0) })
}

func TestStore_FieldAccess(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.Init(2, VaryingViscosity))
	s.PhiS().SetScalar(1, 2, 3, 9.5)
	assert.Equal(t, 9.5, s.PhiS().Scalar(1, 2, 3))
	assert.Equal(t, 9.5, s.PhiS().Element(1)[ScalarOffset(2, 3)])
	assert.Equal(t, 9.5, s.PhiS().Data()[NP*NP+ScalarOffset(2, 3)])

	v := s.VecSph2Cart()
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			v.Set(0, i, j, 1, 1, float64(10*i+j))
		}
	}
	assert.Equal(t, []float64{0, 1, 2, 10, 11, 12}, v.Matrix(0, 1, 1))

	f, ok := s.Field(DInv)
	assert.True(t, ok)
	assert.Same(t, s.DInv(), f)
}

func TestStore_Free(t *testing.T) {
	hm := device.NewHostMirror()
	s := NewStore(hm)
	require.NoError(t, s.Init(1, VaryingViscosity))
	h := s.D().handle
	s.Free()
	assert.Equal(t, 0, s.NumElements)
	assert.Nil(t, s.Fields())
	assert.Error(t, hm.SyncToCompute(h, make([]float64, 1), 0))
	assert.Panics(t, func() { s.D() })
}

func TestViscosityMode(t *testing.T) {
	assert.Equal(t, ConstantViscosity, NewViscosityMode(true))
	assert.Equal(t, VaryingViscosity, NewViscosityMode(false))
	assert.Equal(t, "ViscosityMode(7)", ViscosityMode(7).String())
}
