package geometry

import (
	"fmt"

	"github.com/notargets/elemgeom/device"
)

type FieldName string

const (
	FCor        FieldName = "FCOR"
	SphereMP    FieldName = "SPHEREMP"
	RSphereMP   FieldName = "RSPHEREMP"
	MetInv      FieldName = "METINV"
	MetDet      FieldName = "METDET"
	TensorVisc  FieldName = "TENSORVISC"
	VecSph2Cart FieldName = "VEC_SPH2CART"
	PhiS        FieldName = "PHIS"
	D           FieldName = "D"
	DInv        FieldName = "DINV"
)

// ViscosityMode decides whether the viscosity tensor fields exist
type ViscosityMode uint8

const (
	ConstantViscosity ViscosityMode = iota
	VaryingViscosity
)

func (vm ViscosityMode) String() string {
	switch vm {
	case ConstantViscosity:
		return "Constant"
	case VaryingViscosity:
		return "Varying"
	}
	return fmt.Sprintf("ViscosityMode(%d)", uint8(vm))
}

// NewViscosityMode maps the usual "constant hyperviscosity" flag to a mode
func NewViscosityMode(constHV bool) ViscosityMode {
	if constHV {
		return ConstantViscosity
	}
	return VaryingViscosity
}

// VaryingFields exist only in VaryingViscosity mode
type VaryingFields struct {
	TensorVisc  *Field // [K][2][2][NP][NP]
	VecSph2Cart *Field // [K][2][3][NP][NP]
}

// Store holds the geometric metadata of every element of a mesh
type Store struct {
	NumElements    int
	Mode           ViscosityMode
	ParallelDegree int // Workers used by GenerateRandom, zero means one per CPU

	// 2D scalars, [K][NP][NP]
	fcor, spheremp, rspheremp, metdet, phis *Field
	// 2D tensors, [K][2][2][NP][NP]
	metinv, d, dinv *Field
	varying         *VaryingFields

	substrate device.Substrate
}

// NewStore creates an empty store that places compute copies in sub. A nil
// substrate selects a HostMirror.
func NewStore(sub device.Substrate) *Store {
	if sub == nil {
		sub = device.NewHostMirror()
	}
	return &Store{substrate: sub}
}

func (s *Store) Substrate() device.Substrate { return s.substrate }

// Init allocates every field for numElements elements, host and compute side.
// Any previous allocation is released first; nothing from it is reused.
func (s *Store) Init(numElements int, mode ViscosityMode) (err error) {
	if numElements < 0 {
		panic(fmt.Errorf("number of elements must be >= 0, have %d", numElements))
	}
	if mode != ConstantViscosity && mode != VaryingViscosity {
		panic(fmt.Errorf("unknown viscosity mode %d", mode))
	}
	s.Free()

	s.NumElements = numElements
	s.Mode = mode
	K := numElements

	s.fcor = newField(FCor, ScalarLayout, K)
	s.spheremp = newField(SphereMP, ScalarLayout, K)
	s.rspheremp = newField(RSphereMP, ScalarLayout, K)
	s.metinv = newField(MetInv, Tensor22Layout, K)
	s.metdet = newField(MetDet, ScalarLayout, K)
	if mode == VaryingViscosity {
		s.varying = &VaryingFields{
			TensorVisc:  newField(TensorVisc, Tensor22Layout, K),
			VecSph2Cart: newField(VecSph2Cart, Tensor23Layout, K),
		}
	}
	s.phis = newField(PhiS, ScalarLayout, K)
	// Matrix D and its inverse
	s.d = newField(D, Tensor22Layout, K)
	s.dinv = newField(DInv, Tensor22Layout, K)

	for _, f := range s.Fields() {
		if f.handle, err = s.substrate.Allocate(string(f.Name), f.Shape()...); err != nil {
			s.Free()
			return fmt.Errorf("allocating %s for %d elements: %w", f.Name, K, err)
		}
	}
	return
}

// Fields lists every allocated field in a fixed order, optional fields included
// only in VaryingViscosity mode
func (s *Store) Fields() (fields []*Field) {
	if s.d == nil {
		return
	}
	fields = []*Field{s.fcor, s.spheremp, s.rspheremp, s.metinv, s.metdet}
	if s.varying != nil {
		fields = append(fields, s.varying.TensorVisc, s.varying.VecSph2Cart)
	}
	fields = append(fields, s.phis, s.d, s.dinv)
	return
}

// Field looks a field up by name, reporting false for absent optional fields
func (s *Store) Field(name FieldName) (*Field, bool) {
	for _, f := range s.Fields() {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

func (s *Store) checkInit() {
	if s.d == nil {
		panic(fmt.Errorf("geometry store used before Init"))
	}
}

func (s *Store) FCor() *Field      { s.checkInit(); return s.fcor }
func (s *Store) SphereMP() *Field  { s.checkInit(); return s.spheremp }
func (s *Store) RSphereMP() *Field { s.checkInit(); return s.rspheremp }
func (s *Store) MetInv() *Field    { s.checkInit(); return s.metinv }
func (s *Store) MetDet() *Field    { s.checkInit(); return s.metdet }
func (s *Store) PhiS() *Field      { s.checkInit(); return s.phis }
func (s *Store) D() *Field         { s.checkInit(); return s.d }
func (s *Store) DInv() *Field      { s.checkInit(); return s.dinv }

// Varying returns the viscosity fields, or false in ConstantViscosity mode
func (s *Store) Varying() (*VaryingFields, bool) {
	s.checkInit()
	return s.varying, s.varying != nil
}

// TensorVisc panics in ConstantViscosity mode
func (s *Store) TensorVisc() *Field {
	return s.mustVarying(TensorVisc).TensorVisc
}

// VecSph2Cart panics in ConstantViscosity mode
func (s *Store) VecSph2Cart() *Field {
	return s.mustVarying(VecSph2Cart).VecSph2Cart
}

func (s *Store) mustVarying(name FieldName) *VaryingFields {
	s.checkInit()
	if s.varying == nil {
		panic(fmt.Errorf("%s is not allocated in %s viscosity mode", name, s.Mode))
	}
	return s.varying
}

// ComputeCopy reads the compute-side copy of a field back to a new host slice
func (s *Store) ComputeCopy(name FieldName) (data []float64, err error) {
	f, ok := s.Field(name)
	if !ok {
		panic(fmt.Errorf("%s is not allocated in %s viscosity mode", name, s.Mode))
	}
	data = make([]float64, f.Len())
	if err = s.substrate.SyncToHost(f.handle, data, 0); err != nil {
		return nil, fmt.Errorf("reading %s from compute: %w", name, err)
	}
	return
}

// SyncToCompute pushes every field of the store to the compute side
func (s *Store) SyncToCompute() (err error) {
	for _, f := range s.Fields() {
		if err = f.syncAll(s.substrate); err != nil {
			return
		}
	}
	return
}

// Free releases the compute copies and drops the host arrays
func (s *Store) Free() {
	for _, f := range s.Fields() {
		if f.handle != nil {
			s.substrate.Release(f.handle)
			f.handle = nil
		}
	}
	s.fcor, s.spheremp, s.rspheremp, s.metdet, s.phis = nil, nil, nil, nil, nil
	s.metinv, s.d, s.dinv = nil, nil, nil
	s.varying = nil
	s.NumElements = 0
}
