package geometry

import (
	"fmt"
)

// ExternalElement carries one element's geometry as produced by the mesh
// generator. Every array is flat in [idim][jdim][igp][jgp] order; scalars are
// [igp][jgp]. TensorVisc and VecSph2Cart are ignored, and may be nil, when the
// store is in ConstantViscosity mode.
type ExternalElement struct {
	D, DInv     []float64 // 2x2 tensors
	FCor        []float64
	SphereMP    []float64
	RSphereMP   []float64
	MetDet      []float64
	MetInv      []float64 // 2x2 tensor
	PhiS        []float64
	TensorVisc  []float64 // 2x2 tensor
	VecSph2Cart []float64 // 2x3 tensor
}

// externalArray returns the external array matching an internal field
func (ext *ExternalElement) externalArray(name FieldName) []float64 {
	switch name {
	case FCor:
		return ext.FCor
	case SphereMP:
		return ext.SphereMP
	case RSphereMP:
		return ext.RSphereMP
	case MetInv:
		return ext.MetInv
	case MetDet:
		return ext.MetDet
	case TensorVisc:
		return ext.TensorVisc
	case VecSph2Cart:
		return ext.VecSph2Cart
	case PhiS:
		return ext.PhiS
	case D:
		return ext.D
	case DInv:
		return ext.DInv
	}
	panic(fmt.Errorf("unknown field %s", name))
}

// LoadElement copies one element's external arrays into the store at ie and makes
// the element visible to compute before returning. Values are copied verbatim:
// in particular DInv is taken as supplied, not derived from D.
func (s *Store) LoadElement(ie int, ext *ExternalElement) (err error) {
	s.checkInit()
	if ie < 0 || ie >= s.NumElements {
		panic(fmt.Errorf("element %d out of range [0,%d)", ie, s.NumElements))
	}
	if ext == nil {
		panic(fmt.Errorf("nil external element %d", ie))
	}
	fields := s.Fields()
	for _, f := range fields {
		src := ext.externalArray(f.Name)
		if len(src) != f.Layout.Size() {
			panic(fmt.Errorf("external %s for element %d has %d values, need %d",
				f.Name, ie, len(src), f.Layout.Size()))
		}
	}
	for _, f := range fields {
		copyExternal(f, ie, ext.externalArray(f.Name))
	}
	for _, f := range fields {
		if err = f.syncElement(s.substrate, ie); err != nil {
			return
		}
	}
	return
}

// copyExternal walks the element block index by index through the layout map
func copyExternal(f *Field, ie int, src []float64) {
	var (
		l = f.Layout
	)
	for idim := 0; idim < l.Rows; idim++ {
		for jdim := 0; jdim < l.Cols; jdim++ {
			for igp := 0; igp < NP; igp++ {
				for jgp := 0; jgp < NP; jgp++ {
					f.Set(ie, idim, jdim, igp, jgp, src[l.Offset(idim, jdim, igp, jgp)])
				}
			}
		}
	}
}

// ExportElement is the inverse of LoadElement, producing external arrays for ie
// from the host copy. Optional arrays are nil in ConstantViscosity mode.
func (s *Store) ExportElement(ie int) (ext *ExternalElement) {
	s.checkInit()
	ext = &ExternalElement{}
	for _, f := range s.Fields() {
		block := make([]float64, f.Layout.Size())
		copy(block, f.Element(ie))
		switch f.Name {
		case FCor:
			ext.FCor = block
		case SphereMP:
			ext.SphereMP = block
		case RSphereMP:
			ext.RSphereMP = block
		case MetInv:
			ext.MetInv = block
		case MetDet:
			ext.MetDet = block
		case TensorVisc:
			ext.TensorVisc = block
		case VecSph2Cart:
			ext.VecSph2Cart = block
		case PhiS:
			ext.PhiS = block
		case D:
			ext.D = block
		case DInv:
			ext.DInv = block
		}
	}
	return
}
