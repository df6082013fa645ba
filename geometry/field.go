package geometry

import (
	"fmt"

	"github.com/notargets/elemgeom/device"
)

// Field is the host copy of one geometric quantity for every element, stored
// [K][Rows][Cols][NP][NP] with each element's block contiguous
type Field struct {
	Name   FieldName
	Layout Layout
	K      int
	data   []float64
	handle device.Handle
}

func newField(name FieldName, layout Layout, K int) *Field {
	return &Field{
		Name:   name,
		Layout: layout,
		K:      K,
		data:   make([]float64, K*layout.Size()),
	}
}

// Shape is [K][NP][NP] for scalars and [K][Rows][Cols][NP][NP] for tensors
func (f *Field) Shape() []int {
	if f.Layout.IsScalar() {
		return []int{f.K, NP, NP}
	}
	return []int{f.K, f.Layout.Rows, f.Layout.Cols, NP, NP}
}

// Data exposes the whole host array; writes through it are not synchronized
func (f *Field) Data() []float64 { return f.data }

func (f *Field) Len() int { return len(f.data) }

func (f *Field) checkElement(ie int) {
	if ie < 0 || ie >= f.K {
		panic(fmt.Errorf("element %d out of range [0,%d) for field %s", ie, f.K, f.Name))
	}
}

// Element returns the contiguous block for element ie
func (f *Field) Element(ie int) []float64 {
	f.checkElement(ie)
	size := f.Layout.Size()
	return f.data[ie*size : (ie+1)*size]
}

func (f *Field) index(ie, idim, jdim, igp, jgp int) int {
	f.checkElement(ie)
	return ie*f.Layout.Size() + f.Layout.Offset(idim, jdim, igp, jgp)
}

func (f *Field) At(ie, idim, jdim, igp, jgp int) float64 {
	return f.data[f.index(ie, idim, jdim, igp, jgp)]
}

func (f *Field) Set(ie, idim, jdim, igp, jgp int, val float64) {
	f.data[f.index(ie, idim, jdim, igp, jgp)] = val
}

func (f *Field) Scalar(ie, igp, jgp int) float64 {
	return f.At(ie, 0, 0, igp, jgp)
}

func (f *Field) SetScalar(ie, igp, jgp int, val float64) {
	f.Set(ie, 0, 0, igp, jgp, val)
}

// Matrix gathers the Rows x Cols tensor at one grid point, row-major
func (f *Field) Matrix(ie, igp, jgp int) (m []float64) {
	m = make([]float64, f.Layout.Rows*f.Layout.Cols)
	for i := 0; i < f.Layout.Rows; i++ {
		for j := 0; j < f.Layout.Cols; j++ {
			m[j+i*f.Layout.Cols] = f.At(ie, i, j, igp, jgp)
		}
	}
	return
}

func (f *Field) syncElement(sub device.Substrate, ie int) error {
	size := f.Layout.Size()
	if err := sub.SyncToCompute(f.handle, f.Element(ie), ie*size); err != nil {
		return fmt.Errorf("sync of %s element %d: %w", f.Name, ie, err)
	}
	return nil
}

func (f *Field) syncAll(sub device.Substrate) error {
	if err := sub.SyncToCompute(f.handle, f.data, 0); err != nil {
		return fmt.Errorf("sync of %s: %w", f.Name, err)
	}
	return nil
}
