package geometry

import "fmt"

// NP is the number of grid points per direction on the reference square of an
// element; each element carries an NP x NP grid
const NP = 4

// Layout describes one element's block of a field, shaped [Rows][Cols][NP][NP] in
// row-major order. Scalars use Rows = Cols = 1. The same ordering is used for the
// external mesh-generator arrays, so Offset is also the external index map.
type Layout struct {
	Rows, Cols int
}

var (
	ScalarLayout   = Layout{1, 1}
	Tensor22Layout = Layout{2, 2}
	Tensor23Layout = Layout{2, 3}
)

// Size is the number of values in one element's block
func (l Layout) Size() int {
	return l.Rows * l.Cols * NP * NP
}

func (l Layout) IsScalar() bool {
	return l.Rows == 1 && l.Cols == 1
}

// Offset maps (idim, jdim, igp, jgp) to the linear position in an element block
func (l Layout) Offset(idim, jdim, igp, jgp int) int {
	if idim < 0 || idim >= l.Rows || jdim < 0 || jdim >= l.Cols ||
		igp < 0 || igp >= NP || jgp < 0 || jgp >= NP {
		panic(fmt.Errorf("index (%d,%d,%d,%d) out of bounds for layout [%d][%d][%d][%d]",
			idim, jdim, igp, jgp, l.Rows, l.Cols, NP, NP))
	}
	return jgp + NP*(igp+NP*(jdim+l.Cols*idim))
}

// Index is the inverse of Offset
func (l Layout) Index(offset int) (idim, jdim, igp, jgp int) {
	if offset < 0 || offset >= l.Size() {
		panic(fmt.Errorf("offset %d out of bounds for layout of size %d",
			offset, l.Size()))
	}
	jgp = offset % NP
	offset /= NP
	igp = offset % NP
	offset /= NP
	jdim = offset % l.Cols
	idim = offset / l.Cols
	return
}

// ScalarOffset maps a grid point to the linear position in a scalar element block
func ScalarOffset(igp, jgp int) int {
	return ScalarLayout.Offset(0, 0, igp, jgp)
}
