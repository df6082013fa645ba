package geometry

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/elemgeom/utils"
)

// CheckInverse verifies D * DInv = I at every grid point, each entry of the product
// within tol relative to the magnitude of the terms summed to form it
func (s *Store) CheckInverse(tol float64) error {
	s.checkInit()
	var (
		prod, scale mat.Dense
	)
	for ie := 0; ie < s.NumElements; ie++ {
		for igp := 0; igp < NP; igp++ {
			for jgp := 0; jgp < NP; jgp++ {
				Dm := mat.NewDense(2, 2, s.d.Matrix(ie, igp, jgp))
				DInvm := mat.NewDense(2, 2, s.dinv.Matrix(ie, igp, jgp))
				prod.Mul(Dm, DInvm)
				absD, absDInv := mat.DenseCopyOf(Dm), mat.DenseCopyOf(DInvm)
				absD.Apply(func(_, _ int, v float64) float64 { return math.Abs(v) }, absD)
				absDInv.Apply(func(_, _ int, v float64) float64 { return math.Abs(v) }, absDInv)
				scale.Mul(absD, absDInv)
				for i := 0; i < 2; i++ {
					for j := 0; j < 2; j++ {
						var ident float64
						if i == j {
							ident = 1
						}
						if diff := math.Abs(prod.At(i, j) - ident); diff > tol*math.Max(1, scale.At(i, j)) {
							return fmt.Errorf("D*DInv[%d][%d] = %g at element %d, point (%d,%d)",
								i, j, prod.At(i, j), ie, igp, jgp)
						}
					}
				}
			}
		}
	}
	return nil
}

// CheckOrientation verifies det(D) > 0 at every grid point
func (s *Store) CheckOrientation() error {
	s.checkInit()
	for ie := 0; ie < s.NumElements; ie++ {
		for igp := 0; igp < NP; igp++ {
			for jgp := 0; jgp < NP; jgp++ {
				if det := s.basisDeterminant(ie, igp, jgp); !(det > 0) {
					return fmt.Errorf("det(D) = %g at element %d, point (%d,%d)",
						det, ie, igp, jgp)
				}
			}
		}
	}
	return nil
}

// CheckRange verifies every field other than D and DInv lies within [lo, hi]
func (s *Store) CheckRange(lo, hi float64) error {
	s.checkInit()
	for _, f := range s.Fields() {
		if f.Name == D || f.Name == DInv || f.Len() == 0 {
			continue
		}
		if utils.IsNan(f.Data()) {
			return fmt.Errorf("%s contains NaN", f.Name)
		}
		if fmin, fmax := floats.Min(f.Data()), floats.Max(f.Data()); fmin < lo || fmax > hi {
			return fmt.Errorf("%s spans [%g,%g], outside [%g,%g]", f.Name, fmin, fmax, lo, hi)
		}
	}
	return nil
}

func (s *Store) basisDeterminant(ie, igp, jgp int) float64 {
	return det2([2][2]float64{
		{s.d.At(ie, 0, 0, igp, jgp), s.d.At(ie, 0, 1, igp, jgp)},
		{s.d.At(ie, 1, 0, igp, jgp), s.d.At(ie, 1, 1, igp, jgp)},
	})
}

type FieldRange struct {
	Min, Max float64
}

// GeometryStats summarizes a store for reporting
type GeometryStats struct {
	NumElements    int
	Mode           ViscosityMode
	DetMin, DetMax float64
	Ranges         map[FieldName]FieldRange
}

func (s *Store) Summary() (gs GeometryStats) {
	s.checkInit()
	gs = GeometryStats{
		NumElements: s.NumElements,
		Mode:        s.Mode,
		DetMin:      math.Inf(1),
		DetMax:      math.Inf(-1),
		Ranges:      make(map[FieldName]FieldRange),
	}
	for _, f := range s.Fields() {
		if f.Len() == 0 {
			continue
		}
		gs.Ranges[f.Name] = FieldRange{floats.Min(f.Data()), floats.Max(f.Data())}
	}
	for ie := 0; ie < s.NumElements; ie++ {
		for igp := 0; igp < NP; igp++ {
			for jgp := 0; jgp < NP; jgp++ {
				det := s.basisDeterminant(ie, igp, jgp)
				gs.DetMin = math.Min(gs.DetMin, det)
				gs.DetMax = math.Max(gs.DetMax, det)
			}
		}
	}
	return
}

func (gs GeometryStats) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%d]\t\t\t\t= Number of Elements\n", gs.NumElements))
	sb.WriteString(fmt.Sprintf("[%s]\t\t\t= Viscosity Mode\n", gs.Mode))
	if gs.NumElements > 0 {
		sb.WriteString(fmt.Sprintf("[%12.5e,%12.5e]\t= det(D) range\n", gs.DetMin, gs.DetMax))
	}
	names := make([]string, 0, len(gs.Ranges))
	for name := range gs.Ranges {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		r := gs.Ranges[FieldName(name)]
		sb.WriteString(fmt.Sprintf("[%12.5e,%12.5e]\t= %s range\n", r.Min, r.Max, name))
	}
	return sb.String()
}
