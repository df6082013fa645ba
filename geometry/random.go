package geometry

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/notargets/elemgeom/utils"
)

const (
	// MinValue bounds generated values to [MinValue, 1/MinValue]
	MinValue = 0.015625
	// MaxDrawAttempts caps the redraws of one basis matrix. A draw is accepted with
	// probability 1/2 in the range above, so reaching the cap means the sampling
	// itself is broken.
	MaxDrawAttempts = 1 << 20
)

// RandomSource seeds synthetic geometry. Each element draws from its own stream
// derived from the seed and the element number, so results do not depend on how
// elements are spread over workers.
type RandomSource struct {
	seed          uint64
	deterministic bool
}

// NewDeterministicSource gives reproducible geometry for a fixed seed
func NewDeterministicSource(seed uint64) RandomSource {
	return RandomSource{seed: seed, deterministic: true}
}

// NewNondeterministicSource draws its seed from the runtime's entropy-seeded
// generator. Seed reports it so a run can be repeated deterministically.
func NewNondeterministicSource() RandomSource {
	return RandomSource{seed: rand.Uint64()}
}

func (rs RandomSource) Seed() uint64 { return rs.seed }

func (rs RandomSource) Deterministic() bool { return rs.deterministic }

func (rs RandomSource) String() string {
	if rs.deterministic {
		return fmt.Sprintf("deterministic(seed=%d)", rs.seed)
	}
	return fmt.Sprintf("nondeterministic(seed=%d)", rs.seed)
}

func (rs RandomSource) elementDistribution(ie int) distuv.Uniform {
	return distuv.Uniform{
		Min: MinValue,
		Max: 1. / MinValue,
		Src: utils.NewStream(rs.seed, uint64(ie)),
	}
}

// GenerateRandom fills a VaryingViscosity store of numElements elements with
// random but valid geometry and synchronizes it to compute. Every value is
// uniform in [MinValue, 1/MinValue] except D, which is redrawn per grid point
// until its determinant is positive, and DInv, which is the exact inverse of D.
func (s *Store) GenerateRandom(numElements int, rs RandomSource) (err error) {
	if err = s.Init(numElements, VaryingViscosity); err != nil {
		return
	}
	var (
		degree = utils.ParallelDegreeFor(s.ParallelDegree, numElements)
		pm     = utils.NewPartitionMap(degree, numElements)
	)
	pm.ForEachBucket(func(bn, kMin, kMax int) {
		for ie := kMin; ie < kMax; ie++ {
			dist := rs.elementDistribution(ie)
			s.randomElement(ie, dist.Rand)
		}
	})
	return s.SyncToCompute()
}

func (s *Store) randomElement(ie int, draw func() float64) {
	fill := func(f *Field) {
		block := f.Element(ie)
		for i := range block {
			block[i] = draw()
		}
	}
	fill(s.fcor)
	fill(s.spheremp)
	fill(s.rspheremp)
	fill(s.metdet)
	fill(s.metinv)
	fill(s.varying.TensorVisc)
	fill(s.varying.VecSph2Cart)
	fill(s.phis)

	// Generating all D at once and rejecting the batch would almost never succeed,
	// so each grid point is drawn and checked on its own
	for igp := 0; igp < NP; igp++ {
		for jgp := 0; jgp < NP; jgp++ {
			m, det := drawPositiveBasis(draw, MaxDrawAttempts)
			for i := 0; i < 2; i++ {
				for j := 0; j < 2; j++ {
					s.d.Set(ie, i, j, igp, jgp, m[i][j])
				}
			}
			s.dinv.Set(ie, 0, 0, igp, jgp, m[1][1]/det)
			s.dinv.Set(ie, 1, 0, igp, jgp, -m[1][0]/det)
			s.dinv.Set(ie, 0, 1, igp, jgp, -m[0][1]/det)
			s.dinv.Set(ie, 1, 1, igp, jgp, m[0][0]/det)
		}
	}
}

func det2(m [2][2]float64) float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

func drawPositiveBasis(draw func() float64, maxAttempts int) (m [2][2]float64, det float64) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		m[0][0], m[0][1] = draw(), draw()
		m[1][0], m[1][1] = draw(), draw()
		if det = det2(m); det > 0 {
			return
		}
	}
	panic(fmt.Errorf("no basis matrix with positive determinant in %d draws", maxAttempts))
}
