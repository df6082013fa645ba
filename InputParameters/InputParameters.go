package InputParameters

import (
	"fmt"

	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input file
type InputParametersGeometry struct {
	Title          string  `json:"Title"`
	NumElements    int     `json:"NumElements"`
	ConstViscosity bool    `json:"ConstViscosity"`
	Seed           uint64  `json:"Seed"`
	Deterministic  bool    `json:"Deterministic"`
	ParallelDegree int     `json:"ParallelDegree"` // Zero means one worker per CPU
	Tolerance      float64 `json:"Tolerance"`      // Relative tolerance of the D * DInv = I check
}

func Defaults() *InputParametersGeometry {
	return &InputParametersGeometry{
		Title:         "Random Geometry",
		NumElements:   4,
		Deterministic: true,
		Tolerance:     1.e-10,
	}
}

// Parse overlays the file's values onto ip, keys absent from the file keep their
// current values
func (ip *InputParametersGeometry) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParametersGeometry) Validate() error {
	if ip.NumElements < 0 {
		return fmt.Errorf("NumElements must be >= 0, have %d", ip.NumElements)
	}
	if ip.ParallelDegree < 0 {
		return fmt.Errorf("ParallelDegree must be >= 0, have %d", ip.ParallelDegree)
	}
	if !(ip.Tolerance > 0) {
		return fmt.Errorf("Tolerance must be positive, have %g", ip.Tolerance)
	}
	return nil
}

func (ip *InputParametersGeometry) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Number of Elements\n", ip.NumElements)
	fmt.Printf("[%v]\t\t\t= Constant Viscosity\n", ip.ConstViscosity)
	if ip.Deterministic {
		fmt.Printf("[%d]\t\t\t\t= Seed\n", ip.Seed)
	} else {
		fmt.Printf("[random]\t\t\t= Seed\n")
	}
	fmt.Printf("[%d]\t\t\t\t= Parallel Degree\n", ip.ParallelDegree)
	fmt.Printf("%8.5e\t\t= Tolerance\n", ip.Tolerance)
}
