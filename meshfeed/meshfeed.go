package meshfeed

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"regexp"

	"github.com/ghodss/yaml"

	"github.com/notargets/elemgeom/geometry"
)

// Feed is a file image of the geometry handed over by a mesh generator, one
// Record per element. It is read as YAML or JSON.
type Feed struct {
	Title          string   `json:"Title,omitempty"`
	NumElements    int      `json:"NumElements"`
	ConstViscosity bool     `json:"ConstViscosity"`
	Elements       []Record `json:"Elements"`
}

// Record holds the flat external arrays of element Index
type Record struct {
	Index       int       `json:"Index"`
	D           []float64 `json:"D"`
	DInv        []float64 `json:"DINV"`
	FCor        []float64 `json:"FCOR"`
	SphereMP    []float64 `json:"SPHEREMP"`
	RSphereMP   []float64 `json:"RSPHEREMP"`
	MetDet      []float64 `json:"METDET"`
	MetInv      []float64 `json:"METINV"`
	PhiS        []float64 `json:"PHIS"`
	TensorVisc  []float64 `json:"TENSORVISC,omitempty"`
	VecSph2Cart []float64 `json:"VEC_SPH2CART,omitempty"`
}

func (fd *Feed) Mode() geometry.ViscosityMode {
	return geometry.NewViscosityMode(fd.ConstViscosity)
}

func NewRecord(ie int, ext *geometry.ExternalElement) Record {
	return Record{
		Index:       ie,
		D:           ext.D,
		DInv:        ext.DInv,
		FCor:        ext.FCor,
		SphereMP:    ext.SphereMP,
		RSphereMP:   ext.RSphereMP,
		MetDet:      ext.MetDet,
		MetInv:      ext.MetInv,
		PhiS:        ext.PhiS,
		TensorVisc:  ext.TensorVisc,
		VecSph2Cart: ext.VecSph2Cart,
	}
}

func (rc *Record) External() *geometry.ExternalElement {
	return &geometry.ExternalElement{
		D:           rc.D,
		DInv:        rc.DInv,
		FCor:        rc.FCor,
		SphereMP:    rc.SphereMP,
		RSphereMP:   rc.RSphereMP,
		MetDet:      rc.MetDet,
		MetInv:      rc.MetInv,
		PhiS:        rc.PhiS,
		TensorVisc:  rc.TensorVisc,
		VecSph2Cart: rc.VecSph2Cart,
	}
}

// Validate checks what LoadElement would otherwise reject with a panic, so a bad
// file surfaces as an error
func (fd *Feed) Validate() (err error) {
	if fd.NumElements < 0 {
		return fmt.Errorf("feed has negative element count %d", fd.NumElements)
	}
	var (
		seen = make(map[int]bool, len(fd.Elements))
	)
	for n := range fd.Elements {
		rc := &fd.Elements[n]
		if rc.Index < 0 || rc.Index >= fd.NumElements {
			return fmt.Errorf("record %d: element %d out of range [0,%d)",
				n, rc.Index, fd.NumElements)
		}
		if seen[rc.Index] {
			return fmt.Errorf("record %d: element %d appears more than once", n, rc.Index)
		}
		seen[rc.Index] = true
		if err = rc.checkSizes(fd.Mode()); err != nil {
			return fmt.Errorf("record %d: %w", n, err)
		}
	}
	return
}

func (rc *Record) checkSizes(mode geometry.ViscosityMode) error {
	type sized struct {
		name   geometry.FieldName
		values []float64
		layout geometry.Layout
	}
	checks := []sized{
		{geometry.D, rc.D, geometry.Tensor22Layout},
		{geometry.DInv, rc.DInv, geometry.Tensor22Layout},
		{geometry.FCor, rc.FCor, geometry.ScalarLayout},
		{geometry.SphereMP, rc.SphereMP, geometry.ScalarLayout},
		{geometry.RSphereMP, rc.RSphereMP, geometry.ScalarLayout},
		{geometry.MetDet, rc.MetDet, geometry.ScalarLayout},
		{geometry.MetInv, rc.MetInv, geometry.Tensor22Layout},
		{geometry.PhiS, rc.PhiS, geometry.ScalarLayout},
	}
	if mode == geometry.VaryingViscosity {
		checks = append(checks,
			sized{geometry.TensorVisc, rc.TensorVisc, geometry.Tensor22Layout},
			sized{geometry.VecSph2Cart, rc.VecSph2Cart, geometry.Tensor23Layout},
		)
	}
	for _, c := range checks {
		if len(c.values) != c.layout.Size() {
			return fmt.Errorf("element %d %s has %d values, need %d",
				rc.Index, c.name, len(c.values), c.layout.Size())
		}
	}
	return nil
}

// Read parses and validates a feed
func Read(r io.Reader) (fd *Feed, err error) {
	var data []byte
	if data, err = ioutil.ReadAll(r); err != nil {
		return
	}
	fd = &Feed{}
	if err = yaml.Unmarshal(data, fd); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if err = fd.Validate(); err != nil {
		return nil, err
	}
	return
}

func ReadFile(path string) (fd *Feed, err error) {
	var file *os.File
	if file, err = os.Open(path); err != nil {
		return
	}
	defer file.Close()
	if fd, err = Read(file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return
}

// YAML reads a bare -0 as the integer zero, so negative zero array entries are
// spelled -0.0 to keep the sign bit
var negativeZero = regexp.MustCompile(`(?m)^([ ]*-[ ]+)-0$`)

// Write emits the feed as YAML. Values are written in shortest round-trip form,
// reading the output back gives identical bits.
func Write(w io.Writer, fd *Feed) (err error) {
	var data []byte
	if data, err = yaml.Marshal(fd); err != nil {
		return fmt.Errorf("encoding feed: %w", err)
	}
	data = negativeZero.ReplaceAll(data, []byte("${1}-0.0"))
	_, err = w.Write(data)
	return
}

func WriteFile(path string, fd *Feed) (err error) {
	var file *os.File
	if file, err = os.Create(path); err != nil {
		return
	}
	if err = Write(file, fd); err != nil {
		file.Close()
		return
	}
	return file.Close()
}

// FromStore exports every element of an initialized store
func FromStore(s *geometry.Store, title string) (fd *Feed) {
	fd = &Feed{
		Title:          title,
		NumElements:    s.NumElements,
		ConstViscosity: s.Mode == geometry.ConstantViscosity,
		Elements:       make([]Record, s.NumElements),
	}
	for ie := 0; ie < s.NumElements; ie++ {
		fd.Elements[ie] = NewRecord(ie, s.ExportElement(ie))
	}
	return
}

// DropViscosity turns the feed into a ConstantViscosity feed, discarding the
// viscosity tensors of every record
func (fd *Feed) DropViscosity() {
	fd.ConstViscosity = true
	for n := range fd.Elements {
		fd.Elements[n].TensorVisc = nil
		fd.Elements[n].VecSph2Cart = nil
	}
}

// Apply initializes s to the feed's size and mode and loads every record.
// Elements without a record stay zero.
func Apply(s *geometry.Store, fd *Feed) (err error) {
	if err = fd.Validate(); err != nil {
		return
	}
	if err = s.Init(fd.NumElements, fd.Mode()); err != nil {
		return
	}
	for n := range fd.Elements {
		rc := &fd.Elements[n]
		if err = s.LoadElement(rc.Index, rc.External()); err != nil {
			return fmt.Errorf("loading element %d: %w", rc.Index, err)
		}
	}
	return
}
