// Package hdf5 records shoal simulations to HDF5 files and reads them back.
package hdf5

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/PrincetonUniversity/shoal"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/hdf5"
)

// A Record is what is recorded in the HDF5 file for each agent at each step.
// This structure is mapped to a compound datatype in HDF5 so member names are important.
type Record struct {
	Pos          r3.Vec
	Vel          r3.Vec
	Contaminated uint8 // 1 if contaminated
	Tag          uint8 // 0: normal, 1: leader, 2: contaminated
}

// NewRecord converts the state of an agent.
func NewRecord(a shoal.AgentState) Record {
	r := Record{Pos: a.Pos, Vel: a.Vel, Tag: uint8(a.Tag)}
	if a.Contaminated {
		r.Contaminated = 1
	}
	return r
}

// State converts r back to the state of an agent.
func (r Record) State() shoal.AgentState {
	return shoal.AgentState{Pos: r.Pos, Vel: r.Vel, Contaminated: r.Contaminated != 0, Tag: shoal.Tag(r.Tag)}
}

// A Dataset stipulates how to generate data and where to store them in the HDF5 file.
type Dataset struct {
	// Name the name of the dataset in the HDF5 file.
	Name string

	// Val is a value of the same concrete type as the underlying type of the data.
	Val interface{}

	// Dims are the dimensions of the data for a single step.
	Dims []int

	// Data is a function that produces the data of the current step
	// as a pointer to a value or to a slice of row-major values.
	Data func(s *shoal.Simulation) interface{}

	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// Agents returns a dataset recording the state of the n agents of a school.
func Agents(n int) *Dataset {
	buf := make([]Record, n)
	return &Dataset{
		Name: "agents",
		Val:  Record{},
		Dims: []int{n},
		Data: func(s *shoal.Simulation) interface{} {
			for i, a := range s.Snapshot() {
				buf[i] = NewRecord(a)
			}
			return &buf
		},
	}
}

// Infected returns a dataset recording the number of contaminated agents.
func Infected() *Dataset {
	var n int64
	return &Dataset{
		Name: "infected",
		Val:  n,
		Data: func(s *shoal.Simulation) interface{} {
			n = int64(s.Infected())
			return &n
		},
	}
}

// Config holds the parameters of the HDF5 driver.
type Config struct {
	Output   string       // path of output file
	Steps    int          // total number of steps
	Step     func() error // go to next step
	Datasets []*Dataset   // list of datasets

	// Attrs is a pointer to a flat struct whose fields are saved
	// as attributes of the "config" dataset. It may be nil.
	Attrs interface{}

	Log logrus.FieldLogger // progress, may be nil
}

// Run runs a simulation and saves data to an HDF5 file.
// Data are recorded before each step, so the first record is the initial state.
func Run(s *shoal.Simulation, conf *Config) (err error) {
	file, err := create(conf.Output)
	if err != nil {
		return err
	}
	defer checkClose(&err, file)

	if err := saveConfig(file, conf.Attrs); err != nil {
		return err
	}

	for _, d := range conf.Datasets {
		if err := d.init(file, conf.Steps); err != nil {
			return err
		}
		defer checkClose(&err, d)
	}

	last := -1
	for k := uint(0); k < uint(conf.Steps); k++ {
		if p := int(100 * k / uint(conf.Steps)); conf.Log != nil && p/10 != last {
			last = p / 10
			conf.Log.WithFields(logrus.Fields{"step": k, "progress": p}).Info("recording")
		}

		for _, d := range conf.Datasets {
			start := make([]uint, len(d.Dims)+1)
			start[0] = k
			if err := d.fspace.SetOffset(start); err != nil {
				return err
			}
			if err := d.dset.WriteSubset(d.Data(s), d.mspace, d.fspace); err != nil {
				return fmt.Errorf("hdf5: writing step %d of %s: %w", k, d.Name, err)
			}
		}

		if err := conf.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Save writes a whole dataset at once to a new HDF5 file.
// data must point to a slice of row-major values matching dims.
func Save(path string, attrs interface{}, name string, data interface{}, dims ...uint) (err error) {
	rv := reflect.Indirect(reflect.ValueOf(data))
	if rv.Kind() != reflect.Slice || rv.Len() == 0 {
		return fmt.Errorf("hdf5: dataset %s needs a non-empty slice, got %T", name, data)
	}

	file, err := create(path)
	if err != nil {
		return err
	}
	defer checkClose(&err, file)

	if err := saveConfig(file, attrs); err != nil {
		return err
	}

	dtype, err := hdf5.NewDatatypeFromValue(rv.Index(0).Interface())
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	dspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		return err
	}
	defer checkClose(&err, dspace)

	dset, err := file.CreateDataset(name, dtype, dspace)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	return dset.Write(data)
}

func create(path string) (*hdf5.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	return hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
}

// saveConfig creates a "config" dataset with a null dataspace whose attributes
// reflect the whole configuration plus some other appropriate metadata.
func saveConfig(file *hdf5.File, attrs interface{}) (err error) {
	null, err := hdf5.CreateDataspace(hdf5.S_NULL)
	if err != nil {
		return err
	}
	defer checkClose(&err, null)

	anytype, err := hdf5.NewDatatypeFromValue(0)
	if err != nil {
		return err
	}
	defer checkClose(&err, anytype)

	dset, err := file.CreateDataset("config", anytype, null)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer checkClose(&err, scalar)

	now := time.Now().String()
	if err := attribute(dset, scalar, "Time", &now); err != nil {
		return err
	}

	if attrs == nil {
		return nil
	}
	return attributes(dset, scalar, reflect.Indirect(reflect.ValueOf(attrs)))
}

// attributes saves every field of the struct v as an attribute of dset.
// Fields of embedded structs are saved as if they belonged to v.
func attributes(dset *hdf5.Dataset, scalar *hdf5.Dataspace, v reflect.Value) error {
	for i := 0; i < v.NumField(); i++ {
		f, field := v.Field(i), v.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		var val interface{}
		switch f.Kind() {
		case reflect.Struct:
			if !field.Anonymous {
				return fmt.Errorf("hdf5: config field %s is a nested struct", field.Name)
			}
			if err := attributes(dset, scalar, f); err != nil {
				return err
			}
			continue
		case reflect.Bool:
			// HDF5 has no native boolean type
			var b uint8
			if f.Bool() {
				b = 1
			}
			val = &b
		case reflect.String:
			s := f.String()
			val = &s
		case reflect.Int:
			n := f.Int()
			val = &n
		case reflect.Float64, reflect.Int64, reflect.Uint8:
			p := reflect.New(f.Type())
			p.Elem().Set(f)
			val = p.Interface()
		default:
			return fmt.Errorf("hdf5: config field %s has unsupported type %s", field.Name, f.Type())
		}
		if err := attribute(dset, scalar, field.Name, val); err != nil {
			return fmt.Errorf("hdf5: config field %s: %w", field.Name, err)
		}
	}
	return nil
}

// attribute writes the scalar value pointed to by val as an attribute of dset.
func attribute(dset *hdf5.Dataset, scalar *hdf5.Dataspace, name string, val interface{}) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(reflect.ValueOf(val).Elem().Interface())
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	attr, err := dset.CreateAttribute(name, dtype, scalar)
	if err != nil {
		return err
	}
	defer checkClose(&err, attr)

	return attr.Write(val, dtype)
}

// init creates the dataset and the dataspaces used to write one step at a time.
func (d *Dataset) init(file *hdf5.File, steps int) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(d.Val)
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	udims := make([]uint, len(d.Dims)+1)
	udims[0] = uint(steps)
	for i, n := range d.Dims {
		udims[i+1] = uint(n)
	}

	d.fspace, err = hdf5.CreateSimpleDataspace(udims, nil)
	if err != nil {
		return err
	}

	start := make([]uint, len(udims))
	count := make([]uint, len(udims))
	copy(count, udims)
	count[0] = 1

	if err := d.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	if len(d.Dims) == 0 {
		d.mspace, err = hdf5.CreateDataspace(hdf5.S_SCALAR)
	} else {
		d.mspace, err = hdf5.CreateSimpleDataspace(udims[1:], nil)
	}
	if err != nil {
		checkClose(&err, d.fspace)
		return err
	}

	d.dset, err = file.CreateDataset(d.Name, dtype, d.fspace)
	if err != nil {
		checkClose(&err, d.fspace)
		checkClose(&err, d.mspace)
	}

	return err
}

// Close closes the HDF5 dataset and Dataspaces.
func (d *Dataset) Close() error {
	if err := d.dset.Close(); err != nil {
		return err
	}
	if err := d.mspace.Close(); err != nil {
		return err
	}
	if err := d.fspace.Close(); err != nil {
		return err
	}
	return nil
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
