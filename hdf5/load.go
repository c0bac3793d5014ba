package hdf5

import (
	"fmt"

	"github.com/PrincetonUniversity/shoal"
	"gonum.org/v1/hdf5"
)

// A Loader sequentially loads the steps of an agents dataset.
type Loader struct {
	i uint // index of current step
	n uint // total number of steps

	data []Record // data buffer

	file   *hdf5.File
	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// NewLoader opens a dataset of records in an HDF5 file and returns an initialized loader.
func NewLoader(filepath, dataset string) (_ *Loader, err error) {
	l := new(Loader)
	l.file, err = hdf5.OpenFile(filepath, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	// release everything opened so far on failure
	defer func() {
		if err != nil {
			l.Close()
		}
	}()

	l.dset, err = l.file.OpenDataset(dataset)
	if err != nil {
		return nil, err
	}
	dtype, err := l.dset.Datatype()
	if err != nil {
		return nil, err
	}
	class := dtype.Class()
	checkClose(&err, dtype)
	if err != nil {
		return nil, err
	}
	if class != hdf5.T_COMPOUND {
		return nil, fmt.Errorf("hdf5: dataset %s does not hold records", dataset)
	}

	l.fspace = l.dset.Space()
	dims, _, err := l.fspace.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("hdf5: loader expected 2 dimensions, got %d", len(dims))
	}
	if dims[0] == 0 {
		return nil, fmt.Errorf("hdf5: dataset %s has no step", dataset)
	}
	l.n = dims[0]

	l.mspace, err = hdf5.CreateSimpleDataspace(dims[1:], nil)
	if err != nil {
		return nil, err
	}

	start := []uint{0, 0}
	count := []uint{1, dims[1]}
	if err := l.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		return nil, err
	}

	l.data = make([]Record, dims[1])
	return l, nil
}

// Steps returns the number of steps in the dataset.
func (l *Loader) Steps() int { return int(l.n) }

// Size returns the number of agents in each step.
func (l *Loader) Size() int { return len(l.data) }

// Load loads the next step available into s
// and cycles when everything has already been loaded.
func (l *Loader) Load(s *[]shoal.AgentState) error {
	start := []uint{l.i, 0}
	if err := l.fspace.SetOffset(start); err != nil {
		return err
	}
	l.i = (l.i + 1) % l.n

	if err := l.dset.ReadSubset(&l.data, l.mspace, l.fspace); err != nil {
		return err
	}

	*s = (*s)[:0]
	for _, r := range l.data {
		*s = append(*s, r.State())
	}
	return nil
}

// Close releases the HDF5 objects held by l.
func (l *Loader) Close() error {
	var err error
	if l.mspace != nil {
		checkClose(&err, l.mspace)
	}
	if l.fspace != nil {
		checkClose(&err, l.fspace)
	}
	if l.dset != nil {
		checkClose(&err, l.dset)
	}
	if l.file != nil {
		checkClose(&err, l.file)
	}
	return err
}
