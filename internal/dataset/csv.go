package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Load reads a CSV file. See ReadCSV.
func Load(path string, labelled bool) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()
	s, err := ReadCSV(f, labelled)
	return s, errors.Wrapf(err, "Unable to read %v", path)
}

// ReadCSV reads one sample per record. When labelled, the first column of every record is the
// class of the sample.
func ReadCSV(r io.Reader, labelled bool) (*Set, error) {
	reader := NewReader(r)
	s := new(Set)
	if labelled {
		s.Labels = []int{}
	}
	for {
		in, label, err := reader.Read(labelled)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		s.Inputs = append(s.Inputs, in)
		if labelled {
			s.Labels = append(s.Labels, label)
		}
	}
	return s, s.IsNormal()
}

// Reader reads samples from a CSV stream, one at a time.
type Reader struct {
	r    *csv.Reader
	line int
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.Comment = '#'
	return &Reader{r: cr}
}

// Read reads the next sample. It returns io.EOF at the end of the stream.
func (r *Reader) Read(labelled bool) (input []float32, label int, err error) {
	record, err := r.r.Read()
	if err == io.EOF {
		return nil, 0, err
	}
	r.line++
	if err != nil {
		return nil, 0, errors.Wrapf(err, "record %d", r.line)
	}
	if labelled {
		if len(record) < 2 {
			return nil, 0, errors.Errorf("record %d: expected a label and at least one feature", r.line)
		}
		if label, err = strconv.Atoi(strings.TrimSpace(record[0])); err != nil {
			return nil, 0, errors.Wrapf(err, "record %d: bad label", r.line)
		}
		record = record[1:]
	}
	input = make([]float32, len(record))
	for i := range record {
		var f float64
		if f, err = strconv.ParseFloat(strings.TrimSpace(record[i]), 32); err != nil {
			return nil, 0, errors.Wrapf(err, "record %d, column %d", r.line, i)
		}
		input[i] = float32(f)
	}
	return input, label, nil
}
