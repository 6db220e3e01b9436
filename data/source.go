// Package data reads raw trip records and prepares them for training.
package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/pkg/errors"
)

// Origins a batch can be loaded from.
const (
	Local = "local"
	AWS   = "aws"
	GCP   = "gcp"
)

// Column names of a raw trip record.
const (
	Key              = "key"
	Fare             = "fare_amount"
	PickupDatetime   = "pickup_datetime"
	PickupLongitude  = "pickup_longitude"
	PickupLatitude   = "pickup_latitude"
	DropoffLongitude = "dropoff_longitude"
	DropoffLatitude  = "dropoff_latitude"
	PassengerCount   = "passenger_count"
)

// numeric lists the columns read as floats. Every other column is read as a string.
var numeric = map[string]bool{
	Fare:             true,
	PickupLongitude:  true,
	PickupLatitude:   true,
	DropoffLongitude: true,
	DropoffLatitude:  true,
	PassengerCount:   true,
}

// Storage locates the raw data for each origin.
type Storage struct {
	LocalPath string
	AWSURL    string
	GCPBucket string
	GCPPath   string
	Client    *http.Client
}

// URL of the object for a remote origin.
func (s Storage) URL(origin string) (string, error) {
	switch origin {
	case AWS:
		return s.AWSURL, nil
	case GCP:
		return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.GCPBucket, strings.TrimPrefix(s.GCPPath, "/")), nil
	}
	return "", faults.Newf(faults.Configuration, "load", "data_origin", "unknown data origin %q", origin)
}

// Load reads at most nrows records from an origin. A non-positive nrows reads every record.
func Load(ctx context.Context, origin string, nrows int, s Storage) (*frame.Frame, error) {
	start := time.Now()
	defer func() {
		log.Printf("loaded %s data in %v\n", origin, time.Since(start).Round(time.Millisecond))
	}()

	if origin == Local {
		return LoadFile(s.LocalPath, nrows)
	}
	url, err := s.URL(origin)
	if err != nil {
		return nil, err
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, faults.New(faults.DataLoad, "load", origin, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, faults.New(faults.DataLoad, "load", origin, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, faults.Newf(faults.DataLoad, "load", origin, "GET %s: %s", url, resp.Status)
	}
	return decode(url, resp.Body, nrows)
}

// LoadFile reads at most nrows records from a CSV file, or from an Arrow IPC stream when the path ends in .arrow.
func LoadFile(path string, nrows int) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faults.New(faults.DataLoad, "load", path, err)
	}
	defer f.Close()
	return decode(path, f, nrows)
}

func decode(name string, r io.Reader, nrows int) (*frame.Frame, error) {
	if IsArrow(name) {
		return ReadArrow(r, nrows)
	}
	return Read(r, nrows)
}

// Read parses at most nrows records of CSV with a header row. Numeric columns hold NaN where a value is missing; a
// value that is present but cannot be parsed is a data format error naming its row and column.
func Read(r io.Reader, nrows int) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	header, err := cr.Read()
	if err != nil {
		return nil, faults.New(faults.DataLoad, "load", "header", errors.Wrap(err, "reading header"))
	}
	names := make([]string, len(header))
	for j, h := range header {
		names[j] = strings.TrimSpace(h)
	}

	floats := make([][]float64, len(names))
	strs := make([][]string, len(names))
	for row := 1; nrows <= 0 || row <= nrows; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, faults.New(faults.DataFormat, "load", fmt.Sprintf("row %d", row), err)
		}
		for j, name := range names {
			cell := strings.TrimSpace(rec[j])
			if !numeric[name] {
				strs[j] = append(strs[j], cell)
				continue
			}
			v := math.NaN()
			if len(cell) > 0 {
				v, err = strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, faults.Newf(faults.DataFormat, "load", name, "row %d: %q is not a number", row, cell)
				}
			}
			floats[j] = append(floats[j], v)
		}
	}

	cols := make([]frame.Column, len(names))
	for j, name := range names {
		if numeric[name] {
			cols[j] = frame.FloatColumn(name, floats[j])
		} else {
			cols[j] = frame.StringColumn(name, strs[j])
		}
	}
	return frame.New(cols...)
}

// Labels separates the fare from the features of a batch.
func Labels(f *frame.Frame) (*frame.Frame, []float64, error) {
	y, err := f.Floats(Fare)
	if err != nil {
		return nil, nil, err
	}
	return f.Drop(Fare), append([]float64(nil), y...), nil
}

// Write writes a batch as CSV with a header row, leaving missing values empty so that Read gives the batch back.
func Write(w io.Writer, f *frame.Frame) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return errors.Wrap(err, "writing header")
	}
	rec := make([]string, f.Width())
	for i := 0; i < f.Len(); i++ {
		for j, c := range f.Columns {
			if c.Missing(i) {
				rec[j] = ""
				continue
			}
			rec[j] = c.Format(i)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrapf(err, "writing row %d", i+1)
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "writing csv")
}
