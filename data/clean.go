package data

import (
	"math"

	"github.com/hscells/taxifare/frame"
)

// Bounds of a plausible New York trip.
const (
	MinLatitude   = 40.0
	MaxLatitude   = 42.0
	MinLongitude  = -74.3
	MaxLongitude  = -72.9
	MaxFare       = 4000.0
	MaxPassengers = 8
)

// Clean removes every row with a missing value, a pickup or dropoff at (0, 0), a fare outside (0, 4000] when the batch
// has fares, a passenger count outside [0, 8) or coordinates outside the New York region. Clean is idempotent.
func Clean(f *frame.Frame) (*frame.Frame, error) {
	n := f.Len()
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}

	// Missing values in any column.
	for _, c := range f.Columns {
		for i := 0; i < n; i++ {
			if keep[i] && c.Missing(i) {
				keep[i] = false
			}
		}
	}

	read := func(name string) ([]float64, error) {
		return f.Floats(name)
	}
	pickupLat, err := read(PickupLatitude)
	if err != nil {
		return nil, err
	}
	pickupLon, err := read(PickupLongitude)
	if err != nil {
		return nil, err
	}
	dropoffLat, err := read(DropoffLatitude)
	if err != nil {
		return nil, err
	}
	dropoffLon, err := read(DropoffLongitude)
	if err != nil {
		return nil, err
	}
	passengers, err := read(PassengerCount)
	if err != nil {
		return nil, err
	}
	var fares []float64
	if f.Has(Fare) {
		if fares, err = read(Fare); err != nil {
			return nil, err
		}
	}

	for i := 0; i < n; i++ {
		if !keep[i] {
			continue
		}
		switch {
		case pickupLat[i] == 0 && pickupLon[i] == 0,
			dropoffLat[i] == 0 && dropoffLon[i] == 0,
			fares != nil && !(fares[i] > 0 && fares[i] <= MaxFare),
			!(passengers[i] >= 0 && passengers[i] < MaxPassengers),
			!within(pickupLat[i], MinLatitude, MaxLatitude),
			!within(pickupLon[i], MinLongitude, MaxLongitude),
			!within(dropoffLat[i], MinLatitude, MaxLatitude),
			!within(dropoffLon[i], MinLongitude, MaxLongitude):
			keep[i] = false
		}
	}
	return f.Filter(keep), nil
}

func within(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// Optimize stores float columns whose values are all whole numbers as integers, which is how passenger counts are
// meant to be read. Columns holding a missing value are left as they are.
func Optimize(f *frame.Frame) *frame.Frame {
	cols := make([]frame.Column, len(f.Columns))
	for j, c := range f.Columns {
		cols[j] = c
		if c.Kind != frame.Float || c.Name == Fare || len(c.Floats) == 0 || !integral(c.Floats) {
			continue
		}
		ints := make([]int64, len(c.Floats))
		for i, v := range c.Floats {
			ints[i] = int64(v)
		}
		cols[j] = frame.IntColumn(c.Name, ints)
	}
	return &frame.Frame{Columns: cols}
}

func integral(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || x != math.Trunc(x) || math.Abs(x) > 1<<53 {
			return false
		}
	}
	return true
}
