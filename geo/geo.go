// Package geo computes distances and bearings between pairs of coordinates held in a frame.
package geo

import (
	"math"

	"github.com/hscells/taxifare/frame"
)

// EarthRadius is the mean radius of the earth in kilometres.
const EarthRadius = 6371.0

// Coordinates names the four columns holding the start and end of a trip.
type Coordinates struct {
	StartLat string
	StartLon string
	EndLat   string
	EndLon   string
}

// PickupDropoff is the coordinate quadruple of a taxi trip record.
var PickupDropoff = Coordinates{
	StartLat: "pickup_latitude",
	StartLon: "pickup_longitude",
	EndLat:   "dropoff_latitude",
	EndLon:   "dropoff_longitude",
}

// Columns lists the column names in start lat, start lon, end lat, end lon order.
func (c Coordinates) Columns() []string {
	return []string{c.StartLat, c.StartLon, c.EndLat, c.EndLon}
}

// Extract reads the four coordinate columns of a frame.
func (c Coordinates) Extract(f *frame.Frame) (lat1, lon1, lat2, lon2 []float64, err error) {
	if lat1, err = f.Floats(c.StartLat); err != nil {
		return
	}
	if lon1, err = f.Floats(c.StartLon); err != nil {
		return
	}
	if lat2, err = f.Floats(c.EndLat); err != nil {
		return
	}
	lon2, err = f.Floats(c.EndLon)
	return
}

func radians(d float64) float64 {
	return d * math.Pi / 180
}

// HaversineKm is the great-circle distance in kilometres between two points given in degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)
	a := math.Pow(math.Sin(dLat/2), 2) + math.Cos(radians(lat1))*math.Cos(radians(lat2))*math.Pow(math.Sin(dLon/2), 2)
	// Rounding can push a a hair outside [0, 1] for antipodal points.
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadius * math.Asin(math.Sqrt(a))
}

// HaversineSlices computes the great-circle distance row by row. All slices must have the same length.
func HaversineSlices(lat1, lon1, lat2, lon2 []float64) []float64 {
	d := make([]float64, len(lat1))
	for i := range d {
		d[i] = HaversineKm(lat1[i], lon1[i], lat2[i], lon2[i])
	}
	return d
}

// Haversine computes the great-circle distance in kilometres for every row of a frame.
func Haversine(f *frame.Frame, c Coordinates) ([]float64, error) {
	lat1, lon1, lat2, lon2, err := c.Extract(f)
	if err != nil {
		return nil, err
	}
	return HaversineSlices(lat1, lon1, lat2, lon2), nil
}

// Minkowski computes the order p Minkowski distance on raw degree deltas for every row of a frame. The result is not
// a physical distance: p=1 is the Manhattan and p=2 the Euclidean distance in degree space.
func Minkowski(f *frame.Frame, c Coordinates, p float64) ([]float64, error) {
	lat1, lon1, lat2, lon2, err := c.Extract(f)
	if err != nil {
		return nil, err
	}
	d := make([]float64, len(lat1))
	for i := range d {
		d[i] = MinkowskiDelta(lon2[i]-lon1[i], lat2[i]-lat1[i], p)
	}
	return d, nil
}

// MinkowskiDelta is the order p Minkowski norm of (dx, dy).
func MinkowskiDelta(dx, dy, p float64) float64 {
	return math.Pow(math.Pow(math.Abs(dx), p)+math.Pow(math.Abs(dy), p), 1/p)
}

// Direction computes the bearing, in degrees within (-180, 180), of the displacement (dLon, dLat).
//
// A displacement with dLon = 0, or with dLon < 0 and dLat = 0, has direction 0.
func Direction(dLon, dLat float64) float64 {
	l := math.Hypot(dLon, dLat)
	switch {
	case dLon > 0:
		return degrees(math.Asin(dLat / l))
	case dLon < 0 && dLat > 0:
		return 180 - degrees(math.Asin(dLat/l))
	case dLon < 0 && dLat < 0:
		return -180 - degrees(math.Asin(dLat/l))
	}
	return 0
}

// Directions applies Direction element-wise.
func Directions(dLon, dLat []float64) []float64 {
	d := make([]float64, len(dLon))
	for i := range d {
		d[i] = Direction(dLon[i], dLat[i])
	}
	return d
}

func degrees(r float64) float64 {
	return r * 180 / math.Pi
}
