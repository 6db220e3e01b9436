package encoders

import (
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/geo"
)

// Distance types understood by the distance encoder.
const (
	Haversine = "haversine"
	Euclidian = "euclidian"
	Manhattan = "manhattan"
)

// Distance adds the trip distance, measured in kilometres for haversine and in degree space otherwise, as the
// column "distance".
type Distance struct {
	Type        string
	Coordinates geo.Coordinates
}

// NewDistance creates a distance encoder, rejecting unknown distance types.
func NewDistance(distanceType string, c geo.Coordinates) (*Distance, error) {
	d := &Distance{Type: distanceType, Coordinates: c}
	if _, err := d.order(); err != nil {
		return nil, err
	}
	return d, nil
}

// order is the Minkowski order of the distance type, or zero for haversine.
func (e *Distance) order() (float64, error) {
	switch e.Type {
	case Haversine:
		return 0, nil
	case Euclidian:
		return 2, nil
	case Manhattan:
		return 1, nil
	}
	return 0, faults.Newf(faults.Configuration, "distance", "distance_type", "unknown distance type %q", e.Type)
}

func (e *Distance) Fit(X *frame.Frame, y []float64) (Stage, error) {
	if _, err := e.order(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Distance) Transform(X *frame.Frame) (*frame.Frame, error) {
	p, err := e.order()
	if err != nil {
		return nil, err
	}
	var d []float64
	if p == 0 {
		d, err = geo.Haversine(X, e.Coordinates)
	} else {
		d, err = geo.Minkowski(X, e.Coordinates, p)
	}
	if err != nil {
		return nil, err
	}
	return frame.New(frame.FloatColumn("distance", d))
}

// Manhattan city centre.
const (
	CenterLat = 40.7141667
	CenterLon = -74.0063889
)

// DistanceToCenter adds the haversine distances from a fixed centre to the start and the end of the trip as
// "pickup_distance_to_center" and "dropoff_distance_to_center".
type DistanceToCenter struct {
	Coordinates geo.Coordinates
	CenterLat   float64
	CenterLon   float64
}

// NewDistanceToCenter creates an encoder measuring distances to the Manhattan city centre.
func NewDistanceToCenter(c geo.Coordinates) *DistanceToCenter {
	return &DistanceToCenter{Coordinates: c, CenterLat: CenterLat, CenterLon: CenterLon}
}

func (e *DistanceToCenter) Fit(X *frame.Frame, y []float64) (Stage, error) {
	return e, nil
}

func (e *DistanceToCenter) Transform(X *frame.Frame) (*frame.Frame, error) {
	lat1, lon1, lat2, lon2, err := e.Coordinates.Extract(X)
	if err != nil {
		return nil, err
	}
	pickup := make([]float64, len(lat1))
	dropoff := make([]float64, len(lat2))
	for i := range pickup {
		pickup[i] = geo.HaversineKm(e.CenterLat, e.CenterLon, lat1[i], lon1[i])
		dropoff[i] = geo.HaversineKm(e.CenterLat, e.CenterLon, lat2[i], lon2[i])
	}
	return frame.New(
		frame.FloatColumn("pickup_distance_to_center", pickup),
		frame.FloatColumn("dropoff_distance_to_center", dropoff),
	)
}

// Direction adds the displacement of the trip in degrees, measured from the end to the start, as "delta_lon" and
// "delta_lat", together with its bearing as "direction".
type Direction struct {
	Coordinates geo.Coordinates
}

// NewDirection creates a direction encoder.
func NewDirection(c geo.Coordinates) *Direction {
	return &Direction{Coordinates: c}
}

func (e *Direction) Fit(X *frame.Frame, y []float64) (Stage, error) {
	return e, nil
}

func (e *Direction) Transform(X *frame.Frame) (*frame.Frame, error) {
	lat1, lon1, lat2, lon2, err := e.Coordinates.Extract(X)
	if err != nil {
		return nil, err
	}
	dLon := make([]float64, len(lon1))
	dLat := make([]float64, len(lat1))
	for i := range dLon {
		dLon[i] = lon1[i] - lon2[i]
		dLat[i] = lat1[i] - lat2[i]
	}
	return frame.New(
		frame.FloatColumn("delta_lon", dLon),
		frame.FloatColumn("delta_lat", dLat),
		frame.FloatColumn("direction", geo.Directions(dLon, dLat)),
	)
}
