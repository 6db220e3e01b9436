package encoders

import (
	"github.com/hscells/taxifare/faults"
	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/geo"
	"github.com/mmcloughlin/geohash"
)

// DefaultGeohashPrecision is the geohash length used unless configured otherwise.
const DefaultGeohashPrecision = 6

// Geohash adds the geohashes of the start and end of the trip as "geohash_pickup" and "geohash_dropoff".
type Geohash struct {
	Precision   uint
	Coordinates geo.Coordinates
}

// NewGeohash creates a geohash encoder of the given precision.
func NewGeohash(precision uint, c geo.Coordinates) *Geohash {
	return &Geohash{Precision: precision, Coordinates: c}
}

func (e *Geohash) Fit(X *frame.Frame, y []float64) (Stage, error) {
	return e, nil
}

func (e *Geohash) Transform(X *frame.Frame) (*frame.Frame, error) {
	if e.Precision < 1 || e.Precision > 12 {
		return nil, faults.Newf(faults.Configuration, "geohash", "geohash_precision", "precision %d outside [1, 12]", e.Precision)
	}
	lat1, lon1, lat2, lon2, err := e.Coordinates.Extract(X)
	if err != nil {
		return nil, err
	}
	pickup := make([]string, len(lat1))
	dropoff := make([]string, len(lat2))
	for i := range pickup {
		pickup[i] = geohash.EncodeWithPrecision(lat1[i], lon1[i], e.Precision)
		dropoff[i] = geohash.EncodeWithPrecision(lat2[i], lon2[i], e.Precision)
	}
	return frame.New(
		frame.StringColumn("geohash_pickup", pickup),
		frame.StringColumn("geohash_dropoff", dropoff),
	)
}
