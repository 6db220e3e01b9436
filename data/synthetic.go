package data

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hscells/taxifare/frame"
	"github.com/hscells/taxifare/geo"
)

// Synthetic generates n plausible Manhattan trips whose fare is a flag fall plus a per kilometre rate, with noise.
func Synthetic(n int, rnd *rand.Rand) *frame.Frame {
	var (
		keys       = make([]string, n)
		fares      = make([]float64, n)
		stamps     = make([]string, n)
		pickupLat  = make([]float64, n)
		pickupLon  = make([]float64, n)
		dropoffLat = make([]float64, n)
		dropoffLon = make([]float64, n)
		passengers = make([]float64, n)
	)
	base := time.Date(2009, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ts := base.Add(time.Duration(rnd.Int63n(int64(6 * 365 * 24 * time.Hour)))).Truncate(time.Second)
		stamps[i] = ts.Format("2006-01-02 15:04:05 UTC")
		keys[i] = fmt.Sprintf("%s.%d", ts.Format("2006-01-02 15:04:05"), i)
		pickupLat[i] = 40.70 + rnd.Float64()*0.10
		pickupLon[i] = -74.02 + rnd.Float64()*0.08
		dropoffLat[i] = 40.70 + rnd.Float64()*0.10
		dropoffLon[i] = -74.02 + rnd.Float64()*0.08
		passengers[i] = float64(1 + rnd.Intn(6))
		km := geo.HaversineKm(pickupLat[i], pickupLon[i], dropoffLat[i], dropoffLon[i])
		fares[i] = 2.5 + 1.6*km + rnd.NormFloat64()*0.5
		if fares[i] < 2.5 {
			fares[i] = 2.5
		}
	}
	return frame.Must(
		frame.StringColumn(Key, keys),
		frame.FloatColumn(Fare, fares),
		frame.StringColumn(PickupDatetime, stamps),
		frame.FloatColumn(PickupLongitude, pickupLon),
		frame.FloatColumn(PickupLatitude, pickupLat),
		frame.FloatColumn(DropoffLongitude, dropoffLon),
		frame.FloatColumn(DropoffLatitude, dropoffLat),
		frame.FloatColumn(PassengerCount, passengers),
	)
}
