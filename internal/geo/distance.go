// Package geo holds great-circle distance and best-effort viewer location resolution.
package geo

import "math"

const earthRadiusMiles = 3959.0

// DistanceMiles returns the haversine distance rounded to the nearest mile.
func DistanceMiles(lat1, lng1, lat2, lng2 float64) int {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return int(math.Round(earthRadiusMiles * c))
}

// Between returns the distance between two points, or nil when either is unknown.
func Between(lat1, lng1, lat2, lng2 *float64) *int {
	if lat1 == nil || lng1 == nil || lat2 == nil || lng2 == nil {
		return nil
	}
	d := DistanceMiles(*lat1, *lng1, *lat2, *lng2)
	return &d
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
