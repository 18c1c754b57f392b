package geo

import (
	"math"

	"github.com/lintang-b-s/navmatch/pkg/util"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsValid. finite and inside the WGS84 lat/lon range.
func (c Coordinate) IsValid() bool {
	return util.IsFinite(c.Lat) && util.IsFinite(c.Lon) &&
		c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{
		Lat: lat,
		Lon: lon,
	}
}

const (
	earthRadiusKM = 6371.0
	EarthRadiusM  = earthRadiusKM * 1000
)

func havFunction(angleRad float64) float64 {
	return (1 - math.Cos(angleRad)) / 2.0
}

// CalculateHaversineDistance. calculate haversine distance in km
func CalculateHaversineDistance(latOne, longOne, latTwo, longTwo float64) float64 {
	latOne = util.DegreeToRadians(latOne)
	longOne = util.DegreeToRadians(longOne)
	latTwo = util.DegreeToRadians(latTwo)
	longTwo = util.DegreeToRadians(longTwo)

	a := havFunction(latOne-latTwo) + math.Cos(latOne)*math.Cos(latTwo)*havFunction(longOne-longTwo)
	c := 2.0 * math.Asin(math.Sqrt(a))
	return earthRadiusKM * c
}

// HaversineMeter. haversine distance between two coordinates in meter
func HaversineMeter(a, b Coordinate) float64 {
	return ConvertKilometerToMeter(CalculateHaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon))
}

func radToDeg(r float64) float64 {
	return 180.0 * r / math.Pi
}

// GetDestinationPoint returns the destination point given the starting point, bearing and distance
// dist in km
func GetDestinationPoint(lat1, lon1 float64, bearing float64, dist float64) (float64, float64) {

	dr := dist / earthRadiusKM

	bearing = util.DegreeToRadians(bearing)

	lat1 = util.DegreeToRadians(lat1)
	lon1 = util.DegreeToRadians(lon1)

	lat2Part1 := math.Sin(lat1) * math.Cos(dr)
	lat2Part2 := math.Cos(lat1) * math.Sin(dr) * math.Cos(bearing)

	lat2 := math.Asin(lat2Part1 + lat2Part2)

	lon2Part1 := math.Sin(bearing) * math.Sin(dr) * math.Cos(lat1)
	lon2Part2 := math.Cos(dr) - (math.Sin(lat1) * math.Sin(lat2))

	lon2 := lon1 + math.Atan2(lon2Part1, lon2Part2)

	return radToDeg(lat2), normalizeLongitude(radToDeg(lon2))
}

// Destination. dead-reckon from c along bearing (degree) for dist meter.
func Destination(c Coordinate, bearing, distMeter float64) Coordinate {
	lat, lon := GetDestinationPoint(c.Lat, c.Lon, bearing, ConvertMeterToKilometer(distMeter))
	return NewCoordinate(lat, lon)
}

// Interpolate. linear interpolation in lat/lon space, good enough at segment scale.
func Interpolate(a, b Coordinate, t float64) Coordinate {
	return NewCoordinate(a.Lat+(b.Lat-a.Lat)*t, a.Lon+(b.Lon-a.Lon)*t)
}

// normalizeLongitude. long in degree
func normalizeLongitude(long float64) float64 {
	return math.Mod((long+540), 360) - 180.0
}

func ConvertKilometerToMeter(x float64) float64 {
	return x * 1000
}

func ConvertMeterToKilometer(x float64) float64 {
	return x / 1000
}
