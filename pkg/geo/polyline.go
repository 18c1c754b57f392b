package geo

import (
	"github.com/twpayne/go-polyline"
)

// PolylineFromCoords. encode coordinates with precision 5 (google encoded polyline).
func PolylineFromCoords(path []Coordinate) string {
	coords := make([][]float64, 0, len(path))
	for _, p := range path {
		coords = append(coords, []float64{p.Lat, p.Lon})
	}
	return string(polyline.EncodeCoords(coords))
}

// CoordsFromPolyline. decode a precision 5 encoded polyline.
func CoordsFromPolyline(encoded string) ([]Coordinate, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	path := make([]Coordinate, 0, len(coords))
	for _, c := range coords {
		path = append(path, NewCoordinate(c[0], c[1]))
	}
	return path, nil
}

// PathLength. sum of haversine lengths in meter
func PathLength(path []Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += HaversineMeter(path[i-1], path[i])
	}
	return total
}
