package datastructure

import (
	"math"
	"time"

	"github.com/lintang-b-s/navmatch/pkg/geo"
)

// GPSPoint. one raw fix from the location-sensing service.
// course < 0 means unknown, speed < 0 or NaN means unknown.
type GPSPoint struct {
	lon                float64
	lat                float64
	course             float64 // degree
	speed              float64 // meter/second
	horizontalAccuracy float64 // meter
	time               time.Time
}

func NewGPSPoint(lat, lon float64, t time.Time, speed float64) *GPSPoint {
	return &GPSPoint{
		lon:                lon,
		lat:                lat,
		time:               t,
		speed:              speed,
		course:             -1,
		horizontalAccuracy: 0,
	}
}

func NewGPSFix(lat, lon, course, speed, horizontalAccuracy float64, t time.Time) *GPSPoint {
	return &GPSPoint{
		lon:                lon,
		lat:                lat,
		course:             course,
		speed:              speed,
		horizontalAccuracy: horizontalAccuracy,
		time:               t,
	}
}

func (gp *GPSPoint) Lon() float64 {
	return gp.lon
}

func (gp *GPSPoint) Lat() float64 {
	return gp.lat
}

func (gp *GPSPoint) Coordinate() geo.Coordinate {
	return geo.NewCoordinate(gp.lat, gp.lon)
}

func (gp *GPSPoint) Time() time.Time {
	return gp.time
}

func (gp *GPSPoint) Speed() float64 {
	return gp.speed
}

func (gp *GPSPoint) Course() float64 {
	return gp.course
}

func (gp *GPSPoint) HorizontalAccuracy() float64 {
	return gp.horizontalAccuracy
}

func (gp *GPSPoint) HasCourse() bool {
	return gp.course >= 0 && !math.IsNaN(gp.course) && !math.IsInf(gp.course, 0)
}

func (gp *GPSPoint) HasValidSpeed() bool {
	return gp.speed >= 0 && !math.IsNaN(gp.speed) && !math.IsInf(gp.speed, 0)
}
