package trace

import (
	"os"

	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func toOrbPoint(c geo.Coordinate) orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

func toLineString(path []geo.Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(path))
	for _, c := range path {
		ls = append(ls, toOrbPoint(c))
	}
	return ls
}

/*
FeatureCollection. matched output as geojson:
  - "route": route polyline
  - "matched_path": emitted coordinates in order
  - "location": one point per EnhancedLocation with its heading, speed, confidence, progress
  - "fix": raw fixes (optional)
*/
func FeatureCollection(route *datastructure.Route, fixes []*datastructure.GPSPoint,
	locations []online.EnhancedLocation) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if points := route.Points(); len(points) >= 2 {
		f := geojson.NewFeature(toLineString(points))
		f.Properties["kind"] = "route"
		fc.Append(f)
	}

	if len(locations) >= 2 {
		path := make([]geo.Coordinate, len(locations))
		for i, loc := range locations {
			path[i] = loc.Coordinate
		}
		f := geojson.NewFeature(toLineString(path))
		f.Properties["kind"] = "matched_path"
		fc.Append(f)
	}

	for i, loc := range locations {
		f := geojson.NewFeature(toOrbPoint(loc.Coordinate))
		f.Properties["kind"] = "location"
		f.Properties["seq"] = i
		f.Properties["timestamp"] = loc.Timestamp
		f.Properties["speed"] = loc.Speed
		f.Properties["confidence"] = loc.Confidence
		f.Properties["dead_reckoned"] = loc.DeadReckoned
		f.Properties["progress"] = loc.MatchedCandidate.Progress
		f.Properties["segment"] = loc.MatchedCandidate.SegmentIndex
		if loc.Heading != nil {
			f.Properties["heading"] = *loc.Heading
		}
		fc.Append(f)
	}

	for i, fix := range fixes {
		if fix == nil || !fix.Coordinate().IsValid() {
			continue
		}
		f := geojson.NewFeature(toOrbPoint(fix.Coordinate()))
		f.Properties["kind"] = "fix"
		f.Properties["seq"] = i
		f.Properties["accuracy"] = fix.HorizontalAccuracy()
		fc.Append(f)
	}
	return fc
}

func WriteGeoJSON(filename string, fc *geojson.FeatureCollection) error {
	bb, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(filename, bb, 0o644)
}
