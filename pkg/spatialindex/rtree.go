package spatialindex

import (
	"math"

	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

// Rtree. spatial index over route segments, leaf payload is the segment index.
type Rtree struct {
	tr   *rtree.RTreeG[SegmentEntry]
	size int
}

type SegmentEntry struct {
	id int
}

func (se SegmentEntry) GetId() int {
	return se.id
}

// Line. a segment to be indexed.
type Line struct {
	Id       int
	From, To geo.Coordinate
}

func NewRtree() *Rtree {
	var tr rtree.RTreeG[SegmentEntry]
	return &Rtree{
		tr: &tr,
	}
}

// Build. build r-tree, each leaf bounding box is the segment bbox expanded by boundingBoxRadius (in km)
func (rt *Rtree) Build(lines []Line, boundingBoxRadius float64, log *zap.Logger) {
	log.Debug("Building R-tree spatial index...", zap.Int("segments", len(lines)))
	for _, l := range lines {
		lowerFromLat, lowerFromLon := geo.GetDestinationPoint(l.From.Lat, l.From.Lon, 225, boundingBoxRadius)
		upperFromLat, upperFromLon := geo.GetDestinationPoint(l.From.Lat, l.From.Lon, 45, boundingBoxRadius)

		lowerToLat, lowerToLon := geo.GetDestinationPoint(l.To.Lat, l.To.Lon, 225, boundingBoxRadius)
		upperToLat, upperToLon := geo.GetDestinationPoint(l.To.Lat, l.To.Lon, 45, boundingBoxRadius)

		minLat := math.Min(lowerFromLat, lowerToLat)
		minLon := math.Min(lowerFromLon, lowerToLon)
		maxLat := math.Max(upperFromLat, upperToLat)
		maxLon := math.Max(upperFromLon, upperToLon)

		rt.tr.Insert([2]float64{minLon, minLat}, [2]float64{maxLon, maxLat},
			SegmentEntry{id: l.Id})
		rt.size++
	}

	log.Debug("R-tree spatial index built.")
}

func (rt *Rtree) Len() int {
	return rt.size
}

// SearchWithinRadius search for all segment ids within radius (in km) from the query point (qLat, qLon)
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []int {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)

	results := make([]int, 0, 10)
	rt.tr.Search([2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat},
		func(min, max [2]float64, data SegmentEntry) bool {
			results = append(results, data.id)
			return true
		})
	return results
}
