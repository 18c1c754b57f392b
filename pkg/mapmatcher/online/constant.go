package online

import "math"

const (
	HIGHWAY_SPEED_THRESHOLD = 19.4 // m/s, 70 km/h
	MAX_SPEED               = 55.0 // m/s, gps speed spikes above this are clamped
	MIN_RATE_ELAPSED        = 0.2  // second, floor for rate dependent formulas

	DEAD_RECKONING_CONFIDENCE_DECAY = 0.1
	DEAD_RECKONING_BLEND_DURATION   = 0.75 // second

	EXPECTED_DISPLACEMENT_LOWER = 0.5
	EXPECTED_DISPLACEMENT_UPPER = 1.5
	SMOOTHING_STEP_FACTOR       = 1.5
	MIN_SMOOTHING_STEP          = 1.0 // meter

	FORK_DISTANCE_WEIGHT_FACTOR = 0.6
	FORK_HEADING_WEIGHT_FACTOR  = 1.2

	CORRIDOR_REACQUIRE_DISTANCE = 60.0 // meter, in-window hit farther than this triggers a full route search
	RTREE_LEAF_RADIUS           = 0.01 // km
	RTREE_SEARCH_RADIUS         = 0.25 // km
	CORRIDOR_LENGTH_EPSILON     = 1e-3 // meter

	// half width of the r-tree query box, its corners lie RTREE_SEARCH_RADIUS away on the diagonals.
	rtreeExactRadius = RTREE_SEARCH_RADIUS * 1000 / math.Sqrt2 // meter

	CITY_PROFILE    = "city"
	HIGHWAY_PROFILE = "highway"
)
