package controllers

import (
	"time"

	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"github.com/lintang-b-s/navmatch/pkg/trace"
)

type matchTraceRequest struct {
	Route trace.RouteRecord `json:"route"`
	Fixes []trace.FixRecord `json:"fixes" validate:"required,min=1,dive"`
}

const (
	messageRoute = "route"
	messageFix   = "fix"
	messageReset = "reset"
)

// wsMessage. client -> server websocket message.
type wsMessage struct {
	Type  string             `json:"type" validate:"required,oneof=route fix reset"`
	Route *trace.RouteRecord `json:"route,omitempty" validate:"required_if=Type route"`
	Fix   *trace.FixRecord   `json:"fix,omitempty" validate:"required_if=Type fix"`
}

type locationResponse struct {
	Lat                    float64   `json:"lat"`
	Lon                    float64   `json:"lon"`
	Heading                *float64  `json:"heading,omitempty"`
	Speed                  float64   `json:"speed"`
	Timestamp              time.Time `json:"timestamp"`
	Confidence             float64   `json:"confidence"`
	DeadReckoned           bool      `json:"dead_reckoned"`
	Progress               float64   `json:"progress"`
	SegmentIndex           int       `json:"segment_index"`
	StepIndex              int       `json:"step_index"`
	DistanceFromRoute      float64   `json:"distance_from_route"`
	DistanceToNextManeuver float64   `json:"distance_to_next_maneuver"`
}

func NewLocationResponse(loc online.EnhancedLocation) locationResponse {
	return locationResponse{
		Lat:                    loc.Coordinate.Lat,
		Lon:                    loc.Coordinate.Lon,
		Heading:                loc.Heading,
		Speed:                  loc.Speed,
		Timestamp:              loc.Timestamp,
		Confidence:             loc.Confidence,
		DeadReckoned:           loc.DeadReckoned,
		Progress:               loc.MatchedCandidate.Progress,
		SegmentIndex:           loc.MatchedCandidate.SegmentIndex,
		StepIndex:              loc.MatchedCandidate.StepIndex,
		DistanceFromRoute:      loc.MatchedCandidate.DistanceFromRoute,
		DistanceToNextManeuver: loc.MatchedCandidate.DistanceToNextManeuver,
	}
}

type matchTraceResponse struct {
	Locations []locationResponse `json:"locations"`
	Path      string             `json:"path"`
}

func NewMatchTraceResponse(locations []online.EnhancedLocation, path string) matchTraceResponse {
	resp := matchTraceResponse{
		Locations: make([]locationResponse, len(locations)),
		Path:      path,
	}
	for i, loc := range locations {
		resp.Locations[i] = NewLocationResponse(loc)
	}
	return resp
}

type profileResponse struct {
	online.Config
	DeadReckoningTimeGapSeconds float64 `json:"dead_reckoning_time_gap_seconds"`
}

type profilesResponse struct {
	City                  profileResponse `json:"city"`
	Highway               profileResponse `json:"highway"`
	HighwaySpeedThreshold float64         `json:"highway_speed_threshold"`
}

func NewProfilesResponse(p online.Profiles) profilesResponse {
	toResp := func(cfg online.Config) profileResponse {
		return profileResponse{Config: cfg, DeadReckoningTimeGapSeconds: cfg.DeadReckoningTimeGap.Seconds()}
	}
	return profilesResponse{
		City:                  toResp(p.City),
		Highway:               toResp(p.Highway),
		HighwaySpeedThreshold: p.HighwaySpeedThreshold,
	}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
