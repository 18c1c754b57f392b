package online

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config. one tuning profile of the matcher.
type Config struct {
	Name string `json:"name" validate:"required"`

	SigmaDistance float64 `json:"sigma_distance" validate:"gt=0"` // meter
	SigmaHeading  float64 `json:"sigma_heading" validate:"gt=0"`  // degree
	SigmaProgress float64 `json:"sigma_progress" validate:"gt=0"` // meter

	BacktrackPenalty   float64 `json:"backtrack_penalty" validate:"gte=0"`
	JumpPenalty        float64 `json:"jump_penalty" validate:"gte=0"`
	BacktrackTolerance float64 `json:"backtrack_tolerance" validate:"gte=0"` // meter

	EmissionDistanceWeight float64 `json:"emission_distance_weight" validate:"gte=0"`
	EmissionHeadingWeight  float64 `json:"emission_heading_weight" validate:"gte=0"`

	MaxCandidates        int     `json:"max_candidates" validate:"gte=1"`
	CorridorWindowLength float64 `json:"corridor_window_length" validate:"gt=0"` // meter
	NearForkRadius       float64 `json:"near_fork_radius" validate:"gte=0"`      // meter

	DeadReckoningAccuracyThreshold float64       `json:"dead_reckoning_accuracy_threshold" validate:"gt=0"` // meter
	DeadReckoningTimeGap           time.Duration `json:"dead_reckoning_time_gap" validate:"gt=0"`
	DeadReckoningMaxDistance       float64       `json:"dead_reckoning_max_distance" validate:"gte=0"` // meter

	PositionAlpha float64 `json:"position_alpha" validate:"gt=0,lte=1"`
	HeadingAlpha  float64 `json:"heading_alpha" validate:"gt=0,lte=1"`

	BacktrackAcceptanceFrames int `json:"backtrack_acceptance_frames" validate:"gte=1"`
}

func CityConfig() Config {
	return Config{
		Name:                           CITY_PROFILE,
		SigmaDistance:                  10,
		SigmaHeading:                   45,
		SigmaProgress:                  20,
		BacktrackPenalty:               1.0,
		JumpPenalty:                    1.5,
		BacktrackTolerance:             5,
		EmissionDistanceWeight:         2.0,
		EmissionHeadingWeight:          1.0,
		MaxCandidates:                  6,
		CorridorWindowLength:           600,
		NearForkRadius:                 30,
		DeadReckoningAccuracyThreshold: 50,
		DeadReckoningTimeGap:           30 * time.Second,
		DeadReckoningMaxDistance:       80,
		PositionAlpha:                  0.22,
		HeadingAlpha:                   0.3,
		BacktrackAcceptanceFrames:      3,
	}
}

func HighwayConfig() Config {
	return Config{
		Name:                           HIGHWAY_PROFILE,
		SigmaDistance:                  15,
		SigmaHeading:                   25,
		SigmaProgress:                  40,
		BacktrackPenalty:               1.5,
		JumpPenalty:                    2.0,
		BacktrackTolerance:             10,
		EmissionDistanceWeight:         1.6,
		EmissionHeadingWeight:          1.4,
		MaxCandidates:                  4,
		CorridorWindowLength:           1500,
		NearForkRadius:                 60,
		DeadReckoningAccuracyThreshold: 65,
		DeadReckoningTimeGap:           20 * time.Second,
		DeadReckoningMaxDistance:       250,
		PositionAlpha:                  0.18,
		HeadingAlpha:                   0.2,
		BacktrackAcceptanceFrames:      4,
	}
}

// Profiles. the two presets and the speed threshold that picks between them.
type Profiles struct {
	City                  Config  `json:"city"`
	Highway               Config  `json:"highway"`
	HighwaySpeedThreshold float64 `json:"highway_speed_threshold" validate:"gt=0"` // m/s
}

func DefaultProfiles() Profiles {
	return Profiles{
		City:                  CityConfig(),
		Highway:               HighwayConfig(),
		HighwaySpeedThreshold: HIGHWAY_SPEED_THRESHOLD,
	}
}

// Select. highway strictly above the threshold, city at or below it.
func (p Profiles) Select(speed float64) Config {
	if speed > p.HighwaySpeedThreshold {
		return p.Highway
	}
	return p.City
}

func (p Profiles) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid map matcher profiles: %w", err)
	}
	return nil
}

// LoadProfiles. built-in presets overridden by viper keys MAPMATCHER_<CITY|HIGHWAY>_<FIELD>.
func LoadProfiles() (Profiles, error) {
	viper.SetDefault("MAPMATCHER_HIGHWAY_SPEED_THRESHOLD", HIGHWAY_SPEED_THRESHOLD)

	p := Profiles{
		City:                  loadConfig(CityConfig()),
		Highway:               loadConfig(HighwayConfig()),
		HighwaySpeedThreshold: viper.GetFloat64("MAPMATCHER_HIGHWAY_SPEED_THRESHOLD"),
	}
	if err := p.Validate(); err != nil {
		return Profiles{}, err
	}
	return p, nil
}

func loadConfig(def Config) Config {
	prefix := "MAPMATCHER_" + strings.ToUpper(def.Name) + "_"
	key := func(field string) string {
		return prefix + field
	}

	viper.SetDefault(key("SIGMA_DISTANCE"), def.SigmaDistance)
	viper.SetDefault(key("SIGMA_HEADING"), def.SigmaHeading)
	viper.SetDefault(key("SIGMA_PROGRESS"), def.SigmaProgress)
	viper.SetDefault(key("BACKTRACK_PENALTY"), def.BacktrackPenalty)
	viper.SetDefault(key("JUMP_PENALTY"), def.JumpPenalty)
	viper.SetDefault(key("BACKTRACK_TOLERANCE"), def.BacktrackTolerance)
	viper.SetDefault(key("EMISSION_DISTANCE_WEIGHT"), def.EmissionDistanceWeight)
	viper.SetDefault(key("EMISSION_HEADING_WEIGHT"), def.EmissionHeadingWeight)
	viper.SetDefault(key("MAX_CANDIDATES"), def.MaxCandidates)
	viper.SetDefault(key("CORRIDOR_WINDOW_LENGTH"), def.CorridorWindowLength)
	viper.SetDefault(key("NEAR_FORK_RADIUS"), def.NearForkRadius)
	viper.SetDefault(key("DEAD_RECKONING_ACCURACY_THRESHOLD"), def.DeadReckoningAccuracyThreshold)
	viper.SetDefault(key("DEAD_RECKONING_TIME_GAP"), def.DeadReckoningTimeGap)
	viper.SetDefault(key("DEAD_RECKONING_MAX_DISTANCE"), def.DeadReckoningMaxDistance)
	viper.SetDefault(key("POSITION_ALPHA"), def.PositionAlpha)
	viper.SetDefault(key("HEADING_ALPHA"), def.HeadingAlpha)
	viper.SetDefault(key("BACKTRACK_ACCEPTANCE_FRAMES"), def.BacktrackAcceptanceFrames)

	return Config{
		Name:                           def.Name,
		SigmaDistance:                  viper.GetFloat64(key("SIGMA_DISTANCE")),
		SigmaHeading:                   viper.GetFloat64(key("SIGMA_HEADING")),
		SigmaProgress:                  viper.GetFloat64(key("SIGMA_PROGRESS")),
		BacktrackPenalty:               viper.GetFloat64(key("BACKTRACK_PENALTY")),
		JumpPenalty:                    viper.GetFloat64(key("JUMP_PENALTY")),
		BacktrackTolerance:             viper.GetFloat64(key("BACKTRACK_TOLERANCE")),
		EmissionDistanceWeight:         viper.GetFloat64(key("EMISSION_DISTANCE_WEIGHT")),
		EmissionHeadingWeight:          viper.GetFloat64(key("EMISSION_HEADING_WEIGHT")),
		MaxCandidates:                  viper.GetInt(key("MAX_CANDIDATES")),
		CorridorWindowLength:           viper.GetFloat64(key("CORRIDOR_WINDOW_LENGTH")),
		NearForkRadius:                 viper.GetFloat64(key("NEAR_FORK_RADIUS")),
		DeadReckoningAccuracyThreshold: viper.GetFloat64(key("DEAD_RECKONING_ACCURACY_THRESHOLD")),
		DeadReckoningTimeGap:           viper.GetDuration(key("DEAD_RECKONING_TIME_GAP")),
		DeadReckoningMaxDistance:       viper.GetFloat64(key("DEAD_RECKONING_MAX_DISTANCE")),
		PositionAlpha:                  viper.GetFloat64(key("POSITION_ALPHA")),
		HeadingAlpha:                   viper.GetFloat64(key("HEADING_ALPHA")),
		BacktrackAcceptanceFrames:      viper.GetInt(key("BACKTRACK_ACCEPTANCE_FRAMES")),
	}
}
