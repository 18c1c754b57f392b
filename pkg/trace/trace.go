package trace

import (
	"bufio"
	"encoding/json"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dsnet/compress/bzip2"
	"github.com/lintang-b-s/navmatch/pkg/datastructure"
	"github.com/lintang-b-s/navmatch/pkg/geo"
	"github.com/lintang-b-s/navmatch/pkg/util"
)

// StepRecord. one route instruction, geometry given either as points or as a precision 5 encoded polyline.
type StepRecord struct {
	Points      []geo.Coordinate `json:"points,omitempty" validate:"omitempty,dive"`
	Polyline    string           `json:"polyline,omitempty"`
	Distance    float64          `json:"distance,omitempty" validate:"gte=0"` // meter
	Instruction string           `json:"instruction,omitempty"`
}

type RouteRecord struct {
	Steps []StepRecord `json:"steps" validate:"required,dive"`
}

// ToRoute. polyline wins over points when both are set.
func (rr RouteRecord) ToRoute() (*datastructure.Route, error) {
	steps := make([]datastructure.RouteStep, 0, len(rr.Steps))
	for i, s := range rr.Steps {
		if s.Polyline == "" {
			steps = append(steps, datastructure.NewRouteStep(s.Points, s.Distance, s.Instruction))
			continue
		}
		step, err := datastructure.NewRouteStepFromPolyline(s.Polyline, s.Distance, s.Instruction)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrBadParamInput, "step %d", i)
		}
		steps = append(steps, step)
	}
	return datastructure.NewRoute(steps), nil
}

// FixRecord. raw fix as recorded. missing course or speed means unknown.
type FixRecord struct {
	Lat      float64   `json:"lat" validate:"min=-90,max=90"`
	Lon      float64   `json:"lon" validate:"min=-180,max=180"`
	Course   *float64  `json:"course,omitempty"`
	Speed    *float64  `json:"speed,omitempty"`
	Accuracy float64   `json:"accuracy"`
	Time     time.Time `json:"time" validate:"required"`
}

func (fr FixRecord) ToGPSPoint() *datastructure.GPSPoint {
	course, speed := -1.0, math.NaN()
	if fr.Course != nil {
		course = *fr.Course
	}
	if fr.Speed != nil {
		speed = *fr.Speed
	}
	return datastructure.NewGPSFix(fr.Lat, fr.Lon, course, speed, fr.Accuracy, fr.Time)
}

func NewFixRecord(p *datastructure.GPSPoint) FixRecord {
	fr := FixRecord{
		Lat:      p.Lat(),
		Lon:      p.Lon(),
		Accuracy: p.HorizontalAccuracy(),
		Time:     p.Time(),
	}
	if p.HasCourse() {
		course := p.Course()
		fr.Course = &course
	}
	if p.HasValidSpeed() {
		speed := p.Speed()
		fr.Speed = &speed
	}
	return fr
}

func ToGPSPoints(records []FixRecord) []*datastructure.GPSPoint {
	fixes := make([]*datastructure.GPSPoint, len(records))
	for i, r := range records {
		fixes[i] = r.ToGPSPoint()
	}
	return fixes
}

// Trace. a recorded drive: the route that was active and the raw fixes in arrival order.
type Trace struct {
	Name  string      `json:"name,omitempty"`
	Route RouteRecord `json:"route"`
	Fixes []FixRecord `json:"fixes"`
}

func Decode(r io.Reader) (*Trace, error) {
	t := &Trace{}
	if err := json.NewDecoder(r).Decode(t); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid trace")
	}
	return t, nil
}

func Encode(w io.Writer, t *Trace) error {
	return json.NewEncoder(w).Encode(t)
}

func isCompressed(filename string) bool {
	return strings.HasSuffix(filename, ".bz2")
}

// ReadTrace. json trace file, bzip2 compressed when the name ends with .bz2.
func ReadTrace(filename string) (*Trace, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if isCompressed(filename) {
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			return nil, err
		}
		defer bz.Close()
		r = bz
	}

	t, err := Decode(bufio.NewReader(r))
	if err != nil {
		return nil, err
	}
	if t.Name == "" {
		t.Name = traceName(filename)
	}
	return t, nil
}

func WriteTrace(filename string, t *Trace) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if !isCompressed(filename) {
		w := bufio.NewWriter(f)
		if err := Encode(w, t); err != nil {
			return err
		}
		return w.Flush()
	}

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	w := bufio.NewWriter(bz)
	if err := Encode(w, t); err != nil {
		bz.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		bz.Close()
		return err
	}
	return bz.Close()
}

func traceName(filename string) string {
	base := filename
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(base, ".bz2")
	return strings.TrimSuffix(base, ".json")
}
