// Package aqi computes US EPA Air Quality Index values from pollutant
// concentrations. Index values are derived by linear interpolation within
// per-pollutant breakpoint tables, and multi-pollutant readings combine to
// an overall index under the "worst pollutant wins" rule.
package aqi

import (
	"fmt"
	"math"
	"sort"
)

// Pollutant identifies a pollutant with a configured breakpoint table.
type Pollutant int

const (
	PM25 Pollutant = iota
	PM10
	CO
)

func (p Pollutant) String() string {
	switch p {
	case PM25:
		return "pm25"
	case PM10:
		return "pm10"
	case CO:
		return "co"
	}
	return fmt.Sprintf("pollutant(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler so that Pollutant may be
// used as a JSON map key.
func (p Pollutant) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pollutant) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pm25":
		*p = PM25
	case "pm10":
		*p = PM10
	case "co":
		*p = CO
	default:
		return fmt.Errorf("unknown pollutant %q", text)
	}
	return nil
}

// Severity is an AQI category. The zero value is OutOfRange; the remaining
// values are ordered from least to most severe.
type Severity int

const (
	OutOfRange Severity = iota
	Good
	Moderate
	UnhealthyForSensitive
	Unhealthy
	VeryUnhealthy
	Hazardous
)

// String returns the canonical category name. Downstream consumers match on
// these exact strings, so they must not change.
func (s Severity) String() string {
	switch s {
	case Good:
		return "Good"
	case Moderate:
		return "Moderate"
	case UnhealthyForSensitive:
		return "UnhealthyForSensitive"
	case Unhealthy:
		return "Unhealthy"
	case VeryUnhealthy:
		return "VeryUnhealthy"
	case Hazardous:
		return "Hazardous"
	}
	return "OutOfRange"
}

// MarshalText implements encoding.TextMarshaler so that Severity values
// serialize as their canonical names.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Good":
		*s = Good
	case "Moderate":
		*s = Moderate
	case "UnhealthyForSensitive":
		*s = UnhealthyForSensitive
	case "Unhealthy":
		*s = Unhealthy
	case "VeryUnhealthy":
		*s = VeryUnhealthy
	case "Hazardous":
		*s = Hazardous
	case "OutOfRange":
		*s = OutOfRange
	default:
		return fmt.Errorf("unknown severity %q", text)
	}
	return nil
}

// DefaultColor is the color tag reported when a concentration falls outside
// every configured segment.
const DefaultColor = "#000000"

// Color returns the canonical hex color tag for the category. Like the
// category names, these are fixed strings that consumers depend on.
func (s Severity) Color() string {
	switch s {
	case Good:
		return "#00E400"
	case Moderate:
		return "#FFFF00"
	case UnhealthyForSensitive:
		return "#FF7E00"
	case Unhealthy:
		return "#FF0000"
	case VeryUnhealthy:
		return "#99004C"
	case Hazardous:
		return "#7E0023"
	}
	return DefaultColor
}

// Segment maps a concentration range onto an index range. A pollutant's
// table is an ascending, non-overlapping sequence of segments.
type Segment struct {
	CLow     float64
	CHigh    float64
	ILow     int
	IHigh    int
	Category Severity
	Color    string
}

var tables = map[Pollutant][]Segment{
	// PM2.5 in µg/m³.
	PM25: {
		{0, 12, 0, 50, Good, "#00E400"},
		{12.1, 35.4, 51, 100, Moderate, "#FFFF00"},
		{35.5, 55.4, 101, 150, UnhealthyForSensitive, "#FF7E00"},
		{55.5, 150.4, 151, 200, Unhealthy, "#FF0000"},
		{150.5, 250.4, 201, 300, VeryUnhealthy, "#99004C"},
		{250.5, 500.4, 301, 500, Hazardous, "#7E0023"},
	},

	// PM10 in µg/m³.
	PM10: {
		{0, 54, 0, 50, Good, "#00E400"},
		{55, 154, 51, 100, Moderate, "#FFFF00"},
		{155, 254, 101, 150, UnhealthyForSensitive, "#FF7E00"},
		{255, 354, 151, 200, Unhealthy, "#FF0000"},
		{355, 424, 201, 300, VeryUnhealthy, "#99004C"},
		{425, 604, 301, 500, Hazardous, "#7E0023"},
	},

	// CO in ppm.
	CO: {
		{0, 4.4, 0, 50, Good, "#00E400"},
		{4.5, 9.4, 51, 100, Moderate, "#FFFF00"},
		{9.5, 12.4, 101, 150, UnhealthyForSensitive, "#FF7E00"},
		{12.5, 15.4, 151, 200, Unhealthy, "#FF0000"},
		{15.5, 30.4, 201, 300, VeryUnhealthy, "#99004C"},
		{30.5, 50.4, 301, 500, Hazardous, "#7E0023"},
	},
}

func init() {
	// A malformed table is a programmer error, not a runtime condition, so
	// refuse to start rather than silently mis-interpolate.
	for p, segs := range tables {
		if err := Validate(segs); err != nil {
			panic(fmt.Sprintf("aqi: invalid breakpoint table for %v: %v", p, err))
		}
	}
}

// Validate checks that a breakpoint table is ordered ascending, free of
// overlapping or degenerate segments, and monotonically increasing in both
// concentration and index.
func Validate(segs []Segment) error {
	if len(segs) == 0 {
		return fmt.Errorf("table is empty")
	}

	for i, s := range segs {
		if s.CLow >= s.CHigh {
			return fmt.Errorf("segment %d: degenerate concentration range [%v, %v]", i, s.CLow, s.CHigh)
		}
		if s.ILow >= s.IHigh {
			return fmt.Errorf("segment %d: index range [%d, %d] must increase", i, s.ILow, s.IHigh)
		}

		if i == 0 {
			continue
		}
		prev := segs[i-1]
		if s.CLow <= prev.CHigh {
			return fmt.Errorf("segment %d: concentration %v overlaps previous segment ending at %v", i, s.CLow, prev.CHigh)
		}
		if s.ILow <= prev.IHigh {
			return fmt.Errorf("segment %d: index %d overlaps previous segment ending at %d", i, s.ILow, prev.IHigh)
		}
	}

	return nil
}

// Pollutants returns the pollutants with configured breakpoint tables, in a
// fixed order.
func Pollutants() []Pollutant {
	ps := make([]Pollutant, 0, len(tables))
	for p := range tables {
		ps = append(ps, p)
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })
	return ps
}

// Table returns a copy of the breakpoint table for the given pollutant.
func Table(p Pollutant) ([]Segment, bool) {
	segs, ok := tables[p]
	if !ok {
		return nil, false
	}
	return append([]Segment(nil), segs...), true
}

// Result is the index derived for a single pollutant concentration. When the
// concentration falls outside every segment of the table, Valid is false,
// Index is meaningless, and Category is OutOfRange. That is a normal outcome
// for extreme sensor values, not an error.
type Result struct {
	Index    int      `json:"index"`
	Valid    bool     `json:"valid"`
	Category Severity `json:"category"`
	Color    string   `json:"color"`
}

func scale(c float64, s Segment) int {
	v := float64(s.IHigh-s.ILow)/(s.CHigh-s.CLow)*(c-s.CLow) + float64(s.ILow)
	return int(math.Round(v))
}

func calculate(c float64, segs []Segment) Result {
	for _, s := range segs {
		if s.CLow <= c && c <= s.CHigh {
			return Result{
				Index:    scale(c, s),
				Valid:    true,
				Category: s.Category,
				Color:    s.Color,
			}
		}
	}

	return Result{Category: OutOfRange, Color: DefaultColor}
}

// Calculate returns the AQI for the given concentration of pollutant p. It is
// a pure function of its arguments and the immutable breakpoint tables, and
// is safe for concurrent use.
func Calculate(p Pollutant, c float64) Result {
	segs, ok := tables[p]
	if !ok {
		return Result{Category: OutOfRange, Color: DefaultColor}
	}
	return calculate(c, segs)
}

// Classify maps a combined index onto the general AQI severity bands. Values
// outside [0, 500] classify as OutOfRange.
func Classify(index int) Severity {
	switch {
	case index < 0:
		return OutOfRange
	case index <= 50:
		return Good
	case index <= 100:
		return Moderate
	case index <= 150:
		return UnhealthyForSensitive
	case index <= 200:
		return Unhealthy
	case index <= 300:
		return VeryUnhealthy
	case index <= 500:
		return Hazardous
	}
	return OutOfRange
}

// CompositeResult is the outcome of combining every pollutant present in a
// reading. Overall is the maximum defined per-pollutant index, reclassified
// against the general severity bands. Reclassification is a separate step
// from picking the maximum: the overall category derives from the combined
// numeric index, not from the worst per-pollutant category.
type CompositeResult struct {
	PerPollutant map[Pollutant]Result `json:"per_pollutant"`
	Overall      Result               `json:"overall"`
}

// Combine derives per-pollutant results for every concentration with a
// configured table and reduces them to one overall result. Pollutants absent
// from the map are simply excluded. If no pollutant yields a defined index
// the overall result is OutOfRange.
func Combine(concentrations map[Pollutant]float64) CompositeResult {
	per := make(map[Pollutant]Result, len(concentrations))

	maxIndex := 0
	defined := false
	for p, c := range concentrations {
		if _, ok := tables[p]; !ok {
			continue
		}

		r := Calculate(p, c)
		per[p] = r

		if r.Valid && (!defined || r.Index > maxIndex) {
			maxIndex = r.Index
			defined = true
		}
	}

	overall := Result{Category: OutOfRange, Color: DefaultColor}
	if defined {
		cat := Classify(maxIndex)
		overall = Result{
			Index:    maxIndex,
			Valid:    true,
			Category: cat,
			Color:    cat.Color(),
		}
	}

	return CompositeResult{PerPollutant: per, Overall: overall}
}
