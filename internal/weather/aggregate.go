package weather

import (
	"math"
	"time"
)

// BoundsSource records where the daily min/max of a snapshot came from.
type BoundsSource int

const (
	BoundsNative BoundsSource = iota
	BoundsHourly
	BoundsNearest
	BoundsCurrent
)

func (b BoundsSource) String() string {
	switch b {
	case BoundsNative:
		return "native"
	case BoundsHourly:
		return "hourly"
	case BoundsNearest:
		return "nearest"
	default:
		return "current"
	}
}

// sample is one provider data point in provider-local time.
type sample struct {
	At          time.Time
	Temp        float64
	Icon        string
	Description string
}

// dailyAggregate is a provider-computed min/max for one local date.
type dailyAggregate struct {
	Date     string // YYYY-MM-DD
	Min, Max float64
}

type dailyBounds struct {
	Min, Max float64
	Source   BoundsSource
}

// resolveDailyBounds picks the min/max temperature for the local day of now:
// a native aggregate for that date, else the extremes of that day's samples,
// else the sample nearest to now, else the current temperature.
func resolveDailyBounds(now time.Time, native []dailyAggregate, samples []sample, current float64) dailyBounds {
	today := now.Format("2006-01-02")
	for _, d := range native {
		if d.Date == today {
			return dailyBounds{Min: d.Min, Max: d.Max, Source: BoundsNative}
		}
	}

	var (
		lo, hi = math.Inf(1), math.Inf(-1)
		found  bool
	)
	for _, s := range samples {
		if !sameDay(s.At, now) {
			continue
		}
		lo = math.Min(lo, s.Temp)
		hi = math.Max(hi, s.Temp)
		found = true
	}
	if found {
		return dailyBounds{Min: lo, Max: hi, Source: BoundsHourly}
	}

	if n, ok := nearest(samples, now); ok {
		return dailyBounds{Min: n.Temp, Max: n.Temp, Source: BoundsNearest}
	}
	return dailyBounds{Min: current, Max: current, Source: BoundsCurrent}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// nearest returns the sample closest to t. Ties go to the earlier sample.
func nearest(samples []sample, t time.Time) (sample, bool) {
	var (
		best     sample
		bestDist time.Duration
		found    bool
	)
	for _, s := range samples {
		d := absDuration(s.At.Sub(t))
		if !found || d < bestDist || (d == bestDist && s.At.Before(best.At)) {
			best, bestDist, found = s, d, true
		}
	}
	return best, found
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// roundTemp rounds half-up to whole degrees.
func roundTemp(v float64) int {
	return int(math.Floor(v + 0.5))
}
