package weather

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// HourlyPolicy selects how the short-term series is built.
type HourlyPolicy int

const (
	// HourlyAuto uses the provider default: from-now for OpenWeather,
	// synoptic for Open-Meteo.
	HourlyAuto HourlyPolicy = iota
	// HourlyFromNow takes up to MaxHourlyPoints samples at or after now.
	HourlyFromNow
	// HourlySynoptic takes the 00, 03, ..., 21 slots of the local day.
	HourlySynoptic
)

// synopticTolerance is how far a sample may sit from its slot.
const synopticTolerance = 30 * time.Minute

// ParseHourlyPolicy parses the HOURLY_POLICY setting.
func ParseHourlyPolicy(s string) (HourlyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default", "auto":
		return HourlyAuto, nil
	case "from_now", "fromnow":
		return HourlyFromNow, nil
	case "synoptic":
		return HourlySynoptic, nil
	default:
		return HourlyAuto, fmt.Errorf("unknown hourly policy %q", s)
	}
}

func (p HourlyPolicy) String() string {
	switch p {
	case HourlyFromNow:
		return "from_now"
	case HourlySynoptic:
		return "synoptic"
	default:
		return "auto"
	}
}

func (p HourlyPolicy) resolve(providerDefault HourlyPolicy) HourlyPolicy {
	if p == HourlyAuto {
		return providerDefault
	}
	return p
}

func buildHourly(policy HourlyPolicy, samples []sample, now time.Time) []HourlyPoint {
	sorted := make([]sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })

	if policy == HourlySynoptic {
		return synopticSeries(sorted, now)
	}
	return fromNowSeries(sorted, now)
}

func fromNowSeries(samples []sample, now time.Time) []HourlyPoint {
	out := make([]HourlyPoint, 0, MaxHourlyPoints)
	for _, s := range samples {
		if s.At.Before(now) {
			continue
		}
		out = append(out, point(s.At.Format("15:04"), s))
		if len(out) == MaxHourlyPoints {
			break
		}
	}
	return out
}

func synopticSeries(samples []sample, now time.Time) []HourlyPoint {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]HourlyPoint, 0, MaxHourlyPoints)
	for h := 0; h < 24; h += 3 {
		slot := midnight.Add(time.Duration(h) * time.Hour)
		s, ok := nearest(samples, slot)
		if !ok || absDuration(s.At.Sub(slot)) > synopticTolerance {
			continue
		}
		out = append(out, point(slot.Format("15:04"), s))
	}
	return out
}

func point(label string, s sample) HourlyPoint {
	return HourlyPoint{
		Time:        label,
		Temp:        roundTemp(s.Temp),
		Icon:        s.Icon,
		Description: s.Description,
	}
}
