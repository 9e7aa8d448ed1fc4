package traffic

import (
	"math"
	"time"
)

// Nairobi CBD, approximated as a box around the city center.
const (
	cbdCenterLat = -1.285
	cbdCenterLng = 36.820
	cbdRadiusDeg = 0.02 // ~2km
)

// PatternEstimator produces traffic conditions from historical Nairobi rush
// patterns. It is the provider of last resort when no traffic API key is
// configured, and needs no network access.
type PatternEstimator struct {
	tz  *time.Location
	now func() time.Time
}

func NewPatternEstimator(tz *time.Location) *PatternEstimator {
	return &PatternEstimator{
		tz:  tz,
		now: time.Now,
	}
}

// Estimate returns pattern-based conditions keyed by local hour, day of week
// and whether the trip touches the CBD.
func (p *PatternEstimator) Estimate(originLat, originLng, destLat, destLng float64) *Conditions {
	local := p.now().In(p.tz)
	hour := local.Hour()
	weekday := local.Weekday()

	isCBD := p.touchesCBD(originLat, originLng) || p.touchesCBD(destLat, destLng)

	var baseRatio float64
	if weekday >= time.Monday && weekday <= time.Friday {
		switch {
		case hour >= 7 && hour <= 9:
			baseRatio = 0.7
			if isCBD {
				baseRatio = 0.5
			}
		case hour >= 17 && hour <= 19:
			baseRatio = 0.65
			if isCBD {
				baseRatio = 0.45
			}
		case hour >= 12 && hour <= 14:
			baseRatio = 0.75
		case hour >= 22 || hour <= 5:
			baseRatio = 0.95
		default:
			baseRatio = 0.8
		}
	} else {
		baseRatio = 0.85
		if hour >= 11 && hour <= 15 {
			baseRatio = 0.7
		}
	}

	return &Conditions{
		SpeedRatio:        baseRatio,
		DelayMinutes:      (1/baseRatio - 1) * 10, // estimated delay per 10 min trip
		Level:             LevelFromSpeedRatio(baseRatio),
		Incidents:         0,
		CongestionPercent: int((1 - baseRatio) * 100),
	}
}

func (p *PatternEstimator) touchesCBD(lat, lng float64) bool {
	return math.Abs(lat-cbdCenterLat) < cbdRadiusDeg && math.Abs(lng-cbdCenterLng) < cbdRadiusDeg
}
