package traffic

// Level is the discretized traffic intensity.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHeavy    Level = "heavy"
	LevelSevere   Level = "severe"
)

// Encoded maps the level onto the integer scale used by the feature vector.
func (l Level) Encoded() int {
	switch l {
	case LevelLow:
		return 0
	case LevelModerate:
		return 1
	case LevelHeavy:
		return 2
	case LevelSevere:
		return 3
	default:
		return 1
	}
}

// Conditions is a normalized traffic summary between two points. Providers
// always return a fully populated value; there is no partial state.
type Conditions struct {
	SpeedRatio        float64 `json:"speed_ratio"` // freeflow time / current time, 1.0 = no slowdown
	DelayMinutes      float64 `json:"delay_minutes"`
	Level             Level   `json:"level"`
	Incidents         int     `json:"incidents"`
	CongestionPercent int     `json:"congestion"`
}

// LevelFromSpeedRatio discretizes a speed ratio into a traffic level.
func LevelFromSpeedRatio(ratio float64) Level {
	switch {
	case ratio > 0.9:
		return LevelLow
	case ratio > 0.7:
		return LevelModerate
	case ratio > 0.5:
		return LevelHeavy
	default:
		return LevelSevere
	}
}

// DefaultConditions is the deterministic summary used when every other source
// has failed: moderate traffic with a small delay.
func DefaultConditions() *Conditions {
	return &Conditions{
		SpeedRatio:        0.75,
		DelayMinutes:      5,
		Level:             LevelModerate,
		Incidents:         0,
		CongestionPercent: 25,
	}
}
