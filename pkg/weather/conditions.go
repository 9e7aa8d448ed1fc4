package weather

import "strings"

// Conditions is a normalized weather summary at a location. Providers always
// return a fully populated value.
type Conditions struct {
	Condition       string  `json:"condition"`
	Description     string  `json:"description"`
	TemperatureC    float64 `json:"temperature_c"`
	Humidity        float64 `json:"humidity"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	VisibilityKM    float64 `json:"visibility_km"`
	WindSpeedMS     float64 `json:"wind_speed"`
}

// DefaultConditions is clear weather, used when no provider is configured or
// every source has failed.
func DefaultConditions() *Conditions {
	return &Conditions{
		Condition:       "clear",
		Description:     "clear sky",
		TemperatureC:    25,
		Humidity:        50,
		PrecipitationMM: 0,
		VisibilityKM:    10,
		WindSpeedMS:     5,
	}
}

// IsRaining reports whether the condition describes rainfall.
func (c *Conditions) IsRaining() bool {
	return strings.Contains(strings.ToLower(c.Condition), "rain")
}

// Encoded maps the condition onto the integer scale used by the feature vector.
func (c *Conditions) Encoded() int {
	condition := strings.ToLower(c.Condition)
	switch {
	case strings.Contains(condition, "clear"), strings.Contains(condition, "sunny"):
		return 0
	case strings.Contains(condition, "cloud"):
		return 1
	case strings.Contains(condition, "rain"):
		if strings.Contains(condition, "heavy") {
			return 2
		}
		return 1
	case strings.Contains(condition, "storm"):
		return 3
	default:
		return 0
	}
}

// ImpactMultiplier estimates how much these conditions slow a trip down.
// Clear weather returns 1.0; rain, storms and poor visibility push it up.
func (c *Conditions) ImpactMultiplier() float64 {
	condition := strings.ToLower(c.Condition)
	multiplier := 1.0

	if strings.Contains(condition, "rain") {
		if c.PrecipitationMM > 10 {
			multiplier *= 1.3
		} else {
			multiplier *= 1.15
		}
	} else if strings.Contains(condition, "storm") || strings.Contains(condition, "thunder") {
		multiplier *= 1.5
	}

	if c.VisibilityKM < 1 {
		multiplier *= 1.3
	} else if c.VisibilityKM < 3 {
		multiplier *= 1.1
	}

	return multiplier
}
