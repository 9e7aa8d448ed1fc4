package ml

import "strings"

// vehicleSpeedsKMH are average urban speeds by vehicle type, used by the
// comparison calculator. Unknown types get the standard speed.
var vehicleSpeedsKMH = map[string]float64{
	"economy":  22,
	"standard": 25,
	"premium":  25,
	"xl":       23,
	"bike":     30,
}

var vehicleTypeByCode = map[int]string{
	0: "economy",
	1: "standard",
	2: "premium",
	3: "xl",
	4: "bike",
}

func vehicleTypeForCode(code int) string {
	if name, ok := vehicleTypeByCode[code]; ok {
		return name
	}
	return "standard"
}

// ComparisonETA is a plain speed-based ETA in seconds for sanity-checking
// model output: distance over the vehicle's average speed degraded by a
// traffic multiplier, floored at one minute.
func ComparisonETA(distanceKM float64, vehicleType string, trafficMultiplier float64) float64 {
	speed, ok := vehicleSpeedsKMH[strings.ToLower(vehicleType)]
	if !ok {
		speed = fallbackBaseSpeedKMH
	}
	if trafficMultiplier <= 0 {
		trafficMultiplier = 1
	}

	seconds := distanceKM / (speed / trafficMultiplier) * 3600
	if seconds < minETASeconds {
		seconds = minETASeconds
	}
	return seconds
}
