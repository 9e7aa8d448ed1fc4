package features

import (
	"math"
	"strings"
	"time"

	"goeta/internal/models"
	"goeta/internal/utils"
	"goeta/pkg/traffic"
	"goeta/pkg/weather"
)

// Nairobi CBD bounding box.
const (
	cbdMinLat = -1.295
	cbdMaxLat = -1.275
	cbdMinLng = 36.810
	cbdMaxLng = 36.830
)

// Grid resolution for location bucketing, ~1km cells at the equator.
const gridCellDegrees = 0.01

// Kenya public holidays with fixed dates (month, day).
var holidays = [][2]int{
	{1, 1},   // New Year
	{5, 1},   // Labour Day
	{6, 1},   // Madaraka Day
	{10, 10}, // Huduma Day
	{10, 20}, // Mashujaa Day
	{12, 12}, // Jamhuri Day
	{12, 25}, // Christmas
	{12, 26}, // Boxing Day
}

var vehicleEncoding = map[string]int{
	"economy":  0,
	"standard": 1,
	"premium":  2,
	"xl":       3,
	"bike":     4,
}

// Extractor derives geo-temporal features for ETA prediction. Extraction is
// pure: no I/O, deterministic for a given input.
type Extractor struct {
	tz *time.Location
}

func NewExtractor() *Extractor {
	tz, err := time.LoadLocation("Africa/Nairobi")
	if err != nil {
		tz = time.FixedZone("EAT", 3*60*60)
	}
	return &Extractor{tz: tz}
}

// Timezone returns the operating timezone used for local-time features.
func (e *Extractor) Timezone() *time.Location {
	return e.tz
}

// Extract builds the geo-temporal part of the feature vector. Traffic and
// weather features are merged in afterwards via ApplyTraffic/ApplyWeather.
func (e *Extractor) Extract(origin, destination models.Location, timestamp time.Time, vehicleType string, driverRating float64) *Vector {
	v := NewVector()

	e.extractDistanceFeatures(v, origin, destination)
	e.extractTemporalFeatures(v, timestamp)
	e.extractLocationFeatures(v, origin, destination)
	e.extractVehicleFeatures(v, vehicleType)

	if driverRating <= 0 {
		driverRating = 4.5
	}
	v.Set(DriverRating, driverRating)

	return v
}

func (e *Extractor) extractDistanceFeatures(v *Vector, origin, destination models.Location) {
	straightKM := utils.CalculateDistance(
		origin.Latitude, origin.Longitude,
		destination.Latitude, destination.Longitude,
	)
	bearing := utils.CalculateBearing(
		origin.Latitude, origin.Longitude,
		destination.Latitude, destination.Longitude,
	)

	v.Set(StraightDistanceKM, straightKM)
	v.Set(EstimatedRoadDistanceKM, straightKM*utils.RoadFactor)
	v.Set(Bearing, bearing)
	// sin/cos pair avoids the discontinuity at 0/360 degrees
	v.Set(BearingSin, math.Sin(bearing*math.Pi/180))
	v.Set(BearingCos, math.Cos(bearing*math.Pi/180))
}

func (e *Extractor) extractTemporalFeatures(v *Vector, timestamp time.Time) {
	local := timestamp.In(e.tz)

	hour := local.Hour()
	// Monday=0 .. Sunday=6
	dayOfWeek := (int(local.Weekday()) + 6) % 7

	v.Set(Hour, float64(hour))
	v.Set(HourSin, math.Sin(2*math.Pi*float64(hour)/24))
	v.Set(HourCos, math.Cos(2*math.Pi*float64(hour)/24))
	v.Set(DayOfWeek, float64(dayOfWeek))
	v.Set(DaySin, math.Sin(2*math.Pi*float64(dayOfWeek)/7))
	v.Set(DayCos, math.Cos(2*math.Pi*float64(dayOfWeek)/7))
	v.SetBool(IsWeekend, dayOfWeek >= 5)
	v.SetBool(IsRushHourMorning, hour >= 7 && hour <= 9)
	v.SetBool(IsRushHourEvening, hour >= 17 && hour <= 19)
	v.SetBool(IsNight, hour < 6 || hour > 22)
	v.SetBool(IsHoliday, isHoliday(local))
	v.Set(Month, float64(local.Month()))
	v.Set(DayOfMonth, float64(local.Day()))
}

func (e *Extractor) extractLocationFeatures(v *Vector, origin, destination models.Location) {
	originRow, originCol := gridCell(origin)
	destRow, destCol := gridCell(destination)

	v.Set(OriginCellHash, float64(cellHash(originRow, originCol)))
	v.Set(DestCellHash, float64(cellHash(destRow, destCol)))
	v.Set(CellDistance, float64(cellDistance(originRow, originCol, destRow, destCol)))

	originCBD := isInCBD(origin)
	destCBD := isInCBD(destination)
	v.SetBool(IsCBDOrigin, originCBD)
	v.SetBool(IsCBDDest, destCBD)
	v.SetBool(CrossesCBD, originCBD != destCBD)
}

func (e *Extractor) extractVehicleFeatures(v *Vector, vehicleType string) {
	vt := strings.ToLower(vehicleType)
	code, ok := vehicleEncoding[vt]
	if !ok {
		code = vehicleEncoding["standard"]
	}
	v.Set(VehicleTypeEncoded, float64(code))
	v.SetBool(IsBike, vt == "bike")
	v.SetBool(IsPremium, vt == "premium")
}

// ApplyTraffic merges a traffic summary into the vector.
func ApplyTraffic(v *Vector, c *traffic.Conditions) {
	v.Set(TrafficSpeedRatio, c.SpeedRatio)
	v.Set(TrafficDelayMinutes, c.DelayMinutes)
	v.Set(TrafficLevelEncoded, float64(c.Level.Encoded()))
	v.Set(TrafficIncidentsCount, float64(c.Incidents))
	v.Set(TrafficCongestionPercent, float64(c.CongestionPercent))
}

// ApplyWeather merges a weather summary into the vector.
func ApplyWeather(v *Vector, c *weather.Conditions) {
	v.Set(WeatherConditionEncoded, float64(c.Encoded()))
	v.SetBool(IsRaining, c.IsRaining())
	v.Set(PrecipitationMM, c.PrecipitationMM)
	v.Set(VisibilityKM, c.VisibilityKM)
	v.Set(TemperatureC, c.TemperatureC)
}

// gridCell buckets a coordinate into a fixed-resolution lat/lng cell.
func gridCell(loc models.Location) (int, int) {
	row := int(math.Floor((loc.Latitude + 90) / gridCellDegrees))
	col := int(math.Floor((loc.Longitude + 180) / gridCellDegrees))
	return row, col
}

// cellHash maps a cell to a bounded-cardinality bucket. FNV-style mixing
// keeps it deterministic across runs.
func cellHash(row, col int) int {
	h := uint64(14695981039346656037)
	for _, part := range []uint64{uint64(row), uint64(col)} {
		for i := 0; i < 8; i++ {
			h ^= (part >> (8 * i)) & 0xff
			h *= 1099511628211
		}
	}
	return int(h % 10000)
}

// cellDistance is the Chebyshev distance between two grid cells.
func cellDistance(row1, col1, row2, col2 int) int {
	dr := row1 - row2
	if dr < 0 {
		dr = -dr
	}
	dc := col1 - col2
	if dc < 0 {
		dc = -dc
	}
	if dr > dc {
		return dr
	}
	return dc
}

func isInCBD(loc models.Location) bool {
	return loc.Latitude >= cbdMinLat && loc.Latitude <= cbdMaxLat &&
		loc.Longitude >= cbdMinLng && loc.Longitude <= cbdMaxLng
}

func isHoliday(date time.Time) bool {
	for _, h := range holidays {
		if int(date.Month()) == h[0] && date.Day() == h[1] {
			return true
		}
	}
	return false
}
