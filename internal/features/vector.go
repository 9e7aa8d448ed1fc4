package features

// Name identifies a single feature in the prediction vector.
type Name string

const (
	// Distance
	StraightDistanceKM      Name = "straight_distance_km"
	EstimatedRoadDistanceKM Name = "estimated_road_distance_km"
	Bearing                 Name = "bearing"
	BearingSin              Name = "bearing_sin"
	BearingCos              Name = "bearing_cos"

	// Temporal
	Hour              Name = "hour"
	HourSin           Name = "hour_sin"
	HourCos           Name = "hour_cos"
	DayOfWeek         Name = "day_of_week"
	DaySin            Name = "day_sin"
	DayCos            Name = "day_cos"
	IsWeekend         Name = "is_weekend"
	IsRushHourMorning Name = "is_rush_hour_morning"
	IsRushHourEvening Name = "is_rush_hour_evening"
	IsNight           Name = "is_night"
	IsHoliday         Name = "is_holiday"
	Month             Name = "month"
	DayOfMonth        Name = "day_of_month"

	// Traffic
	TrafficSpeedRatio        Name = "traffic_speed_ratio"
	TrafficDelayMinutes      Name = "traffic_delay_minutes"
	TrafficLevelEncoded      Name = "traffic_level_encoded"
	TrafficIncidentsCount    Name = "traffic_incidents_count"
	TrafficCongestionPercent Name = "traffic_congestion_percent"

	// Weather
	WeatherConditionEncoded Name = "weather_condition_encoded"
	IsRaining               Name = "is_raining"
	PrecipitationMM         Name = "precipitation_mm"
	VisibilityKM            Name = "visibility_km"
	TemperatureC            Name = "temperature_c"

	// Location
	OriginCellHash Name = "origin_cell_hash"
	DestCellHash   Name = "dest_cell_hash"
	CellDistance   Name = "cell_distance"
	IsCBDOrigin    Name = "is_cbd_origin"
	IsCBDDest      Name = "is_cbd_dest"
	CrossesCBD     Name = "crosses_cbd"

	// Vehicle
	VehicleTypeEncoded Name = "vehicle_type_encoded"
	IsBike             Name = "is_bike"
	IsPremium          Name = "is_premium"

	// Driver
	DriverRating Name = "driver_rating"
)

// ModelOrder is the fixed feature order the regression model is trained on
// and invoked with. Features absent from a vector default to zero at the
// model boundary.
var ModelOrder = []Name{
	StraightDistanceKM,
	EstimatedRoadDistanceKM,
	BearingSin,
	BearingCos,
	Hour,
	HourSin,
	HourCos,
	DayOfWeek,
	DaySin,
	DayCos,
	IsWeekend,
	IsRushHourMorning,
	IsRushHourEvening,
	IsNight,
	IsHoliday,
	TrafficSpeedRatio,
	TrafficDelayMinutes,
	TrafficLevelEncoded,
	TrafficIncidentsCount,
	TrafficCongestionPercent,
	WeatherConditionEncoded,
	IsRaining,
	PrecipitationMM,
	VisibilityKM,
	IsCBDOrigin,
	IsCBDDest,
	CrossesCBD,
	CellDistance,
	VehicleTypeEncoded,
	IsBike,
	DriverRating,
}

// ModelFeatureNames returns ModelOrder as plain strings, for API consumers
// and the training job.
func ModelFeatureNames() []string {
	names := make([]string, len(ModelOrder))
	for i, n := range ModelOrder {
		names[i] = string(n)
	}
	return names
}

// Vector is a typed feature bag. Reads of unset features return zero, so the
// "missing defaults to 0" rule is applied uniformly.
type Vector struct {
	values map[Name]float64
}

func NewVector() *Vector {
	return &Vector{values: make(map[Name]float64, len(ModelOrder))}
}

func (v *Vector) Set(name Name, value float64) {
	v.values[name] = value
}

func (v *Vector) SetBool(name Name, value bool) {
	if value {
		v.values[name] = 1
	} else {
		v.values[name] = 0
	}
}

func (v *Vector) Get(name Name) float64 {
	return v.values[name]
}

func (v *Vector) Has(name Name) bool {
	_, ok := v.values[name]
	return ok
}

func (v *Vector) Len() int {
	return len(v.values)
}

// Ordered flattens the vector into the model's fixed feature order, filling
// missing entries with zero.
func (v *Vector) Ordered() []float64 {
	out := make([]float64, len(ModelOrder))
	for i, name := range ModelOrder {
		out[i] = v.values[name]
	}
	return out
}
