package config

// ProvidersConfig holds credentials for the external condition providers.
// Empty keys disable the provider; the services degrade to patterns or
// defaults.
type ProvidersConfig struct {
	GoogleMapsAPIKey   string `yaml:"google_maps_api_key"`
	OpenWeatherAPIKey  string `yaml:"openweather_api_key"`
	OpenWeatherBaseURL string `yaml:"openweather_base_url"`
}

func loadProvidersConfig() *ProvidersConfig {
	return &ProvidersConfig{
		GoogleMapsAPIKey:   getEnv("GOOGLE_MAPS_API_KEY", ""),
		OpenWeatherAPIKey:  getEnv("OPENWEATHER_API_KEY", ""),
		OpenWeatherBaseURL: getEnv("OPENWEATHER_BASE_URL", ""),
	}
}
