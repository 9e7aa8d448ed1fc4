package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider fetches current weather conditions at a coordinate.
type Provider interface {
	GetCurrent(ctx context.Context, lat, lng float64) (*Conditions, error)
}

// OpenWeatherProvider calls the OpenWeatherMap current-weather API.
type OpenWeatherProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

func NewOpenWeatherProvider(apiKey, baseURL string) *OpenWeatherProvider {
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5"
	}

	return &OpenWeatherProvider{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
	}
}

func (p *OpenWeatherProvider) GetCurrent(ctx context.Context, lat, lng float64) (*Conditions, error) {
	apiURL := fmt.Sprintf("%s/weather?lat=%f&lon=%f&appid=%s&units=metric",
		p.baseURL, lat, lng, p.apiKey)

	req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenWeatherMap API error: %s", string(body))
	}

	var owmResp struct {
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Rain struct {
			OneHour float64 `json:"1h"`
		} `json:"rain"`
		Visibility float64 `json:"visibility"` // meters
		Wind       struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}

	if err := json.Unmarshal(body, &owmResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	conditions := DefaultConditions()
	if len(owmResp.Weather) > 0 {
		conditions.Condition = owmResp.Weather[0].Main
		conditions.Description = owmResp.Weather[0].Description
	}
	conditions.TemperatureC = owmResp.Main.Temp
	conditions.Humidity = owmResp.Main.Humidity
	conditions.PrecipitationMM = owmResp.Rain.OneHour
	conditions.WindSpeedMS = owmResp.Wind.Speed
	if owmResp.Visibility > 0 {
		conditions.VisibilityKM = owmResp.Visibility / 1000
	}

	return conditions, nil
}
