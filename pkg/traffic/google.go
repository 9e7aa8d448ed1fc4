package traffic

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GoogleProvider derives traffic conditions from the Google Distance Matrix
// API by comparing freeflow duration with duration in current traffic.
type GoogleProvider struct {
	client *maps.Client
}

func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleProvider{client: client}, nil
}

func (g *GoogleProvider) GetConditions(ctx context.Context, originLat, originLng, destLat, destLng float64) (*Conditions, error) {
	req := &maps.DistanceMatrixRequest{
		Origins:       []string{fmt.Sprintf("%f,%f", originLat, originLng)},
		Destinations:  []string{fmt.Sprintf("%f,%f", destLat, destLng)},
		Mode:          maps.TravelModeDriving,
		DepartureTime: "now",
		TrafficModel:  maps.TrafficModelBestGuess,
	}

	resp, err := g.client.DistanceMatrix(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("distance matrix request failed: %w", err)
	}

	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("distance matrix returned no elements")
	}

	element := resp.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil, fmt.Errorf("distance matrix element status: %s", element.Status)
	}

	freeflow := element.Duration.Seconds()
	inTraffic := element.DurationInTraffic.Seconds()
	if inTraffic <= 0 {
		inTraffic = freeflow
	}

	speedRatio := 1.0
	delayMinutes := 0.0
	if freeflow > 0 && inTraffic > 0 {
		speedRatio = freeflow / inTraffic
		delayMinutes = (inTraffic - freeflow) / 60
	}
	if delayMinutes < 0 {
		delayMinutes = 0
	}
	if speedRatio > 1.0 {
		speedRatio = 1.0
	}

	return &Conditions{
		SpeedRatio:        speedRatio,
		DelayMinutes:      delayMinutes,
		Level:             LevelFromSpeedRatio(speedRatio),
		Incidents:         0,
		CongestionPercent: int((1 - speedRatio) * 100),
	}, nil
}
