package traffic

import "context"

// Provider fetches live traffic conditions between two coordinates.
type Provider interface {
	GetConditions(ctx context.Context, originLat, originLng, destLat, destLng float64) (*Conditions, error)
}
