package routing

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tour-route-service/internal/ports"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of routing provider.
type ProviderType string

const (
	// ProviderTypeOSRM represents an OSRM server (public demo server by default).
	ProviderTypeOSRM ProviderType = "osrm"
	// ProviderTypeORS represents OpenRouteService.
	ProviderTypeORS ProviderType = "ors"
	// ProviderTypeGoogle represents the Google Directions API.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeStraight represents the offline straight-line provider.
	ProviderTypeStraight ProviderType = "straight"
)

// ProviderConfig holds configuration for creating a routing provider.
type ProviderConfig struct {
	Type      ProviderType
	BaseURL   string        // OSRM or ORS server URL
	Profile   string        // OSRM profile, "foot" by default
	APIKey    string        // Google or ORS API key
	RateLimit int           // requests per second, 0 disables limiting
	Timeout   time.Duration // per-request HTTP timeout
	Logger    *slog.Logger
}

// NewProvider creates a routing provider based on the provided configuration.
func NewProvider(config ProviderConfig) (ports.RouteProvider, error) {
	switch config.Type {
	case ProviderTypeOSRM, "":
		return NewOSRMProvider(config.BaseURL, config.Profile, config.RateLimit, config.Timeout, config.Logger), nil
	case ProviderTypeORS:
		p, err := NewORSProvider(config.APIKey, config.BaseURL, config.Profile, config.RateLimit, config.Timeout, config.Logger)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeStraight:
		return NewStraightLineProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported routing provider type: %s", config.Type)
	}
}

func newGoogleProvider(config ProviderConfig) (ports.RouteProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for Google provider")
	}

	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}
