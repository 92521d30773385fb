package smartstore

import (
	"errors"

	"github.com/google/uuid"
)

// Config holds the SmartStore commerce API settings for one channel.
type Config struct {
	// ChannelID keys the stored credential record
	ChannelID uuid.UUID
	// ClientID is the application id from the commerce API center
	ClientID string
	// ClientSecret is the application secret from the commerce API center
	ClientSecret string
	// APIBaseURL is the base URL for the commerce API
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

// ProductionAPIURL is the production commerce API endpoint
const ProductionAPIURL = "https://api.commerce.naver.com/external"

// Errors for SmartStore configuration
var (
	ErrConfigMissingChannelID    = errors.New("smartstore: channel id is required")
	ErrConfigMissingClientID     = errors.New("smartstore: client id is required")
	ErrConfigMissingClientSecret = errors.New("smartstore: client secret is required")
)

// NewConfig creates a new SmartStore configuration with defaults
func NewConfig(channelID uuid.UUID, clientID, clientSecret string) *Config {
	return &Config{
		ChannelID:      channelID,
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		APIBaseURL:     ProductionAPIURL,
		TimeoutSeconds: 10,
	}
}

// Validate validates the SmartStore configuration
func (c *Config) Validate() error {
	if c.ChannelID == uuid.Nil {
		return ErrConfigMissingChannelID
	}
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = ProductionAPIURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 10
	}
	return nil
}
