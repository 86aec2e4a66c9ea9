package tracking

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var databricksDomains = []string{
	".cloud.databricks.com",
	".azuredatabricks.net",
	".gcp.databricks.com",
}

// Config locates an MLflow tracking server. An empty TrackingURI disables
// tracking.
type Config struct {
	TrackingURI     string
	ExperimentID    string
	DatabricksHost  string
	DatabricksToken string
}

// ConfigFromViper reads tracking settings bound by the CLI (flags and
// REMYR_* environment variables).
func ConfigFromViper() *Config {
	return &Config{
		TrackingURI:     viper.GetString("tracking_uri"),
		ExperimentID:    viper.GetString("experiment_id"),
		DatabricksHost:  viper.GetString("databricks_host"),
		DatabricksToken: viper.GetString("databricks_token"),
	}
}

// Enabled reports whether runs should be sent anywhere.
func (c *Config) Enabled() bool {
	return c.TrackingURI != ""
}

func (c *Config) Validate() error {
	if c.TrackingURI == "" {
		return fmt.Errorf("tracking URI is required")
	}
	if c.ExperimentID == "" {
		return fmt.Errorf("experiment ID is required when tracking to %s", c.TrackingURI)
	}
	return nil
}

// IsDatabricks checks if the tracking URI points to Databricks.
func (c *Config) IsDatabricks() bool {
	if c.TrackingURI == "databricks" || strings.HasPrefix(c.TrackingURI, "databricks://") {
		return true
	}
	for _, d := range databricksDomains {
		if strings.Contains(c.TrackingURI, d) {
			return true
		}
	}
	return false
}

// databricksProfile returns the profile of a databricks://<profile> URI.
func (c *Config) databricksProfile() string {
	return strings.TrimPrefix(c.TrackingURI, "databricks://")
}
