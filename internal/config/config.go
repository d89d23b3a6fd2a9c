package config

import (
	"time"

	"github.com/spf13/viper"
)

// The kiosk runs on a fixed device per department desk, so its identity
// (department, office, operator account) comes in as environment variables
// alongside the visitor-log service address.

type Config struct {
	ServerPort     string        `mapstructure:"SERVER_PORT"`
	VisitorAPIURL  string        `mapstructure:"VISITOR_API_URL"`
	DepartmentID   int64         `mapstructure:"DEPARTMENT_ID"`
	DepartmentName string        `mapstructure:"DEPARTMENT_NAME"`
	OfficeID       int64         `mapstructure:"OFFICE_ID"`
	OperatorID     int64         `mapstructure:"OPERATOR_ID"`
	HTTPTimeout    time.Duration `mapstructure:"HTTP_TIMEOUT"`
	OTLPEndpoint   string        `mapstructure:"OTLP_ENDPOINT"`
	IsLocalDev     bool          `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("VISITOR_API_URL", "http://localhost:8081")
	viper.SetDefault("DEPARTMENT_ID", 1)
	viper.SetDefault("DEPARTMENT_NAME", "Front Desk")
	viper.SetDefault("OFFICE_ID", 1)
	viper.SetDefault("OPERATOR_ID", 1)
	viper.SetDefault("HTTP_TIMEOUT", "10s")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
