// Package config holds the settings shared by the todo binaries. Values come
// from the environment or a JSON document and can be overridden by flags.
package config

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Environment variables read by FromEnv.
const (
	EnvEndpoint       = "API_GATEWAY_URL"
	EnvFunction       = "DISPATCHER_FUNCTION"
	EnvTable          = "TABLE_NAME"
	EnvRegion         = "AWS_REGION"
	EnvDynamoEndpoint = "DYNAMO_ENDPOINT"
	EnvPort           = "PORT"
	EnvUpdateResponse = "UPDATE_RESPONSE"
	EnvLogLevel       = "LOG_LEVEL"
)

// Defaults applied to unset values.
const (
	DefaultRegion         = "us-west-2"
	DefaultPort           = 3000
	DefaultUpdateResponse = "no-content"
	DefaultLogLevel       = "info"
)

// Config is the configuration of the dispatcher and the proxy.
//
// Endpoint is the URL the proxy posts dispatcher requests to. Function is the
// name of the dispatcher Lambda, used instead of Endpoint when set. Table is
// the DynamoDB table the dispatcher operates on and DynamoEndpoint an
// optional DynamoDB endpoint for local testing.
type Config struct {
	Endpoint       string `json:"endpoint"`
	Function       string `json:"function"`
	Table          string `json:"table"`
	Region         string `json:"region"`
	DynamoEndpoint string `json:"dynamo_endpoint"`
	Port           int    `json:"port"`
	UpdateResponse string `json:"update_response"`
	LogLevel       string `json:"log_level"`
}

// New returns a Config holding only defaults.
func New() *Config {
	c := new(Config)
	c.applyDefaults()

	return c
}

// FromEnv returns a Config read from the process environment.
func FromEnv() (*Config, error) {
	return fromEnv(os.Getenv)
}

func fromEnv(getenv func(string) string) (*Config, error) {
	c := &Config{
		Endpoint:       getenv(EnvEndpoint),
		Function:       getenv(EnvFunction),
		Table:          getenv(EnvTable),
		Region:         getenv(EnvRegion),
		DynamoEndpoint: getenv(EnvDynamoEndpoint),
		UpdateResponse: getenv(EnvUpdateResponse),
		LogLevel:       getenv(EnvLogLevel),
	}

	if port := getenv(EnvPort); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s '%s'", EnvPort, port)
		}
		c.Port = p
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Parse decodes s without applying defaults, leaving unset values empty.
func Parse(s string) (*Config, error) {
	c := new(Config)

	err := json.Unmarshal([]byte(s), c)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse config")
	}

	return c, nil
}

// FromJSON returns a Config decoded from s with defaults applied.
func FromJSON(s string) (*Config, error) {
	c, err := Parse(s)
	if err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}

	if c.Port == 0 {
		c.Port = DefaultPort
	}

	if c.UpdateResponse == "" {
		c.UpdateResponse = DefaultUpdateResponse
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the values that are always required to be well formed.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port %d out of range", c.Port)
	}

	switch c.UpdateResponse {
	case "no-content", "updated":
	default:
		return errors.Errorf("update_response must be 'no-content' or 'updated', got '%s'", c.UpdateResponse)
	}

	return nil
}

// RequireTable returns an error unless a table is configured.
func (c *Config) RequireTable() error {
	if c.Table == "" {
		return errors.New("table is required")
	}

	return nil
}

// RequireDispatcher returns an error unless the dispatcher can be reached,
// either through Endpoint or Function.
func (c *Config) RequireDispatcher() error {
	if c.Endpoint == "" && c.Function == "" {
		return errors.New("endpoint or function is required")
	}

	return nil
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
