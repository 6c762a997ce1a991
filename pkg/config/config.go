package config

import (
	"encoding/json"
	"fmt"
	"os"

	"dario.cat/mergo"
	"github.com/Shopify/ejson"
	"github.com/caarlos0/env/v6"
	"github.com/ghodss/yaml"
)

const (
	DefaultYears          = 10
	DefaultPageLimit      = 500
	DefaultMaxRetries     = 3
	DefaultTimeoutSeconds = 30
	DefaultTickInterval   = 7
	DefaultCacheDir       = "cache"
	DefaultOutputDir      = "output"

	ejsonKeyDir     = "/opt/ejson/keys"
	ejsonKeyFileEnv = "GRANTPULSE_EJSON_SECRET_KEY"
)

// Read loads the yaml config (from the env var if set, otherwise the file)
// and the ejson/env secrets. Unlike the config file, secrets are optional:
// the public RePORTER API needs no credentials, so a missing secrets file
// only disables the sql and influx backends.
func Read(configEnvVar, configFile, secretsFile string) (*Config, *Secrets, error) {
	config, err := readConfig(configEnvVar, configFile)
	if err != nil {
		return nil, nil, err
	}

	config.applyDefaults()

	secrets, err := readSecrets(secretsFile)
	if err != nil {
		return nil, nil, err
	}

	return config, secrets, nil
}

func (c *Config) applyDefaults() {
	if c.Reporter.Years <= 0 {
		c.Reporter.Years = DefaultYears
	}
	if c.Reporter.PageLimit <= 0 {
		c.Reporter.PageLimit = DefaultPageLimit
	}
	if c.Reporter.MaxRetries <= 0 {
		c.Reporter.MaxRetries = DefaultMaxRetries
	}
	if c.Reporter.TimeoutSeconds <= 0 {
		c.Reporter.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir
	}
	if c.Chart.OutputDir == "" {
		c.Chart.OutputDir = DefaultOutputDir
	}
	if c.Chart.TickInterval <= 0 {
		c.Chart.TickInterval = DefaultTickInterval
	}
}

func readConfig(envName, filename string) (*Config, error) {
	var raw []byte
	var err error

	config := Config{}

	rawEnv := os.Getenv(envName)
	if rawEnv != "" {
		fmt.Printf("Reading config from environment variable %s\n", envName)
		raw = []byte(rawEnv)
	} else {
		raw, err = os.ReadFile(filename)
		if err != nil {
			return nil, err
		}
	}

	err = yaml.Unmarshal(raw, &config)

	return &config, err
}

func readSecrets(filename string) (*Secrets, error) {
	ejsonSecrets, ejsonErr := readEjsonSecrets(filename)

	envSecrets, envErr := readEnvSecrets()

	if ejsonErr == nil && envErr == nil {
		err := mergo.Merge(envSecrets, *ejsonSecrets)
		if err != nil {
			return nil, fmt.Errorf("Failed to merge secrets: %v", err)
		}
		return envSecrets, nil
	} else if ejsonErr != nil && envErr == nil {
		fmt.Printf("Warning: Error to parse ejson secret. Ejson error: %v\n", ejsonErr)
		return envSecrets, nil
	} else if ejsonErr == nil && envErr != nil {
		fmt.Printf("Warning: Error to parse env secret. Env error: %v\n", envErr)
		return ejsonSecrets, nil
	}

	return nil, fmt.Errorf("Failed to parse secrets. Ejson error: %v. Env error: %v", ejsonErr, envErr)
}

func readEjsonSecrets(filename string) (*Secrets, error) {
	ejsonSecrets := Secrets{}
	ejsonKeyFile := os.Getenv(ejsonKeyFileEnv)
	ejsonKey := []byte{}
	var err error

	if ejsonKeyFile != "" {
		ejsonKey, err = os.ReadFile(ejsonKeyFile)
		if err != nil {
			return nil, err
		}
	}
	raw, err := ejson.DecryptFile(filename, ejsonKeyDir, string(ejsonKey))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(raw, &ejsonSecrets)
	return &ejsonSecrets, err
}

func readEnvSecrets() (*Secrets, error) {
	envSecrets := Secrets{}
	err := env.Parse(&envSecrets)
	return &envSecrets, err
}
