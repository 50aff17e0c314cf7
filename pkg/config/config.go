package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"sigs.k8s.io/yaml"
)

const (
	// DefaultLogLevel is used when no log_level is configured
	DefaultLogLevel = "info"
	// DefaultMaxRetries bounds the delivery attempts of the ingest queue
	DefaultMaxRetries = 5
	// DefaultIngestTimeout bounds a single delivery attempt
	DefaultIngestTimeout = 10 * time.Second
)

// Config is the changehook configuration
type Config struct {
	// LogLevel is the logrus level name.
	LogLevel string `json:"log_level,omitempty"`
	// LogPayloads logs every decoded webhook payload at info level.
	LogPayloads bool `json:"log_payloads,omitempty"`
	// DefaultProject is the project of changes whose delivery did not name one.
	DefaultProject string `json:"default_project,omitempty"`
	// Ingest configures where changes are delivered to.
	Ingest Ingest `json:"ingest,omitempty"`
	// Codebases maps repository URLs to codebase names.
	Codebases []Codebase `json:"codebases,omitempty"`
}

// Ingest configures the change-ingestion endpoint
type Ingest struct {
	// URL of the ingestion endpoint. Changes are only logged when empty.
	URL        string `json:"url,omitempty"`
	MaxRetries int    `json:"max_retries,omitempty"`
	// Timeout is a Go duration string such as "10s".
	Timeout string `json:"timeout,omitempty"`

	timeout time.Duration
}

// TimeoutDuration returns the parsed Timeout
func (i *Ingest) TimeoutDuration() time.Duration {
	return i.timeout
}

// Codebase associates a repository with a codebase name
type Codebase struct {
	Repository string `json:"repository"`
	Codebase   string `json:"codebase"`
}

// Load loads and validates the config file at the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", path)
	}
	c, err := LoadYAMLConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config file %s", path)
	}
	return c, nil
}

// LoadYAMLConfig parses and validates config data
func LoadYAMLConfig(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return c, err
	}
	if err := c.finalizeAndValidate(); err != nil {
		return c, err
	}
	return c, nil
}

// NewDefaultConfig returns the config used when no config file is given
func NewDefaultConfig() *Config {
	c := &Config{}
	if err := c.finalizeAndValidate(); err != nil {
		// the empty config is always valid
		panic(err)
	}
	return c
}

func (c *Config) finalizeAndValidate() error {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Ingest.MaxRetries == 0 {
		c.Ingest.MaxRetries = DefaultMaxRetries
	}
	c.Ingest.timeout = DefaultIngestTimeout
	return c.validate()
}

func (c *Config) validate() error {
	var result *multierror.Error

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Ingest.URL != "" {
		u, err := url.Parse(c.Ingest.URL)
		if err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "invalid ingest url %q", c.Ingest.URL))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			result = multierror.Append(result, fmt.Errorf("ingest url %q must use http or https", c.Ingest.URL))
		}
	}
	if c.Ingest.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("ingest max_retries must not be negative but was %d", c.Ingest.MaxRetries))
	}
	if c.Ingest.Timeout != "" {
		d, err := time.ParseDuration(c.Ingest.Timeout)
		switch {
		case err != nil:
			result = multierror.Append(result, errors.Wrapf(err, "invalid ingest timeout %q", c.Ingest.Timeout))
		case d <= 0:
			result = multierror.Append(result, fmt.Errorf("ingest timeout must be positive but was %s", c.Ingest.Timeout))
		default:
			c.Ingest.timeout = d
		}
	}

	seen := map[string]bool{}
	for i, cb := range c.Codebases {
		if cb.Repository == "" {
			result = multierror.Append(result, fmt.Errorf("codebases[%d] has no repository", i))
			continue
		}
		if cb.Codebase == "" {
			result = multierror.Append(result, fmt.Errorf("codebases[%d] for repository %s has no codebase", i, cb.Repository))
		}
		key := normalizeRepository(cb.Repository)
		if seen[key] {
			result = multierror.Append(result, fmt.Errorf("repository %s is mapped to more than one codebase", cb.Repository))
		}
		seen[key] = true
	}
	return result.ErrorOrNil()
}

// CodebaseFor returns the codebase configured for the repository URL or nil
func (c *Config) CodebaseFor(repositoryURL string) *string {
	key := normalizeRepository(repositoryURL)
	for i := range c.Codebases {
		if normalizeRepository(c.Codebases[i].Repository) == key {
			codebase := c.Codebases[i].Codebase
			return &codebase
		}
	}
	return nil
}

// ApplyLogLevel sets the logrus level from the config
func (c *Config) ApplyLogLevel() {
	lvl, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithError(err).Warn("ignoring invalid log level")
		return
	}
	logrus.WithField("level", lvl.String()).Infof("setting the log level")
	logrus.SetLevel(lvl)
}

func normalizeRepository(repositoryURL string) string {
	return strings.TrimSuffix(strings.TrimSuffix(strings.ToLower(repositoryURL), "/"), ".git")
}
