package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/peloton/internal/config"
)

// SourceType represents the type of data source
type SourceType string

const (
	// FileSourceType reads pool documents from a directory
	FileSourceType SourceType = "file"
	// HTTPSourceType fetches pool documents from a JSON API
	HTTPSourceType SourceType = "http"
)

// NewPoolSource creates a PoolSource based on the provided configuration
func NewPoolSource(cfg config.DataSourceConfig, logger *logrus.Logger) (PoolSource, error) {
	switch SourceType(cfg.Type) {
	case FileSourceType:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file data source requires a path")
		}
		return NewFileSource(cfg.Path), nil

	case HTTPSourceType:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("http data source requires a base_url")
		}
		httpCfg := DefaultHTTPClientConfig()
		if cfg.TimeoutSeconds > 0 {
			httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		if cfg.RetryAttempts > 0 {
			httpCfg.MaxRetries = cfg.RetryAttempts
		}
		if cfg.RateLimitPerSecond > 0 {
			httpCfg.RateLimit = cfg.RateLimitPerSecond
		}
		if cfg.RateLimitBurst > 0 {
			httpCfg.RateBurst = cfg.RateLimitBurst
		}
		client := NewRateLimitedHTTPClient(httpCfg, logger)
		return NewHTTPSource(client, cfg.BaseURL, cfg.APIKey, logger), nil

	default:
		return nil, fmt.Errorf("unknown data source type: %s", cfg.Type)
	}
}
