package config

import (
	"os"
	"time"
)

// ElasticsearchConfig describes the verification audit index
type ElasticsearchConfig struct {
	URL        string
	Index      string
	Username   string
	Password   string
	MaxRetries int
	Timeout    time.Duration
}

// Enabled reports whether an Elasticsearch URL was configured
func (c ElasticsearchConfig) Enabled() bool {
	return c.URL != ""
}

// LoadElasticsearchConfig reads the ELASTICSEARCH_* variables. An empty
// ELASTICSEARCH_URL disables indexing.
func LoadElasticsearchConfig() ElasticsearchConfig {
	return ElasticsearchConfig{
		URL:        os.Getenv("ELASTICSEARCH_URL"),
		Index:      getEnv("ELASTICSEARCH_INDEX", "ticket-verifications"),
		Username:   os.Getenv("ELASTICSEARCH_USERNAME"),
		Password:   os.Getenv("ELASTICSEARCH_PASSWORD"),
		MaxRetries: getEnvInt("ELASTICSEARCH_MAX_RETRIES", 3),
		Timeout:    getEnvDuration("ELASTICSEARCH_TIMEOUT", 30*time.Second),
	}
}
