package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Config holds the connection configuration.
type Config struct {
	Hosts          []string   `json:"hosts"`
	Port           int        `json:"port"`
	Keyspace       string     `json:"keyspace"`
	Username       string     `json:"username"`
	Password       string     `json:"password"`
	Consistency    string     `json:"consistency,omitempty"`    // e.g. "LOCAL_ONE", "QUORUM"
	PageSize       int        `json:"pageSize,omitempty"`
	ConnectTimeout int        `json:"connectTimeout,omitempty"` // seconds
	RequestTimeout int        `json:"requestTimeout,omitempty"` // seconds
	SSL            *SSLConfig `json:"ssl,omitempty"`
}

// SSLConfig holds SSL/TLS configuration options.
type SSLConfig struct {
	Enabled            bool   `json:"enabled"`
	CertPath           string `json:"certPath,omitempty"`
	KeyPath            string `json:"keyPath,omitempty"`
	CAPath             string `json:"caPath,omitempty"`
	HostVerification   bool   `json:"hostVerification,omitempty"`
	InsecureSkipVerify bool   `json:"insecureSkipVerify,omitempty"`
	// AllowLegacyCN accepts certificates whose hostname only appears in
	// the Common Name field instead of the SANs.
	AllowLegacyCN bool `json:"allowLegacyCN,omitempty"`
	// ServerName overrides TLS SNI, for routed endpoints.
	ServerName string `json:"serverName,omitempty"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Hosts:    []string{"127.0.0.1"},
		Port:     9042,
		PageSize: 100,
	}
}

// Load reads configuration from a JSON file and applies environment
// variable overrides. With a custom path the file must exist; otherwise
// the default locations are probed and all may be absent.
func Load(customPath ...string) (*Config, error) {
	cfg := Default()

	var paths []string
	if len(customPath) > 0 && customPath[0] != "" {
		paths = []string{customPath[0]}
	} else {
		paths = []string{
			"casmap.json",
			filepath.Join(os.Getenv("HOME"), ".casmap.json"),
			filepath.Join(os.Getenv("HOME"), ".config", "casmap", "config.json"),
		}
	}

	var foundPath string
	for _, path := range paths {
		data, err := os.ReadFile(path) // #nosec G304 - config path comes from the caller
		if err != nil {
			log.WithField("path", path).WithError(err).Debug("no config file")
			continue
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file %s: %w", path, err)
		}
		foundPath = path
		break
	}

	if len(customPath) > 0 && customPath[0] != "" && foundPath == "" {
		return nil, fmt.Errorf("config file not found: %s", customPath[0])
	}

	OverrideWithEnvVars(cfg)

	log.WithFields(log.Fields{
		"hosts":    cfg.Hosts,
		"port":     cfg.Port,
		"keyspace": cfg.Keyspace,
		"file":     foundPath,
	}).Debug("configuration loaded")

	return cfg, nil
}

// OverrideWithEnvVars overrides configuration with environment variables.
func OverrideWithEnvVars(cfg *Config) {
	if hosts := os.Getenv("CASSANDRA_HOSTS"); hosts != "" {
		cfg.Hosts = splitHosts(hosts)
	}
	if host := os.Getenv("CASSANDRA_HOST"); host != "" {
		cfg.Hosts = []string{host}
	}
	if port := os.Getenv("CASSANDRA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if keyspace := os.Getenv("CASSANDRA_KEYSPACE"); keyspace != "" {
		cfg.Keyspace = keyspace
	}
	if username := os.Getenv("CASSANDRA_USERNAME"); username != "" {
		cfg.Username = username
	}
	if password := os.Getenv("CASSANDRA_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if consistency := os.Getenv("CASSANDRA_CONSISTENCY"); consistency != "" {
		cfg.Consistency = consistency
	}
	if pageSize := os.Getenv("CASSANDRA_PAGE_SIZE"); pageSize != "" {
		if p, err := strconv.Atoi(pageSize); err == nil && p > 0 {
			cfg.PageSize = p
		}
	}
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
