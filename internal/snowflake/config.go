// Package snowflake owns the connection to the data platform: configuration,
// the long-lived session, and the row shape that introspection commands return.
package snowflake

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/snowflakedb/gosnowflake"
)

// Authenticator names accepted in configuration. They mirror the values the
// snow CLI writes into connections.toml.
const (
	authPassword = ""
	authJWT      = "snowflake_jwt"
	authPAT      = "programmatic_access_token"
	authOAuth    = "oauth"
	authBrowser  = "externalbrowser"
)

// Config holds the connection parameters for one Snowflake account. It is
// resolved once at startup, either from a named snow CLI connection or from
// environment variables.
type Config struct {
	Account        string
	User           string
	Password       string
	Role           string
	Warehouse      string
	Database       string
	Schema         string
	Authenticator  string
	Token          string
	PrivateKeyPath string
}

// connectionEntry is one [name] table in the snow CLI connections.toml.
type connectionEntry struct {
	Account        string `toml:"account"`
	User           string `toml:"user"`
	Password       string `toml:"password"`
	Role           string `toml:"role"`
	Warehouse      string `toml:"warehouse"`
	Database       string `toml:"database"`
	Schema         string `toml:"schema"`
	Authenticator  string `toml:"authenticator"`
	Token          string `toml:"token"`
	PrivateKeyFile string `toml:"private_key_file"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// Load resolves connection parameters. A SNOWFLAKE_CONNECTION name selects
// an entry from the snow CLI connections.toml; otherwise SNOWFLAKE_* env
// vars are read, with a programmatic access token taking priority over an
// explicit authenticator, which takes priority over password auth.
func Load() (Config, error) {
	if name := os.Getenv("SNOWFLAKE_CONNECTION"); name != "" {
		path, err := connectionsPath()
		if err != nil {
			return Config{}, err
		}
		return LoadConnection(path, name)
	}

	cfg := Config{
		Account:   os.Getenv("SNOWFLAKE_ACCOUNT"),
		User:      os.Getenv("SNOWFLAKE_USER"),
		Warehouse: getEnv("SNOWFLAKE_WAREHOUSE", "COMPUTE_WH"),
		Database:  getEnv("SNOWFLAKE_DATABASE", "SNOWFLAKE"),
		Schema:    getEnv("SNOWFLAKE_SCHEMA", "ACCOUNT_USAGE"),
		Role:      getEnv("SNOWFLAKE_ROLE", "ACCOUNTADMIN"),
	}

	switch {
	case os.Getenv("SNOWFLAKE_PAT") != "":
		cfg.Authenticator = authPAT
		cfg.Token = os.Getenv("SNOWFLAKE_PAT")
	case os.Getenv("SNOWFLAKE_AUTHENTICATOR") != "":
		cfg.Authenticator = os.Getenv("SNOWFLAKE_AUTHENTICATOR")
		cfg.PrivateKeyPath = os.Getenv("SNOWFLAKE_PRIVATE_KEY_PATH")
	default:
		cfg.Password = os.Getenv("SNOWFLAKE_PASSWORD")
	}
	return cfg, nil
}

// LoadConnection reads one named connection from a connections.toml file.
func LoadConnection(path, name string) (Config, error) {
	var entries map[string]connectionEntry
	if _, err := toml.DecodeFile(path, &entries); err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", path, err)
	}
	entry, ok := entries[name]
	if !ok {
		return Config{}, fmt.Errorf("connection %q not found in %s", name, path)
	}

	keyPath := entry.PrivateKeyFile
	if keyPath == "" {
		keyPath = entry.PrivateKeyPath
	}
	return Config{
		Account:        entry.Account,
		User:           entry.User,
		Password:       entry.Password,
		Role:           entry.Role,
		Warehouse:      entry.Warehouse,
		Database:       entry.Database,
		Schema:         entry.Schema,
		Authenticator:  entry.Authenticator,
		Token:          entry.Token,
		PrivateKeyPath: keyPath,
	}, nil
}

// connectionsPath probes the two locations the snow CLI uses.
func connectionsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	candidates := []string{
		filepath.Join(home, ".snowflake", "connections.toml"),
		filepath.Join(home, ".config", "snowflake", "connections.toml"),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("snow CLI connections.toml not found (looked in %s)", strings.Join(candidates, ", "))
}

// DSN renders the config into a driver connection string.
func (c Config) DSN() (string, error) {
	sc := gosnowflake.Config{
		Account:   c.Account,
		User:      c.User,
		Password:  c.Password,
		Database:  c.Database,
		Schema:    c.Schema,
		Warehouse: c.Warehouse,
		Role:      c.Role,
	}

	switch strings.ToLower(c.Authenticator) {
	case authPassword:
	case authJWT:
		key, err := loadPrivateKey(c.PrivateKeyPath)
		if err != nil {
			return "", err
		}
		sc.Authenticator = gosnowflake.AuthTypeJwt
		sc.PrivateKey = key
	case authPAT:
		sc.Authenticator = gosnowflake.AuthTypePat
		sc.Token = c.Token
	case authOAuth:
		sc.Authenticator = gosnowflake.AuthTypeOAuth
		sc.Token = c.Token
	case authBrowser:
		sc.Authenticator = gosnowflake.AuthTypeExternalBrowser
	default:
		return "", fmt.Errorf("unsupported authenticator %q", c.Authenticator)
	}

	dsn, err := gosnowflake.DSN(&sc)
	if err != nil {
		return "", fmt.Errorf("building DSN: %w", err)
	}
	return dsn, nil
}

// loadPrivateKey reads an unencrypted PKCS#8 RSA key in PEM form, the format
// key-pair auth expects. Encrypted keys must be decrypted out of band.
func loadPrivateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return nil, fmt.Errorf("key-pair auth requires a private key file path")
	}
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("private key %s is not PEM encoded", path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s (encrypted keys are not supported): %w", path, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key %s is not an RSA key", path)
	}
	return key, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
