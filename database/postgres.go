package database

import (
	"fmt"
	"net/url"
	"strings"
)

// PostgresConfig holds database connection parameters
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnectionString builds a PostgreSQL connection URL from the components
func (cfg PostgresConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + cfg.Port,
		Path:     "/" + cfg.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(cfg.SSLMode),
	}
	return u.String()
}

// MaskPassword masks the password in a connection string for logging.
// File paths and DSNs without credentials are returned unchanged.
func MaskPassword(connStr string) string {
	if !strings.Contains(connStr, "://") {
		return connStr
	}
	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Sprintf("<unparseable dsn: %d bytes>", len(connStr))
	}
	return u.Redacted()
}
