package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// PostgresConnectionString returns the key=value DSN for the pgx driver.
// The password is single-quoted, with backslashes and quotes escaped, so
// values containing spaces or "=" parse as one token.
func (c *Config) PostgresConnectionString() string {
	password := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(c.PostgresPassword)
	return strings.Join([]string{
		"host=" + c.PostgresHost,
		"port=" + strconv.Itoa(c.PostgresPort),
		"user=" + c.PostgresUser,
		"password='" + password + "'",
		"dbname=" + c.PostgresDBName,
		"sslmode=" + c.PostgresSSLMode,
	}, " ")
}

// PostgresURL returns the URL form consumed by golang-migrate. Credentials
// are percent-encoded by url.URL.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:     net.JoinHostPort(c.PostgresHost, strconv.Itoa(c.PostgresPort)),
		Path:     c.PostgresDBName,
		RawQuery: "sslmode=" + c.PostgresSSLMode,
	}
	return u.String()
}

// applyDatabaseURL overlays a single postgres:// URL, as injected by cloud
// platforms via DATABASE_URL, onto the individual postgres_* settings.
// Components absent from the URL keep their configured values.
func (c *Config) applyDatabaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid DATABASE_URL format: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("DATABASE_URL must start with postgres:// or postgresql://, got %q", u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		c.PostgresHost = host
	}
	if portStr := u.Port(); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port in DATABASE_URL: %w", err)
		}
		c.PostgresPort = port
	}
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			c.PostgresUser = name
		}
		if password, ok := u.User.Password(); ok {
			c.PostgresPassword = password
		}
	}
	if name := strings.TrimPrefix(u.Path, "/"); name != "" {
		c.PostgresDBName = name
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.PostgresSSLMode = mode
	}
	return nil
}
