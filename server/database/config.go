package database

import (
	"fmt"
	"net/url"
)

type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

type Config struct {
	Driver       Driver `toml:"driver"`
	URL          string `toml:"url" env:"DATABASE_URL"`
	MaxOpenConns int    `toml:"max_open_conns"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n Driver: %s\n URL: %s\n MaxOpenConns: %d",
		c.Driver,
		redactURL(c.URL),
		c.MaxOpenConns,
	)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	return u.Redacted()
}
