package auth

import (
	"fmt"
	"strings"

	"github.com/topi314/clubagenda/internal/xtime"
)

type Config struct {
	CookieName    string         `toml:"cookie_name"`
	Lifetime      xtime.Duration `toml:"lifetime"`
	Secure        bool           `toml:"secure"`
	DefaultClubID int            `toml:"default_club_id"`
	LoginURL      string         `toml:"login_url"`
	SecretKey     string         `toml:"secret_key" env:"SECRET_KEY"`
}

func (c Config) String() string {
	return fmt.Sprintf("\n CookieName: %s\n Lifetime: %s\n Secure: %t\n DefaultClubID: %d\n LoginURL: %s\n SecretKey: %s",
		c.CookieName,
		c.Lifetime,
		c.Secure,
		c.DefaultClubID,
		c.LoginURL,
		strings.Repeat("*", len(c.SecretKey)),
	)
}
