package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/booking"
	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/export"
	"github.com/topi314/clubagenda/server/notify"
	"github.com/topi314/clubagenda/server/progress"
	"github.com/topi314/clubagenda/server/voting"
)

// LoadConfig reads cfgPath over the defaults, then applies a .env file and the environment.
func LoadConfig(cfgPath string) (Config, error) {
	cfg := defaultConfig()

	file, err := os.Open(cfgPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to open config file: %w", err)
	}
	if file != nil {
		defer func() {
			_ = file.Close()
		}()
		if _, err = toml.NewDecoder(file).Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err = godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env file: %w", err)
	}
	if err = env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err = cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:     slog.LevelInfo,
			Format:    LogFormatText,
			AddSource: false,
		},
		Server: ServerConfig{
			Addr:      ":8085",
			PublicURL: "http://localhost:8085",
		},
		Database: database.Config{
			Driver: database.DriverPostgres,
		},
		Booking: booking.Config{
			WaitlistCapacity: 4,
		},
		Voting: voting.DefaultConfig(),
		Progress: progress.Config{
			QualificationWindow: xtime.Duration(4380 * time.Hour),
			SpeechRole:          "Prepared Speaker",
		},
		Session: auth.Config{
			CookieName:    "clubagenda_session",
			Lifetime:      xtime.Duration(30 * 24 * time.Hour),
			Secure:        true,
			DefaultClubID: 1,
			LoginURL:      "/login",
		},
	}
}

type Config struct {
	Log           LogConfig           `toml:"log"`
	Server        ServerConfig        `toml:"server"`
	Database      database.Config     `toml:"database"`
	Booking       booking.Config      `toml:"booking"`
	Voting        voting.Config       `toml:"voting"`
	Progress      progress.Config     `toml:"progress"`
	Session       auth.Config         `toml:"session"`
	Notifications notify.Config       `toml:"notifications"`
	Sheets        export.SheetsConfig `toml:"sheets"`
}

func (c Config) String() string {
	return fmt.Sprintf("Log: %s\nServer: %s\nDatabase: %s\nBooking: %s\nVoting: %s\nProgress: %s\nSession: %s\nNotifications: %s\nSheets: %s",
		c.Log,
		c.Server,
		c.Database,
		c.Booking,
		c.Voting,
		c.Progress,
		c.Session,
		c.Notifications,
		c.Sheets,
	)
}

func (c Config) validate() error {
	if c.Session.SecretKey == "" {
		return errors.New("session secret key is required, set SECRET_KEY")
	}
	if c.Database.URL == "" {
		return errors.New("database url is required, set DATABASE_URL")
	}
	if c.Sheets.Enabled && (c.Sheets.CredentialsFile == "" || c.Sheets.SpreadsheetID == "") {
		return errors.New("sheets export needs credentials_file and spreadsheet_id")
	}
	return nil
}

type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    LogFormat  `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

func (c LogConfig) String() string {
	return fmt.Sprintf("\n Level: %s\n Format: %s\n AddSource: %t",
		c.Level,
		c.Format,
		c.AddSource,
	)
}

type ServerConfig struct {
	Addr      string `toml:"addr"`
	PublicURL string `toml:"public_url"`
}

func (c ServerConfig) String() string {
	return fmt.Sprintf("\n Address: %s\n PublicURL: %s",
		c.Addr,
		c.PublicURL,
	)
}
