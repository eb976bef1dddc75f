package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// TelegramSettings configures the bot transport.
type TelegramSettings struct {
	// Token is the Bot API token. Usually supplied by BOT_TOKEN or the keyring.
	Token string `yaml:"token,omitempty"`
	// Debug enables the Bot API client's request logging.
	Debug bool `yaml:"debug"`
	// UpdateTimeout is the long-polling timeout in seconds.
	UpdateTimeout int `yaml:"update_timeout"`
}

// DatabaseSettings selects the record store backend.
type DatabaseSettings struct {
	// Driver is DriverSQLite or DriverPostgres.
	Driver string `yaml:"driver"`
	// DSN is a file path for SQLite or a connection string for Postgres.
	DSN string `yaml:"dsn"`
}

// ScheduleSettings controls when the daily sweep fires.
type ScheduleSettings struct {
	// Cron is a standard 5-field cron expression evaluated in the fixed offset.
	Cron string `yaml:"cron"`
	// UTCOffsetHours is the single fixed offset used for "today".
	UTCOffsetHours int `yaml:"utc_offset_hours"`
}

// FeedSettings configures the optional ICS feed server.
type FeedSettings struct {
	// Listen is the HTTP listen address; empty disables the server.
	Listen string `yaml:"listen"`
	// PublicURL is the externally reachable base URL used in /calendar replies.
	PublicURL string `yaml:"public_url"`
	// Secret salts the per-subscriber feed keys.
	Secret string `yaml:"secret,omitempty"`
}

// Settings is the top-level runtime configuration.
type Settings struct {
	Language string           `yaml:"language"`
	Telegram TelegramSettings `yaml:"telegram"`
	Database DatabaseSettings `yaml:"database"`
	Schedule ScheduleSettings `yaml:"schedule"`
	Feed     FeedSettings     `yaml:"feed"`
}

// DefaultSettings returns the in-memory defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Language: DefaultLanguage,
		Telegram: TelegramSettings{UpdateTimeout: DefaultUpdateTimeout},
		Database: DatabaseSettings{Driver: DefaultDriver, DSN: DefaultSQLitePath},
		Schedule: ScheduleSettings{Cron: DefaultRemindCron, UTCOffsetHours: DefaultUTCOffsetHours},
		Feed:     FeedSettings{Listen: DefaultFeedListen},
	}
}

// Normalize fills in zero values so partially-filled files still work.
func (s *Settings) Normalize() {
	if s.Language == "" {
		s.Language = DefaultLanguage
	}
	if s.Telegram.UpdateTimeout <= 0 {
		s.Telegram.UpdateTimeout = DefaultUpdateTimeout
	}
	if s.Database.Driver == "" {
		s.Database.Driver = DefaultDriver
	}
	if s.Database.DSN == "" && s.Database.Driver == DriverSQLite {
		s.Database.DSN = DefaultSQLitePath
	}
	if s.Schedule.Cron == "" {
		s.Schedule.Cron = DefaultRemindCron
	}
}

// Validate reports settings that cannot work at runtime.
func (s *Settings) Validate() error {
	if s.Schedule.UTCOffsetHours < -12 || s.Schedule.UTCOffsetHours > 14 {
		return fmt.Errorf("%s: %d", ErrBadOffset, s.Schedule.UTCOffsetHours)
	}
	switch s.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%s: %q", ErrDriverUnsupport, s.Database.Driver)
	}
	return nil
}

// Location returns the fixed-offset zone every date computation runs in.
func (s *Settings) Location() *time.Location {
	return time.FixedZone(DefaultZoneName, s.Schedule.UTCOffsetHours*int(time.Hour/time.Second))
}

// LoadSettings reads the YAML file at path (a missing file yields defaults),
// then applies environment overrides and normalizes the result.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("%s: %w", ErrSettingsRead, err)
		default:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("%s: %w", ErrSettingsParse, err)
			}
		}
	}

	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	s.Normalize()

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// applyEnv overrides file values with non-empty environment variables.
func (s *Settings) applyEnv() error {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	setString(EnvBotToken, &s.Telegram.Token)
	setString(EnvDBDriver, &s.Database.Driver)
	setString(EnvDBURL, &s.Database.DSN)
	setString(EnvLanguage, &s.Language)
	setString(EnvRemindCron, &s.Schedule.Cron)
	setString(EnvFeedListen, &s.Feed.Listen)
	setString(EnvFeedPublicURL, &s.Feed.PublicURL)
	setString(EnvFeedSecret, &s.Feed.Secret)

	if v, ok := os.LookupEnv(EnvUTCOffsetHours); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ErrBadOffset, err)
		}
		s.Schedule.UTCOffsetHours = n
	}
	return nil
}

// ResolveToken returns the configured token, falling back to the OS keyring.
func (s *Settings) ResolveToken() (string, error) {
	if s.Telegram.Token != "" {
		return s.Telegram.Token, nil
	}

	token, err := keyring.Get(KeyringService, KeyringToken)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", errors.New(ErrTokenMissing)
		}
		return "", fmt.Errorf("%s: %w", ErrKeyring, err)
	}

	slog.Debug(MsgTokenKeyring, LogKeyComponent, CompConfig)
	s.Telegram.Token = token
	return token, nil
}

// StoreToken saves the bot token in the OS keyring.
func StoreToken(token string) error {
	if err := keyring.Set(KeyringService, KeyringToken, token); err != nil {
		return fmt.Errorf("%s: %w", ErrKeyring, err)
	}
	return nil
}

// Save writes the settings as YAML with 0600 permissions via a temp file + rename.
// The token and feed secret are never written unless already present in s.
func Save(path string, s *Settings) error {
	if path == "" {
		return errors.New(ErrSettingsPath)
	}

	s.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPermUserRWX); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Chmod(tmpName, FilePermUserRW); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%s: %w", ErrSettingsWrite, err)
	}
	return nil
}

// LookupPassword returns the keyring password stored for an import user.
// A missing entry yields an empty password.
func LookupPassword(user string) string {
	if user == "" {
		return ""
	}
	p, err := keyring.Get(KeyringService, user)
	if err != nil {
		slog.Debug(MsgPassFail,
			LogKeyUser, user,
			LogKeyError, err,
			LogKeyComponent, CompConfig)
		return ""
	}
	return p
}
