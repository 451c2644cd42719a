package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone all day keys and wall-clock hours are
	// resolved in (e.g. "America/Toronto").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WorkStartHour / WorkEndHour bound the daily window free intervals are
	// searched in, as fractional 24h hours.
	WorkStartHour float64 `yaml:"work_start_hour" json:"work_start_hour"`
	WorkEndHour   float64 `yaml:"work_end_hour" json:"work_end_hour"`

	// RefreshCron is a cron-style schedule string (e.g. "*/30 * * * *")
	// used to re-fetch the availability feed and ICS sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// AvailabilityURL is the per-hour room booking feed endpoint.
	AvailabilityURL string `yaml:"availability_url" json:"availability_url"`

	// BuildingsURL is the building metadata feed endpoint.
	BuildingsURL string `yaml:"buildings_url" json:"buildings_url"`

	// CacheDir is the base directory for the conditional-GET disk cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// ICS is the list of subscribed calendar sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// Favorites lists preferred building codes. Paths through these score
	// at 1/100 of their raw score.
	Favorites []string `yaml:"favorites" json:"favorites"`

	// TopN is how many suggestions to keep per free interval.
	TopN int `yaml:"top_n" json:"top_n"`

	// PerBuildingLimit caps how many of those may come from one building.
	PerBuildingLimit int `yaml:"per_building_limit" json:"per_building_limit"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:           "127.0.0.1:8080",
		Timezone:         "America/Toronto",
		WorkStartHour:    8,
		WorkEndHour:      21,
		RefreshCron:      "*/30 * * * *",
		AvailabilityURL:  "https://madlab01.act.utoronto.ca/RoomAvailability/lsm_query.json",
		BuildingsURL:     "https://madlab01.act.utoronto.ca/RoomAvailability/lsm_buildings.json",
		CacheDir:         "./var/cache",
		ICS:              []ICSConfig{},
		Favorites:        []string{},
		TopN:             10,
		PerBuildingLimit: 2,
		BasicAuth:        nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.WorkStartHour <= 0 || c.WorkStartHour >= 24 {
		c.WorkStartHour = def.WorkStartHour
	}
	if c.WorkEndHour <= c.WorkStartHour || c.WorkEndHour > 24 {
		c.WorkEndHour = def.WorkEndHour
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.AvailabilityURL == "" {
		c.AvailabilityURL = def.AvailabilityURL
	}
	if c.BuildingsURL == "" {
		c.BuildingsURL = def.BuildingsURL
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Favorites == nil {
		c.Favorites = []string{}
	}
	if c.TopN <= 0 {
		c.TopN = def.TopN
	}
	if c.PerBuildingLimit <= 0 {
		c.PerBuildingLimit = def.PerBuildingLimit
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create the parent directory if needed,
//     write a default config with 0600 perms, and return the default.
//   - If the file exists: read YAML, unmarshal, normalize defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures the parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".roomsync-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up the temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
