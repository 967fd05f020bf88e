package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata" // site timezones resolve in minimal containers

	"github.com/BurntSushi/toml"
	"github.com/labstack/gommon/bytes"
)

// Duration wraps time.Duration so it can be written as "30s" or "2160h" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Size is a byte count written as "5MB" or "512KB" in TOML
type Size int64

func (s *Size) UnmarshalText(text []byte) error {
	parsed, err := bytes.Parse(string(text))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", string(text), err)
	}
	*s = Size(parsed)
	return nil
}

func (s Size) MarshalText() ([]byte, error) {
	return []byte(bytes.Format(int64(s))), nil
}

// TomlSite holds the identity of the generated site and its Atom feed
type TomlSite struct {
	Title    string `toml:"title"`
	Subtitle string `toml:"subtitle"`
	URL      string `toml:"url"`
	Author   string `toml:"author"`
	Timezone string `toml:"timezone"`
}

// TomlFetch configures how member feeds are retrieved
type TomlFetch struct {
	UserAgent        string   `toml:"user_agent"`
	Timeout          Duration `toml:"timeout"`
	Workers          int      `toml:"workers"`
	Retries          int      `toml:"retries"`
	MaxContentLength Size     `toml:"max_content_length"`
	HostInterval     Duration `toml:"host_interval"`
	FreshnessWindow  Duration `toml:"freshness_window"`
}

// TomlEntries controls normalization and filtering of feed entries
type TomlEntries struct {
	MaxFeedEntries int      `toml:"max_feed_entries"`
	MaxAge         Duration `toml:"max_age"`
	MaxFutureSkew  Duration `toml:"max_future_skew"`
	MaxTags        int      `toml:"max_tags"`
	SummaryLength  int      `toml:"summary_length"`
}

// TomlPage controls what the rendered page shows
type TomlPage struct {
	MaxEntries     int `toml:"max_entries"`
	PerSourceLimit int `toml:"per_source_limit"`
	MaxWeekNotes   int `toml:"max_week_notes"`
	MaxAtomEntries int `toml:"max_atom_entries"`
}

// TomlOutput names the directories and files written by a build
type TomlOutput struct {
	Dir          string `toml:"dir"`
	AtomFile     string `toml:"atom_file"`
	TemplatesDir string `toml:"templates_dir"`
	AssetsDir    string `toml:"assets_dir"`
	StatePath    string `toml:"state"`
}

// TomlWebring configures the daily webring redirects
type TomlWebring struct {
	UTMSource string `toml:"utm_source"`
}

// TomlConfig represents the top-level configuration
type TomlConfig struct {
	Site    TomlSite    `toml:"site"`
	Fetch   TomlFetch   `toml:"fetch"`
	Entries TomlEntries `toml:"entries"`
	Page    TomlPage    `toml:"page"`
	Output  TomlOutput  `toml:"output"`
	Webring TomlWebring `toml:"webring"`
}

// Default returns the configuration used when no file is given
func Default() *TomlConfig {
	return &TomlConfig{
		Site: TomlSite{
			Title:    "IndieWebClub Bangalore Blogroll",
			Subtitle: "Recent posts by IndieWebClub Bangalore folks.",
			URL:      "https://blr.indiewebclub.org/",
			Author:   "IndieWebClub Bangalore",
			Timezone: "Asia/Kolkata",
		},
		Fetch: TomlFetch{
			UserAgent:        "blr.indiewebclub.org generator",
			Timeout:          Duration{30 * time.Second},
			Workers:          10,
			Retries:          2,
			MaxContentLength: 5 * 1024 * 1024,
			HostInterval:     Duration{250 * time.Millisecond},
			FreshnessWindow:  Duration{time.Hour},
		},
		Entries: TomlEntries{
			MaxFeedEntries: 10,
			MaxAge:         Duration{90 * 24 * time.Hour},
			MaxFutureSkew:  Duration{24 * time.Hour},
			MaxTags:        5,
			SummaryLength:  300,
		},
		Page: TomlPage{
			MaxEntries:     50,
			PerSourceLimit: 1,
			MaxWeekNotes:   10,
			MaxAtomEntries: 100,
		},
		Output: TomlOutput{
			Dir:       "_site",
			AtomFile:  "blogroll.atom",
			StatePath: ".cache/blogroll.db",
		},
		Webring: TomlWebring{
			UTMSource: "blr.indiewebclub.org",
		},
	}
}

// LoadConfig reads a TOML file on top of the defaults. A missing file at
// path is not an error when allowMissing is set.
func LoadConfig(path string, allowMissing bool) (*TomlConfig, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if allowMissing && errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would make a build impossible
func (c *TomlConfig) Validate() error {
	if c.Fetch.Workers < 1 {
		return fmt.Errorf("fetch.workers must be at least 1, got %d", c.Fetch.Workers)
	}
	if c.Fetch.Timeout.Duration <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if c.Fetch.MaxContentLength <= 0 {
		return fmt.Errorf("fetch.max_content_length must be positive")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir must not be empty")
	}
	if c.Output.AtomFile == "" {
		return fmt.Errorf("output.atom_file must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured site timezone, defaulting to UTC
func (c *TomlConfig) Location() (*time.Location, error) {
	if c.Site.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Site.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid site.timezone %q: %w", c.Site.Timezone, err)
	}
	return loc, nil
}

// AtomURL is the public URL of the generated Atom feed
func (c *TomlConfig) AtomURL() string {
	base := c.Site.URL
	if base != "" && base[len(base)-1] != '/' {
		base += "/"
	}
	return base + c.Output.AtomFile
}
