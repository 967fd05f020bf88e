package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/IndieWebClubBlr/website/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blogroll.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, c *config.TomlConfig)
		wantErr bool
	}{
		{
			name:    "empty file keeps defaults",
			content: "",
			check: func(t *testing.T, c *config.TomlConfig) {
				assert.Equal(t, 30*time.Second, c.Fetch.Timeout.Duration)
				assert.Equal(t, 10, c.Fetch.Workers)
				assert.Equal(t, config.Size(5*1024*1024), c.Fetch.MaxContentLength)
				assert.Equal(t, 10, c.Entries.MaxFeedEntries)
				assert.Equal(t, 90*24*time.Hour, c.Entries.MaxAge.Duration)
				assert.Equal(t, 5, c.Entries.MaxTags)
				assert.Equal(t, "blogroll.atom", c.Output.AtomFile)
			},
		},
		{
			name: "overrides durations and sizes",
			content: `
[fetch]
timeout = "5s"
workers = 3
max_content_length = "2MiB"
freshness_window = "15m"

[entries]
max_age = "720h"
`,
			check: func(t *testing.T, c *config.TomlConfig) {
				assert.Equal(t, 5*time.Second, c.Fetch.Timeout.Duration)
				assert.Equal(t, 3, c.Fetch.Workers)
				assert.Equal(t, config.Size(2*1024*1024), c.Fetch.MaxContentLength)
				assert.Equal(t, 15*time.Minute, c.Fetch.FreshnessWindow.Duration)
				assert.Equal(t, 720*time.Hour, c.Entries.MaxAge.Duration)
				// untouched sections keep their defaults
				assert.Equal(t, 5, c.Entries.MaxTags)
			},
		},
		{
			name: "site section",
			content: `
[site]
title = "Test Blogroll"
url = "https://example.org"
timezone = "UTC"
`,
			check: func(t *testing.T, c *config.TomlConfig) {
				assert.Equal(t, "Test Blogroll", c.Site.Title)
				assert.Equal(t, "https://example.org/blogroll.atom", c.AtomURL())
				loc, err := c.Location()
				require.NoError(t, err)
				assert.Equal(t, time.UTC, loc)
			},
		},
		{
			name:    "malformed toml",
			content: "[fetch\ntimeout = ",
			wantErr: true,
		},
		{
			name:    "bad duration",
			content: "[fetch]\ntimeout = \"soon\"\n",
			wantErr: true,
		},
		{
			name:    "zero workers",
			content: "[fetch]\nworkers = 0\n",
			wantErr: true,
		},
		{
			name:    "unknown timezone",
			content: "[site]\ntimezone = \"Mars/Olympus\"\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := config.LoadConfig(writeConfig(t, tt.content), false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.toml")

	c, err := config.LoadConfig(missing, true)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)

	_, err = config.LoadConfig(missing, false)
	assert.Error(t, err)
}
