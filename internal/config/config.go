// Package config holds the dashboard settings: which error report layers to
// read, where the portal is, and where the page is written.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vdot-gis/error-reports-dashboard/internal/report"
)

// Config represents the dashboard configuration file (YAML).
type Config struct {
	Title     string          `yaml:"title"`
	Output    string          `yaml:"output"`
	PortalURL string          `yaml:"portal_url"`
	Token     string          `yaml:"token"`
	Reports   []report.Source `yaml:"reports"`
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	return &Config{
		Title:     "Dan's AGOL Error Reports",
		Output:    "Error_Reports.html",
		PortalURL: "https://vdot.maps.arcgis.com",
		Reports: []report.Source{
			{Name: "FC Error Report", ItemID: "38919dbf7917404e80650a8891c60f2e", MapID: "a47455887dac4f7fa9fedbb79826fdbc"},
			{Name: "NHS Error Report", ItemID: "d2afd94945a84b9494f8603dd86b0c8f", MapID: "9a0f8f44a47549f4aad6541d45e64788"},
		},
	}
}

// Load reads a configuration file. Keys missing from the file keep their
// default values; a reports list in the file replaces the default one.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
