package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks configuration correctness. It does not mutate cfg.
func Validate(cfg *Config) error {
	if cfg.Output == "" {
		return errors.New("output path is empty")
	}

	u, err := url.Parse(cfg.PortalURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("portal_url %q is not an absolute URL", cfg.PortalURL)
	}

	if len(cfg.Reports) == 0 {
		return errors.New("no reports configured")
	}

	seen := make(map[string]bool)
	for i, r := range cfg.Reports {
		if r.Name == "" {
			return fmt.Errorf("report %d: name is empty", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("report %q: duplicate name", r.Name)
		}
		seen[r.Name] = true

		if r.ItemID == "" {
			return fmt.Errorf("report %q: item_id is empty", r.Name)
		}
		if r.MapID == "" {
			return fmt.Errorf("report %q: map_id is empty", r.Name)
		}
	}

	return nil
}
