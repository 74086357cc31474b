package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pyrelab/fireweather-etl/internal/domain"
)

// LoadGeoRules returns the geographic-filter rules for a run. With an empty
// path the compiled-in defaults apply; otherwise the YAML file replaces them
// wholesale, so a reviewed rules file is the complete source of truth.
//
// File shape:
//
//	exclusion_boxes:
//	  - {min_lon: -.inf, max_lon: -134.5, min_lat: -.inf, max_lat: 58.5}
//	denylist_fids: [423718, 423531]
func LoadGeoRules(path string) (domain.GeoRules, error) {
	if path == "" {
		return domain.DefaultGeoRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.GeoRules{}, fmt.Errorf("read geo rules: %w", err)
	}

	var rules domain.GeoRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return domain.GeoRules{}, fmt.Errorf("parse geo rules %s: %w", path, err)
	}
	if len(rules.Boxes) == 0 && len(rules.Denylist) == 0 {
		return domain.GeoRules{}, fmt.Errorf("geo rules %s defines no boxes and no denylist", path)
	}
	return rules, nil
}
