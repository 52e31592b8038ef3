package config

import (
	"os"
	"sort"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"contentboard/internal/status"
)

// YAMLConfig represents the structure of the config.yaml file.
// Client rosters and board labels are easier to manage in YAML than env vars.
type YAMLConfig struct {
	Clients  []ClientConfig          `yaml:"clients"`
	Statuses map[string]StatusConfig `yaml:"statuses"`
}

// ClientConfig defines a client in the YAML config.
type ClientConfig struct {
	Slug         string `yaml:"slug"`
	Name         string `yaml:"name"`
	ContactEmail string `yaml:"contact_email,omitempty"` // receives approval links
	TeamEmail    string `yaml:"team_email,omitempty"`    // notified when the client decides
}

// StatusConfig overrides the display metadata of a board column.
type StatusConfig struct {
	Label string `yaml:"label,omitempty"`
	Color string `yaml:"color,omitempty"`
}

// LoadYAMLConfig loads the YAML configuration file.
// Path is determined by CONFIG_FILE env var, defaulting to "config.yaml".
// Returns nil without error if the config file doesn't exist.
func LoadYAMLConfig() (*YAMLConfig, error) {
	return LoadYAMLConfigFile(getEnv("CONFIG_FILE", "config.yaml"))
}

// LoadYAMLConfigFile loads the YAML configuration from path.
func LoadYAMLConfigFile(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file is optional
			return nil, nil
		}
		return nil, err
	}

	var cfg YAMLConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// StatusOverrides converts the statuses section into registry overrides.
// Keys may use legacy names; keys that match no content state are skipped.
// When a legacy name and the registered key both appear, the registered key wins.
func (c *YAMLConfig) StatusOverrides() map[status.Key]status.Override {
	if c == nil || len(c.Statuses) == 0 {
		return nil
	}

	raws := make([]string, 0, len(c.Statuses))
	for raw := range c.Statuses {
		raws = append(raws, raw)
	}
	sort.Strings(raws)

	out := make(map[status.Key]status.Override, len(raws))
	exact := make(map[status.Key]bool, len(raws))
	for _, raw := range raws {
		key, ok := status.Lookup(raw)
		if !ok {
			log.Warn().Str("status", raw).Msg("ignoring override for unknown status")
			continue
		}
		isExact := string(key) == raw
		if exact[key] && !isExact {
			continue
		}
		s := c.Statuses[raw]
		out[key] = status.Override{Label: s.Label, ColorHint: s.Color}
		exact[key] = exact[key] || isExact
	}
	return out
}
