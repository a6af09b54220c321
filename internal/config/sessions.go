package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mohamedkhairy/ict-dashboard/internal/models"
	"gopkg.in/yaml.v3"
)

// sessionsFile is the YAML layout of SESSIONS_FILE. Every section is optional;
// a present section replaces the corresponding default entirely.
type sessionsFile struct {
	Timezone    string              `yaml:"timezone"`
	Instruments []models.Instrument `yaml:"instruments"`
	KillZones   []windowSpec        `yaml:"kill_zones"`
	Macros      []windowSpec        `yaml:"macros"`
	KeyOpens    []keyOpenSpec       `yaml:"key_opens"`
	OTEFibs     []float64           `yaml:"ote_fibs"`
	Proximity   *float64            `yaml:"proximity_pct"`
	Lookback    *int                `yaml:"swing_lookback"`
}

type windowSpec struct {
	Name            string `yaml:"name"`
	Label           string `yaml:"label"`
	Start           string `yaml:"start"`
	End             string `yaml:"end"`
	CrossesMidnight bool   `yaml:"crosses_midnight"`
}

type keyOpenSpec struct {
	Label string `yaml:"label"`
	Time  string `yaml:"time"`
}

// LoadSessionsFile overlays the YAML session file at path onto cfg
func LoadSessionsFile(path string, cfg *EngineConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read sessions file: %w", err)
	}
	return ApplySessions(data, cfg)
}

// ApplySessions overlays YAML session definitions onto cfg
func ApplySessions(data []byte, cfg *EngineConfig) error {
	var f sessionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse sessions file: %w", err)
	}

	if f.Timezone != "" {
		cfg.Timezone = f.Timezone
	}
	if len(f.Instruments) > 0 {
		cfg.Instruments = f.Instruments
	}
	if len(f.KillZones) > 0 {
		windows, err := toWindows(f.KillZones)
		if err != nil {
			return fmt.Errorf("kill_zones: %w", err)
		}
		cfg.KillZones = windows
	}
	if len(f.Macros) > 0 {
		windows, err := toWindows(f.Macros)
		if err != nil {
			return fmt.Errorf("macros: %w", err)
		}
		cfg.Macros = windows
	}
	if len(f.KeyOpens) > 0 {
		opens := make([]models.KeyOpenSpec, 0, len(f.KeyOpens))
		for _, ko := range f.KeyOpens {
			h, m, err := parseClock(ko.Time)
			if err != nil {
				return fmt.Errorf("key_opens %q: %w", ko.Label, err)
			}
			opens = append(opens, models.KeyOpenSpec{Label: ko.Label, Hour: h, Minute: m})
		}
		cfg.KeyOpens = opens
	}
	if len(f.OTEFibs) > 0 {
		cfg.OTEFibs = f.OTEFibs
	}
	if f.Proximity != nil {
		cfg.ProximityPct = *f.Proximity
	}
	if f.Lookback != nil {
		cfg.SwingLookback = *f.Lookback
	}
	return nil
}

func toWindows(specs []windowSpec) ([]models.TimeWindow, error) {
	out := make([]models.TimeWindow, 0, len(specs))
	for _, s := range specs {
		name := s.Name
		if name == "" {
			name = s.Label
		}
		sh, sm, err := parseClock(s.Start)
		if err != nil {
			return nil, fmt.Errorf("%q start: %w", name, err)
		}
		eh, em, err := parseClock(s.End)
		if err != nil {
			return nil, fmt.Errorf("%q end: %w", name, err)
		}
		out = append(out, models.TimeWindow{
			Name:            name,
			Start:           models.MinuteOfDay(sh, sm),
			End:             models.MinuteOfDay(eh, em),
			CrossesMidnight: s.CrossesMidnight,
		})
	}
	return out, nil
}

// parseClock parses "HH:MM"
func parseClock(s string) (int, int, error) {
	hs, ms, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}
