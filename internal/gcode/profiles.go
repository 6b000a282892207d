package gcode

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Profile defines a post-processor configuration for a CNC controller.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	// Startup codes. The unit code (G20/G21) is emitted from the plan units.
	StartCode    []string `json:"start_code"`
	SpindleStart string   `json:"spindle_start"` // e.g. "M3 S%d"
	SpindleStop  string   `json:"spindle_stop"`

	RapidMove string `json:"rapid_move"`
	FeedMove  string `json:"feed_move"`

	// End codes; "[SafeZ]" is replaced with the retract height.
	EndCode []string `json:"end_code"`

	CommentPrefix string `json:"comment_prefix"`
	CommentSuffix string `json:"comment_suffix"` // e.g. ")" for Fanuc style comments

	DecimalPlaces int  `json:"decimal_places"`
	IsBuiltIn     bool `json:"-"`
}

// Built-in post-processor profiles. Generic must stay last.
var builtinProfiles = []Profile{
	{
		Name:          "Grbl",
		Description:   "Standard Grbl configuration (Arduino CNC shields)",
		StartCode:     []string{"G90", "G17"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
	{
		Name:          "Mach3",
		Description:   "Mach3 CNC control software",
		StartCode:     []string{"G90", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G28 X0 Y0", "M30"},
		CommentPrefix: "(",
		CommentSuffix: ")",
		DecimalPlaces: 4,
	},
	{
		Name:          "LinuxCNC",
		Description:   "LinuxCNC (formerly EMC2)",
		StartCode:     []string{"G90", "G17", "G94"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 4,
	},
	{
		Name:          "Generic",
		Description:   "Generic standard GCode",
		StartCode:     []string{"G90"},
		SpindleStart:  "M3 S%d",
		SpindleStop:   "M5",
		RapidMove:     "G0",
		FeedMove:      "G1",
		EndCode:       []string{"G0 Z[SafeZ]", "G0 X0 Y0", "M2"},
		CommentPrefix: ";",
		DecimalPlaces: 3,
	},
}

func init() {
	for i := range builtinProfiles {
		builtinProfiles[i].IsBuiltIn = true
	}
}

// GetProfile returns a profile by name (case-insensitive), looking at custom
// profiles first. Unknown names fall back to Generic.
func GetProfile(name string, custom ...Profile) Profile {
	for _, p := range custom {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	for _, p := range builtinProfiles {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return builtinProfiles[len(builtinProfiles)-1]
}

// ProfileNames returns the names of all built-in and custom profiles, sorted.
func ProfileNames(custom ...Profile) []string {
	seen := make(map[string]bool)
	var names []string
	for _, p := range append(append([]Profile{}, builtinProfiles...), custom...) {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// LoadCustomProfiles reads user-defined profiles from a JSON file.
// A missing file yields an empty slice.
func LoadCustomProfiles(path string) ([]Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []Profile{}, nil
		}
		return nil, err
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}
	for i, p := range profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("profile %d in %s has no name", i+1, path)
		}
		if p.RapidMove == "" {
			profiles[i].RapidMove = "G0"
		}
		if p.FeedMove == "" {
			profiles[i].FeedMove = "G1"
		}
		if p.CommentPrefix == "" {
			profiles[i].CommentPrefix = ";"
		}
	}
	return profiles, nil
}

// SaveCustomProfiles writes user-defined profiles to a JSON file, creating
// the parent directory if needed.
func SaveCustomProfiles(path string, profiles []Profile) error {
	if profiles == nil {
		profiles = []Profile{}
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
