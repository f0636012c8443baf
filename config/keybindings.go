package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultPrimary   = "alt"
	defaultSecondary = "alt+shift"
)

// KeyBindingsConfig is the decoded keybindings.toml. Actions maps an
// action name to a full key string and bypasses the modifiers.
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"`
}

type ModifierConfig struct {
	Primary   string `toml:"primary"`
	Secondary string `toml:"secondary"`
}

// actionDef is an action's default binding: which modifier slot it uses
// ("primary", "secondary" or "none") and the bare key.
type actionDef struct {
	modifier string
	key      string
}

var actionRegistry = map[string]actionDef{
	// Chat view: modals
	"help":             {"primary", "h"},
	"about":            {"secondary", "a"},
	"api_key":          {"secondary", "k"},
	"search_messages":  {"primary", "f"},
	"vector_stores":    {"primary", "v"},
	"run_instructions": {"primary", "i"},
	"attach_file":      {"primary", "o"},

	// Chat view: assistant list
	"refresh_assistants": {"primary", "r"},
	"new_assistant":      {"primary", "n"},
	"delete_assistant":   {"primary", "d"},
	"filter_assistants":  {"none", "/"},
	"focus_next":         {"none", "tab"},

	// Chat view: transcript
	"scroll_down":       {"primary", "j"},
	"scroll_up":         {"primary", "k"},
	"scroll_down_arrow": {"primary", "down"},
	"scroll_up_arrow":   {"primary", "up"},
	"half_page_down":    {"secondary", "j"},
	"half_page_up":      {"secondary", "k"},
	"page_down":         {"primary", "pgdown"},
	"page_up":           {"primary", "pgup"},
	"scroll_to_top":     {"primary", "g"},
	"scroll_to_bottom":  {"secondary", "g"},

	// Chat view: session
	"quit":                {"primary", "q"},
	"cancel_stream":       {"none", "esc"},
	"yank_last_response":  {"primary", "y"},
	"export_conversation": {"primary", "x"},
	"clear_conversation":  {"secondary", "x"},

	// Vector store manager
	"store_new":    {"none", "n"},
	"store_delete": {"none", "d"},
	"store_upload": {"none", "u"},
	"store_attach": {"none", "a"},
	"store_files":  {"none", "enter"},
	"file_remove":  {"none", "r"},
	"file_delete":  {"none", "d"},
	"close_stores": {"primary", "v"},

	// Any focused text input
	"clear_input": {"primary", "u"},
}

// DefaultKeybindings returns the alt / alt+shift scheme with no overrides.
func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{Primary: defaultPrimary, Secondary: defaultSecondary},
	}
}

// LoadKeybindings reads <dataDir>/keybindings.toml, writing the commented
// template there first if the file does not exist yet.
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	cfg := DefaultKeybindings()
	path := filepath.Join(dataDir, "keybindings.toml")

	if !FileExists(path) {
		if err := CreateDefaultKeybindings(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create keybindings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}
	if cfg.Modifiers.Primary == "" {
		cfg.Modifiers.Primary = defaultPrimary
	}
	if cfg.Modifiers.Secondary == "" {
		cfg.Modifiers.Secondary = defaultSecondary
	}
	return cfg, nil
}

// CreateDefaultKeybindings writes the template unless the file already exists.
func CreateDefaultKeybindings(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dataDir, "keybindings.toml")
	if FileExists(path) {
		return nil
	}
	if err := os.WriteFile(path, []byte(GenerateKeybindingsTemplate()), 0600); err != nil {
		return fmt.Errorf("failed to write keybindings: %w", err)
	}
	return nil
}

func GenerateKeybindingsTemplate() string {
	return `# assistui keybindings
#
# Every shortcut that takes a modifier uses one of the two below. Change
# them here if alt is already taken by your terminal or window manager.

[modifiers]
primary = "alt"
secondary = "alt+shift"

# Ctrl instead of alt (expect clashes with ctrl+c / ctrl+d):
#   primary = "ctrl"
#   secondary = "ctrl+shift"

# Single actions can be rebound to any key string bubbletea understands.
# An entry here ignores the modifiers above.

[actions]
# Refresh with F5 and move quit out of easy reach:
#   refresh_assistants = "f5"
#   quit = "ctrl+shift+q"
#
# Chat view:
#   help about api_key search_messages vector_stores run_instructions
#   attach_file refresh_assistants new_assistant delete_assistant
#   filter_assistants focus_next scroll_down scroll_up scroll_down_arrow
#   scroll_up_arrow half_page_down half_page_up page_down page_up
#   scroll_to_top scroll_to_bottom quit cancel_stream yank_last_response
#   export_conversation clear_conversation clear_input
#
# Vector store manager:
#   store_new store_delete store_upload store_attach store_files
#   file_remove file_delete close_stores
`
}

func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return defaultPrimary
	}
	return kb.Modifiers.Primary
}

func (kb *KeyBindingsConfig) Secondary() string {
	if kb.Modifiers.Secondary == "" {
		return defaultSecondary
	}
	return kb.Modifiers.Secondary
}

// GetActionKey returns the key string bubbletea reports for action, or ""
// for an unknown action. A user override in [actions] takes precedence.
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if key := kb.Actions[action]; key != "" {
		return key
	}

	def, ok := actionRegistry[action]
	if !ok {
		return ""
	}
	switch def.modifier {
	case "primary":
		return bindKey(kb.Primary(), def.key)
	case "secondary":
		return bindKey(kb.Secondary(), def.key)
	default:
		return def.key
	}
}

// bindKey joins a modifier and a key. Terminals deliver shift plus a letter
// as the uppercase letter, so "alt+shift" and "x" become "alt+X".
func bindKey(mod, key string) string {
	if len(key) != 1 || key[0] < 'a' || key[0] > 'z' {
		return mod + "+" + key
	}

	var mods []string
	shifted := false
	for _, m := range strings.Split(mod, "+") {
		if strings.EqualFold(m, "shift") {
			shifted = true
			continue
		}
		mods = append(mods, m)
	}
	if !shifted {
		return mod + "+" + key
	}
	key = strings.ToUpper(key)
	if len(mods) == 0 {
		return key
	}
	return strings.Join(mods, "+") + "+" + key
}

// DisplayActionKey is GetActionKey formatted for the help and status bars,
// e.g. "alt+X" shows as "Alt+Shift+X".
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	return displayKey(kb.GetActionKey(action))
}

func displayKey(key string) string {
	if key == "" {
		return ""
	}
	parts := strings.Split(key, "+")
	hasShift := false
	for _, p := range parts {
		if strings.EqualFold(p, "shift") {
			hasShift = true
		}
	}

	out := make([]string, 0, len(parts)+1)
	for i, p := range parts {
		if p == "" {
			continue
		}
		if len(p) == 1 && p[0] >= 'A' && p[0] <= 'Z' && i > 0 && !hasShift {
			out = append(out, "Shift")
		}
		out = append(out, strings.ToUpper(p[:1])+p[1:])
	}
	return strings.Join(out, "+")
}

// Validate reports whether the modifiers are usable, plus a warning to
// show at startup when they are usable but likely to clash.
func (kb *KeyBindingsConfig) Validate() (bool, string) {
	primary, secondary := kb.Primary(), kb.Secondary()

	if primary == "shift" || secondary == "shift" {
		return false, "Shift alone conflicts with typing"
	}
	if strings.Contains(primary, "ctrl") || strings.Contains(secondary, "ctrl") {
		return true, "Warning: Ctrl may conflict with terminal shortcuts (Ctrl+C, Ctrl+Z, Ctrl+D)"
	}
	return true, ""
}
