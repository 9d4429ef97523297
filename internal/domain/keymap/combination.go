// Package keymap defines keyboard shortcut combinations and the mapping
// entity that binds a combination to a workspace or window action.
package keymap

import (
	"sort"
	"strings"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
)

// Modifier is a held modifier key in a shortcut chord.
type Modifier string

const (
	ModCommand  Modifier = "cmd"   // reserved by the host OS for system shortcuts
	ModOption   Modifier = "opt"   // the designated safe modifier
	ModControl  Modifier = "ctrl"
	ModShift    Modifier = "shift"
	ModFunction Modifier = "fn"
)

// ReservedModifier is the modifier the host OS claims for system shortcuts.
// Mappings loaded from sources that predate the safe-modifier policy are
// rewritten from this modifier to SafeModifier.
const ReservedModifier = ModCommand

// SafeModifier is the designated modifier that avoids collisions with
// host-OS-reserved shortcuts.
const SafeModifier = ModOption

// glyphs for pretty-printing combinations the way the host OS renders them.
var modifierGlyphs = map[Modifier]string{
	ModCommand:  "⌘",
	ModOption:   "⌥",
	ModControl:  "⌃",
	ModShift:    "⇧",
	ModFunction: "fn",
}

// modifier chord ordering for canonical form.
var modifierOrder = map[Modifier]int{
	ModFunction: 0,
	ModControl:  1,
	ModOption:   2,
	ModShift:    3,
	ModCommand:  4,
}

// Combination is an ordered modifier set plus a primary key.
// Construct through NewCombination so the modifier set is sorted and deduped;
// two combinations with the same chord then compare equal by Key().
type Combination struct {
	Modifiers []Modifier `yaml:"modifiers"`
	Key       string     `yaml:"key"`
}

// NewCombination builds a canonical combination: modifiers sorted into chord
// order and deduplicated, key lowercased.
func NewCombination(key string, modifiers ...Modifier) Combination {
	seen := make(map[Modifier]bool, len(modifiers))
	mods := make([]Modifier, 0, len(modifiers))
	for _, m := range modifiers {
		if !seen[m] {
			seen[m] = true
			mods = append(mods, m)
		}
	}
	sort.Slice(mods, func(i, j int) bool {
		return modifierOrder[mods[i]] < modifierOrder[mods[j]]
	})
	return Combination{Modifiers: mods, Key: strings.ToLower(strings.TrimSpace(key))}
}

// ParseCombination parses a textual chord like "opt+shift+1" or "cmd+w".
func ParseCombination(raw string) (Combination, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "+")
	if len(parts) < 2 {
		return Combination{}, errors.Validation("shortcut must have at least one modifier: "+raw, nil)
	}
	key := strings.TrimSpace(parts[len(parts)-1])
	if key == "" {
		return Combination{}, errors.Validation("shortcut key cannot be empty: "+raw, nil)
	}
	mods := make([]Modifier, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		m, err := parseModifier(p)
		if err != nil {
			return Combination{}, err
		}
		mods = append(mods, m)
	}
	return NewCombination(key, mods...), nil
}

func parseModifier(s string) (Modifier, error) {
	switch strings.TrimSpace(s) {
	case "cmd", "command":
		return ModCommand, nil
	case "opt", "option", "alt":
		return ModOption, nil
	case "ctrl", "control":
		return ModControl, nil
	case "shift":
		return ModShift, nil
	case "fn", "function":
		return ModFunction, nil
	}
	return "", errors.Validation("unknown modifier: "+s, nil)
}

// ChordKey returns the canonical textual form, usable as a map key.
func (c Combination) ChordKey() string {
	parts := make([]string, 0, len(c.Modifiers)+1)
	for _, m := range c.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, c.Key)
	return strings.Join(parts, "+")
}

// Equal reports whether two combinations denote the same chord.
func (c Combination) Equal(other Combination) bool {
	return c.ChordKey() == other.ChordKey()
}

// HasModifier reports whether the chord includes the given modifier.
func (c Combination) HasModifier(m Modifier) bool {
	for _, mod := range c.Modifiers {
		if mod == m {
			return true
		}
	}
	return false
}

// Validate checks the combination invariants: at least one modifier, a
// non-empty key, and no use of the OS-reserved modifier.
func (c Combination) Validate() error {
	if len(c.Modifiers) == 0 {
		return errors.Validation("shortcut must have at least one modifier", nil)
	}
	if strings.TrimSpace(c.Key) == "" {
		return errors.Validation("shortcut key cannot be empty", nil)
	}
	if c.HasModifier(ReservedModifier) {
		return errors.Validation("shortcut uses the OS-reserved modifier "+string(ReservedModifier), errors.ErrShortcutReserved)
	}
	return nil
}

// MigrateToSafe rewrites the reserved modifier to the safe modifier in the
// same chord position, preserving the remaining modifiers and key. It is
// idempotent: combinations that already use the safe modifier come back
// unchanged. The boolean reports whether a rewrite happened.
func (c Combination) MigrateToSafe() (Combination, bool) {
	if !c.HasModifier(ReservedModifier) {
		return c, false
	}
	mods := make([]Modifier, 0, len(c.Modifiers))
	for _, m := range c.Modifiers {
		if m == ReservedModifier {
			m = SafeModifier
		}
		mods = append(mods, m)
	}
	return NewCombination(c.Key, mods...), true
}

// String renders the combination with host-OS glyphs, e.g. "⌥⇧1".
func (c Combination) String() string {
	var b strings.Builder
	for _, m := range c.Modifiers {
		b.WriteString(modifierGlyphs[m])
	}
	b.WriteString(strings.ToUpper(c.Key))
	return b.String()
}
