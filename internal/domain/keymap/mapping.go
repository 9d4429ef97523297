package keymap

import (
	"strings"

	"github.com/google/uuid"

	"github.com/jbctechsolutions/tilekit/internal/domain/errors"
)

// ActionKind is the operation a shortcut triggers.
type ActionKind string

const (
	ActionSwitchWorkspace  ActionKind = "switch-workspace"
	ActionMoveWindow       ActionKind = "move-window"
	ActionResizeWindow     ActionKind = "resize-window"
	ActionCreateWorkspace  ActionKind = "create-workspace"
	ActionDeleteWorkspace  ActionKind = "delete-workspace"
	ActionToggleFloating   ActionKind = "toggle-floating"
	ActionToggleFullscreen ActionKind = "toggle-fullscreen"
	ActionFocusNext        ActionKind = "focus-next"
	ActionFocusPrevious    ActionKind = "focus-previous"
	ActionCloseWindow      ActionKind = "close-window"
	ActionRefreshLayout    ActionKind = "refresh-layout"
)

// Scope restricts where a mapping is active.
type Scope string

const (
	// ScopeGlobal mappings fire regardless of the focused application.
	ScopeGlobal Scope = "global"
	// ScopeApplication mappings fire only while a managed application has focus.
	ScopeApplication Scope = "application"
)

// ResizeDirection parameterizes resize-window actions.
type ResizeDirection string

const (
	ResizeGrow         ResizeDirection = "grow"
	ResizeShrink       ResizeDirection = "shrink"
	ResizeGrowWidth    ResizeDirection = "grow-width"
	ResizeShrinkWidth  ResizeDirection = "shrink-width"
	ResizeGrowHeight   ResizeDirection = "grow-height"
	ResizeShrinkHeight ResizeDirection = "shrink-height"
)

// Params is the opaque parameter payload of a mapping. Which field is
// meaningful depends on the action kind; Validate enforces the pairing.
type Params struct {
	TargetID      string          `yaml:"target_id,omitempty"`      // workspace id for switch/move
	WorkspaceName string          `yaml:"workspace_name,omitempty"` // for create-workspace
	Resize        ResizeDirection `yaml:"resize,omitempty"`
	ResizeAmount  int             `yaml:"resize_amount,omitempty"`
	// Position switches by workspace ordinal instead of id when TargetID is
	// empty, so numeric shortcuts work before workspaces get ids assigned.
	Position int `yaml:"position,omitempty"`
}

// Mapping binds a shortcut combination to an action within a scope.
type Mapping struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Combination Combination `yaml:"combination"`
	Action      ActionKind  `yaml:"action"`
	Params      Params      `yaml:"params"`
	Enabled     bool        `yaml:"enabled"`
	Scope       Scope       `yaml:"scope"`
	Description string      `yaml:"description,omitempty"`
}

// NewMapping creates an enabled, global mapping with a fresh id.
func NewMapping(name string, combo Combination, action ActionKind, params Params) (*Mapping, error) {
	m := &Mapping{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(name),
		Combination: combo,
		Action:      action,
		Params:      params,
		Enabled:     true,
		Scope:       ScopeGlobal,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the mapping invariants, including that the parameter
// payload matches the action kind.
func (m *Mapping) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.Validation("mapping name cannot be empty", errors.ErrNameRequired)
	}
	if err := m.Combination.Validate(); err != nil {
		return err
	}
	if m.Scope != ScopeGlobal && m.Scope != ScopeApplication {
		return errors.Validation("unknown mapping scope: "+string(m.Scope), nil)
	}
	return m.validateParams()
}

func (m *Mapping) validateParams() error {
	switch m.Action {
	case ActionSwitchWorkspace:
		// target id or position; both empty is allowed for defaults that are
		// bound to workspaces later
	case ActionMoveWindow:
		if m.Params.TargetID == "" && m.Params.Position == 0 {
			return errors.Validation("move-window requires a target workspace", nil)
		}
	case ActionResizeWindow:
		if m.Params.Resize == "" {
			return errors.Validation("resize-window requires a direction", nil)
		}
		if m.Params.ResizeAmount <= 0 {
			return errors.Validation("resize amount must be greater than zero", nil)
		}
	case ActionCreateWorkspace:
		if strings.TrimSpace(m.Params.WorkspaceName) == "" {
			return errors.Validation("create-workspace requires a workspace name", nil)
		}
	case ActionDeleteWorkspace, ActionToggleFloating, ActionToggleFullscreen,
		ActionFocusNext, ActionFocusPrevious, ActionCloseWindow, ActionRefreshLayout:
	default:
		return errors.Validation("unknown action kind: "+string(m.Action), nil)
	}
	return nil
}

// ConflictsWith reports whether two enabled mappings claim the same chord in
// the same scope.
func (m *Mapping) ConflictsWith(other *Mapping) bool {
	return m.Enabled && other.Enabled &&
		m.ID != other.ID &&
		m.Scope == other.Scope &&
		m.Combination.Equal(other.Combination)
}

// Clone returns a deep copy of the mapping.
func (m *Mapping) Clone() *Mapping {
	c := *m
	c.Combination = NewCombination(m.Combination.Key, m.Combination.Modifiers...)
	return &c
}

// DefaultMappings returns the mapping set installed on first run: safe-modifier
// switch shortcuts for the first nine workspaces plus common window actions.
func DefaultMappings() []*Mapping {
	mappings := make([]*Mapping, 0, 14)
	digits := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"}
	for i, d := range digits {
		m, _ := NewMapping(
			"Switch to Workspace "+d,
			NewCombination(d, SafeModifier),
			ActionSwitchWorkspace,
			Params{Position: i + 1},
		)
		mappings = append(mappings, m)
	}

	defaults := []struct {
		name   string
		combo  Combination
		action ActionKind
	}{
		{"Focus Next Window", NewCombination("tab", SafeModifier), ActionFocusNext},
		{"Focus Previous Window", NewCombination("tab", SafeModifier, ModShift), ActionFocusPrevious},
		{"Close Window", NewCombination("w", SafeModifier), ActionCloseWindow},
		{"Toggle Fullscreen", NewCombination("f", SafeModifier, ModControl), ActionToggleFullscreen},
		{"Toggle Floating", NewCombination("f", SafeModifier, ModShift), ActionToggleFloating},
	}
	for _, d := range defaults {
		m, _ := NewMapping(d.name, d.combo, d.action, Params{})
		mappings = append(mappings, m)
	}
	return mappings
}
