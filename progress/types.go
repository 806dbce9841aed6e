// Package progress tracks install/upgrade runs, their stages and tasks, and
// component initialization, and mirrors every event to a line-oriented log.
package progress

import "strings"

// Action is the top-level run mode
type Action int

const (
	ActionUnknown Action = iota
	ActionInstall
	ActionUpgrade
)

func (a Action) String() string {
	switch a {
	case ActionInstall:
		return "INSTALL"
	case ActionUpgrade:
		return "UPGRADE"
	}
	return "UNKNOWN"
}

// ParseAction maps install/upgrade (any case) to an Action
func ParseAction(value string) Action {
	switch strings.ToUpper(value) {
	case "INSTALL":
		return ActionInstall
	case "UPGRADE":
		return ActionUpgrade
	}
	return ActionUnknown
}

// MarshalText renders the action name in probes
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText reads the action name back
func (a *Action) UnmarshalText(text []byte) error {
	*a = ParseAction(string(text))
	return nil
}

// Stage is a named phase of an action
type Stage string

const (
	StageSchema           Stage = "SCHEMA"
	StageDefaultData      Stage = "DEFAULT_DATA"
	StageMigration        Stage = "MIGRATION"
	StagePropertyOverride Stage = "PROPERTY_OVERRIDE"
)

// Handler receives lifecycle events. Task-level errors are stored, never
// returned.
type Handler interface {
	BeginAction(name string, action Action)
	BeginStage(name string, stage Stage, totalTasks int)
	BeginTask(name string, stage Stage, taskKey, taskLabel string)
	EndTask(name string, stage Stage, taskKey, taskLabel string, err error)
	EndStage(name string, stage Stage)
	EndAction(name string, action Action, err error)

	BeginBean(id, typeName string)
	EndBean(id, typeName string)

	OnApplicationReady()
}
