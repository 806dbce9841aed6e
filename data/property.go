package data

import "fmt"

type (
	// PropertyMeta describes a configuration property
	PropertyMeta struct {
		Key         string
		Description string

		Application string
		Profile     string
		Label       string

		NeedRestart bool
		Fatal       bool
	}

	// ConfigProperty is a stored configuration value with its default
	ConfigProperty struct {
		PropertyMeta

		Value        *string
		DefaultValue *string
	}
)

// ConfigPropertiesTable holds configuration properties in the metadata store
const ConfigPropertiesTable = "config_properties"

// ConfigPropertyFromRow reads the known columns of a config_properties row
func ConfigPropertyFromRow(row Row) ConfigProperty {
	str := func(column string) string {
		if v, ok := row.Get(column); ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	}
	ptr := func(column string) *string {
		if v, ok := row.Get(column); ok && v != nil {
			s := fmt.Sprint(v)
			return &s
		}
		return nil
	}
	flag := func(column string) bool {
		switch v := row.Value(column).(type) {
		case bool:
			return v
		case int64:
			return v != 0
		case string:
			return v == "1" || v == "true"
		}
		return false
	}
	return ConfigProperty{
		PropertyMeta: PropertyMeta{
			Key:         str("key"),
			Description: str("description"),
			Application: str("application"),
			Profile:     str("profile"),
			Label:       str("label"),
			NeedRestart: flag("need_restart"),
			Fatal:       flag("fatal"),
		},
		Value:        ptr("value"),
		DefaultValue: ptr("default_value"),
	}
}

// Row returns the insertable form of the property
func (p ConfigProperty) Row() Row {
	value := func(s *string) interface{} {
		if s == nil {
			return nil
		}
		return *s
	}
	return NewRow(
		Field{"key", p.Key},
		Field{"value", value(p.Value)},
		Field{"default_value", value(p.DefaultValue)},
		Field{"application", p.Application},
		Field{"profile", p.Profile},
		Field{"label", p.Label},
		Field{"need_restart", p.NeedRestart},
		Field{"fatal", p.Fatal},
		Field{"description", p.Description},
	)
}

// ExtractValue returns the effective value of a property lookup: the first
// non-empty `value`, else the first non-null `default_value`.
func ExtractValue(rows []Row) (string, bool) {
	for _, row := range rows {
		if v, ok := row.Get("value"); ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s, true
			}
		}
	}
	for _, row := range rows {
		if v, ok := row.Get("default_value"); ok && v != nil {
			return fmt.Sprint(v), true
		}
	}
	return "", false
}
