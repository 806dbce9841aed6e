package dsl

import (
	"fmt"
	"path"
	"sort"

	"github.com/pkg/errors"
	"github.com/serenize/snaker"
	"github.com/spf13/afero"

	"github.com/titpetric/ocpbootstrap/data"
)

// LoadConfig loads every *.yaml / *.yml document under dir into one module config
func (l *Loader) LoadConfig(module, dir string) (*data.Config, error) {
	files := []string{}
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := afero.Glob(l.fs, path.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrapf(err, "listing documents in %s", dir)
		}
		files = append(files, matches...)
	}
	sort.Strings(files)

	cfg := data.NewConfig(module)
	for _, filename := range files {
		doc, err := l.LoadFile(filename)
		if err != nil {
			return nil, err
		}
		if err := decodeConfig(cfg, doc); err != nil {
			return nil, errors.Wrapf(err, "document %s", filename)
		}
	}
	return cfg, nil
}

// DecodeConfig fills a module config from a loaded document
func DecodeConfig(module string, doc data.Row) (*data.Config, error) {
	cfg := data.NewConfig(module)
	if err := decodeConfig(cfg, doc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeConfig(cfg *data.Config, doc data.Row) error {
	doc = normalizeKeys(doc)
	if module, ok := doc.Get("module"); ok && module != nil && fmt.Sprint(module) != cfg.Module {
		return errors.Errorf("document belongs to module '%v', loading '%s'", module, cfg.Module)
	}

	tables, err := mappings(doc, "tables")
	if err != nil {
		return err
	}
	for idx, item := range tables {
		table := data.TableDefinition{
			Name: stringValue(item, "name"),
			DDL:  stringValue(item, "ddl"),
		}
		if table.Name == "" || table.DDL == "" {
			return errors.Errorf("tables[%d] needs name and ddl", idx)
		}
		cfg.AddTable(table)
	}

	definitions, err := mappings(doc, "data")
	if err != nil {
		return err
	}
	for idx, item := range definitions {
		def := data.DataDefinition{
			TableName: stringValue(item, "table"),
		}
		if def.Rows, err = rows(item, "rows"); err != nil {
			return errors.Wrapf(err, "data[%d]", idx)
		}
		if def.DeleteRows, err = rows(item, "delete"); err != nil {
			return errors.Wrapf(err, "data[%d]", idx)
		}
		if def.OnDuplicateUpdate, err = stringList(item, "on_duplicate_update"); err != nil {
			return errors.Wrapf(err, "data[%d]", idx)
		}
		if err := cfg.AddData(def); err != nil {
			return errors.Wrapf(err, "data[%d]", idx)
		}
	}

	migrations, err := mappings(doc, "migrations")
	if err != nil {
		return err
	}
	for idx, item := range migrations {
		m := data.Migration{
			Name:        stringValue(item, "name"),
			Version:     stringValue(item, "version"),
			TargetTable: stringValue(item, "target_table"),
			Source:      stringValue(item, "source"),
			Expr:        stringValue(item, "expr"),
		}
		if m.Name == "" {
			return errors.Errorf("migrations[%d] has no name", idx)
		}
		if m.Rows, err = rows(item, "rows"); err != nil {
			return errors.Wrapf(err, "migration '%s'", m.Name)
		}
		if m.UpdateBy, err = stringList(item, "update_by"); err != nil {
			return errors.Wrapf(err, "migration '%s'", m.Name)
		}
		if m.DeleteBy, err = stringList(item, "delete_by"); err != nil {
			return errors.Wrapf(err, "migration '%s'", m.Name)
		}
		if with, ok := item.Get("with"); ok && with != nil {
			bindings, ok := with.(data.Row)
			if !ok {
				return errors.Errorf("migration '%s': with must be a mapping", m.Name)
			}
			m.With = make(map[string]interface{}, bindings.Len())
			for _, f := range bindings.Fields() {
				m.With[f.Name] = f.Value
			}
		}
		if err := cfg.AddMigration(m); err != nil {
			return err
		}
	}
	return nil
}

// normalizeKeys maps camelCase keys to snake_case, recursing into
// definition lists but never into row contents
func normalizeKeys(row data.Row) data.Row {
	fields := row.Fields()
	for idx, f := range fields {
		fields[idx].Name = snaker.CamelToSnake(f.Name)
		switch f.Name {
		case "tables", "data", "migrations":
			if list, ok := f.Value.([]interface{}); ok {
				normalized := make([]interface{}, len(list))
				for i, item := range list {
					if r, ok := item.(data.Row); ok {
						normalized[i] = normalizeKeys(r)
						continue
					}
					normalized[i] = item
				}
				fields[idx].Value = normalized
			}
		}
	}
	return data.NewRow(fields...)
}

func mappings(row data.Row, key string) ([]data.Row, error) {
	value, ok := row.Get(key)
	if !ok || value == nil {
		return nil, nil
	}
	list, ok := value.([]interface{})
	if !ok {
		return nil, errors.Errorf("'%s' must be a list", key)
	}
	result := make([]data.Row, 0, len(list))
	for idx, item := range list {
		r, ok := item.(data.Row)
		if !ok {
			return nil, errors.Errorf("%s[%d] must be a mapping", key, idx)
		}
		result = append(result, r)
	}
	return result, nil
}

func rows(row data.Row, key string) ([]data.Row, error) {
	result, err := mappings(row, key)
	if err != nil {
		return nil, err
	}
	for idx, r := range result {
		for _, f := range r.Fields() {
			switch f.Value.(type) {
			case data.Row, []interface{}:
				return nil, errors.Errorf("%s[%d].%s must be a scalar", key, idx, f.Name)
			}
		}
	}
	return result, nil
}

func stringList(row data.Row, key string) ([]string, error) {
	value, ok := row.Get(key)
	if !ok || value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			result = append(result, fmt.Sprint(item))
		}
		return result, nil
	}
	return nil, errors.Errorf("'%s' must be a string or a list of strings", key)
}

func stringValue(row data.Row, key string) string {
	value, ok := row.Get(key)
	if !ok || value == nil {
		return ""
	}
	return fmt.Sprint(value)
}
