// Package models - portable JSON-backed column types
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	gormschema "gorm.io/gorm/schema"
)

// JSONB is a map column serialized as JSON. On PostgreSQL it lives in a
// jsonb column; on MySQL and SQLite it degrades to text, which keeps the
// test suite dialect-independent.
type JSONB map[string]any

// Value implements driver.Valuer.
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner.
func (j *JSONB) Scan(value any) error {
	if value == nil {
		*j = nil
		return nil
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*j = make(JSONB)
		return nil
	}
	result := make(JSONB)
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	*j = result
	return nil
}

// GormDataType lets the schema parser accept the map type; the dialect
// hook below refines it at migration time.
func (JSONB) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect.
func (JSONB) GormDBDataType(db *gorm.DB, field *gormschema.Field) string {
	return jsonColumnType(db)
}

// StringArray is a string-slice column serialized as a JSON array.
type StringArray []string

// Value implements driver.Valuer.
func (s StringArray) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan implements sql.Scanner.
func (s *StringArray) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	data, err := toBytes(value)
	if err != nil {
		return err
	}
	if len(data) == 0 {
		*s = make(StringArray, 0)
		return nil
	}
	var result []string
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	*s = result
	return nil
}

// GormDataType lets the schema parser accept the slice type.
func (StringArray) GormDataType() string {
	return "json"
}

// GormDBDataType picks the column type per dialect.
func (StringArray) GormDBDataType(db *gorm.DB, field *gormschema.Field) string {
	return jsonColumnType(db)
}

func jsonColumnType(db *gorm.DB) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "jsonb"
	case "mysql":
		return "json"
	default:
		return "text"
	}
}

func toBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported column type for JSON scan")
	}
}
