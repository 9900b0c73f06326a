package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON free-form metadata column stored as serialized JSON
type JSON map[string]interface{}

// Value serializes for database writes
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	data, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes from database reads
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported json column type")
	}
	if len(data) == 0 {
		*j = nil
		return nil
	}
	return json.Unmarshal(data, j)
}
