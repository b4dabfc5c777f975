package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB is a map stored in a Postgres jsonb column.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
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
		return fmt.Errorf("unsupported jsonb source type %T", value)
	}
	return json.Unmarshal(data, j)
}
