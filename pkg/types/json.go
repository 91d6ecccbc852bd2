package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONMap is free-form metadata kept next to a payment in a JSONB column.
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONMap) Scan(value any) error {
	*j = nil
	return scanJSON(value, j)
}

// scanJSON decodes a JSON column into dst. NULL leaves dst untouched; drivers
// hand JSONB back as string or []byte depending on the dialect.
func scanJSON(value, dst any) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("unsupported scan type %T", value)
	}
	return json.Unmarshal(raw, dst)
}
