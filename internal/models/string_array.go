package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray is stored as a JSON array in a text column so the same model
// works on postgres, mysql and sqlite. Legacy postgres array literals
// ({a,b,c}) are still accepted when scanning.
type StringArray []string

// Scan implements the sql.Scanner interface
func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return s.Scan(string(v))
	case string:
		v = strings.TrimSpace(v)
		if v == "" || v == "{}" || v == "[]" || v == "null" {
			*s = StringArray{}
			return nil
		}

		if strings.HasPrefix(v, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(v), &arr); err != nil {
				return fmt.Errorf("failed to decode string array: %w", err)
			}
			*s = arr
			return nil
		}

		trimmed := strings.Trim(v, "{}")
		parts := strings.Split(trimmed, ",")
		result := make([]string, len(parts))
		for i, part := range parts {
			result[i] = strings.Trim(strings.TrimSpace(part), "\"")
		}
		*s = result
		return nil
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
}

// Value implements the driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}

	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
