package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a list of strings persisted as JSON text
type StringList []string

// Value implements driver.Valuer interface
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	bytes, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(bytes), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	if len(bytes) == 0 {
		*l = StringList{}
		return nil
	}

	var tmp []string
	if err := json.Unmarshal(bytes, &tmp); err != nil {
		return err
	}
	*l = StringList(tmp)
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}
