package database

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// List-valued columns are stored as JSON text so the schema stays portable
// between sqlite and postgres.

func encodeJSON(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode column")
	}
	return string(data), nil
}

func decodeJSON(raw string, v interface{}) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return errors.Wrap(err, "failed to decode column")
	}
	return nil
}
