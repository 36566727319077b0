package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/tyinfer/internal/ir"
)

// marshalErrors converts session errors to canonical JSON TEXT for storage.
func marshalErrors(errs []ErrorRecord) (string, error) {
	items := make([]any, len(errs))
	for i, e := range errs {
		items[i] = map[string]any{
			"code":     e.Code,
			"variable": e.Variable,
			"message":  e.Message,
			"position": e.Position,
		}
	}
	data, err := ir.MarshalCanonical(items)
	if err != nil {
		return "", fmt.Errorf("marshal errors: %w", err)
	}
	return string(data), nil
}

// unmarshalErrors parses the stored error list.
func unmarshalErrors(data string) ([]ErrorRecord, error) {
	if data == "" || data == "[]" {
		return []ErrorRecord{}, nil
	}
	var errs []ErrorRecord
	if err := json.Unmarshal([]byte(data), &errs); err != nil {
		return nil, fmt.Errorf("unmarshal errors: %w", err)
	}
	return errs, nil
}
