package tasks

import (
	"bytes"
	"encoding/json"

	"taskflow/models"
)

// ParsePatch decodes a JSON object into a typed task patch. Only title,
// description, priority, category_id, status, due_date and position are
// read; other keys are ignored. Values are type-checked but not validated.
func ParsePatch(data []byte) (models.TaskPatch, error) {
	var p models.TaskPatch

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return p, models.ValidationError("Request body must be a JSON object")
	}

	var err error
	for key, raw := range fields {
		switch key {
		case "title":
			p.Title, err = required[string](key, raw)
		case "description":
			p.Description, err = nullable[string](key, raw)
		case "priority":
			var v *string
			if v, err = required[string](key, raw); err == nil {
				pr := models.Priority(*v)
				p.Priority = &pr
			}
		case "category_id":
			p.CategoryID, err = nullable[int64](key, raw)
		case "status":
			var v *string
			if v, err = required[string](key, raw); err == nil {
				st := models.Status(*v)
				p.Status = &st
			}
		case "due_date":
			p.DueDate, err = nullable[string](key, raw)
			if err == nil && !p.DueDate.Null && p.DueDate.Value == "" {
				p.DueDate.Null = true
			}
		case "position":
			p.Position, err = required[int](key, raw)
		}
		if err != nil {
			return models.TaskPatch{}, err
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, data); err == nil {
		p.Raw = compact.Bytes()
	} else {
		p.Raw = data
	}
	return p, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func required[T any](key string, raw json.RawMessage) (*T, error) {
	if isNull(raw) {
		return nil, models.ValidationError("%s cannot be null", key)
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, models.ValidationError("Invalid value for %s", key)
	}
	return &v, nil
}

func nullable[T any](key string, raw json.RawMessage) (*models.Nullable[T], error) {
	if isNull(raw) {
		return &models.Nullable[T]{Null: true}, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, models.ValidationError("Invalid value for %s", key)
	}
	return &models.Nullable[T]{Value: v}, nil
}
