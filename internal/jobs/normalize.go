package jobs

import "strings"

// NormalizeStage coerces a stored or user-supplied value into a known stage.
// Anything unrecognised becomes the initial stage.
func NormalizeStage(value any) Stage {
	raw, ok := asString(value)
	if !ok {
		return InitialStage
	}
	stage := Stage(strings.ToLower(strings.TrimSpace(raw)))
	if !stage.Valid() {
		return InitialStage
	}
	return stage
}

// NormalizeStatus coerces a value into a known status, defaulting to active.
func NormalizeStatus(value any) Status {
	raw, ok := asString(value)
	if !ok {
		return StatusActive
	}
	status := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return StatusActive
	}
	return status
}

// NormalizeTags accepts a list of strings or a single comma separated string.
// Elements are trimmed and empty ones dropped; order and duplicates are kept.
func NormalizeTags(value any) []string {
	out := []string{}
	switch v := value.(type) {
	case []string:
		for _, tag := range v {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	case []any:
		for _, item := range v {
			tag, ok := item.(string)
			if !ok {
				continue
			}
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	case string:
		for _, tag := range strings.Split(v, ",") {
			if trimmed := strings.TrimSpace(tag); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	case *string:
		if v != nil {
			return NormalizeTags(*v)
		}
	}
	return out
}

// PickStringOrNull trims string input and returns nil for blanks and non-strings.
func PickStringOrNull(value any) *string {
	raw, ok := asString(value)
	if !ok {
		return nil
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	case Stage:
		return string(v), true
	case *Stage:
		if v == nil {
			return "", false
		}
		return string(*v), true
	case Status:
		return string(v), true
	default:
		return "", false
	}
}
