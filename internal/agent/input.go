package agent

import (
	"fmt"
	"regexp"
	"strings"
)

// optString reads an optional string field; a present non-string is invalid
func optString(input map[string]any, key, def string) (string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", Permanent(fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidInput, key, v))
	}
	if s = strings.TrimSpace(s); s == "" {
		return def, nil
	}
	return s, nil
}

// optStringList accepts either a comma separated string or a list of strings
func optStringList(input map[string]any, key string, def []string) ([]string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return def, nil
	}
	var raw []string
	switch val := v.(type) {
	case string:
		raw = strings.Split(val, ",")
	case []string:
		raw = val
	case []any:
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, Permanent(fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidInput, key, i, item))
			}
			raw = append(raw, s)
		}
	default:
		return nil, Permanent(fmt.Errorf("%w: %s must be a string or list of strings, got %T", ErrInvalidInput, key, v))
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return def, nil
	}
	return out, nil
}

// Endpoint is one entry of the architecture api-spec.json
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// optEndpoints reads input.endpoints as a list of {method, path, description}
func optEndpoints(input map[string]any, key string) ([]Endpoint, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, Permanent(fmt.Errorf("%w: %s must be a list, got %T", ErrInvalidInput, key, v))
	}
	endpoints := make([]Endpoint, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, Permanent(fmt.Errorf("%w: %s[%d] must be an object", ErrInvalidInput, key, i))
		}
		var ep Endpoint
		var err error
		if ep.Method, err = optString(m, "method", "GET"); err != nil {
			return nil, err
		}
		if ep.Path, err = optString(m, "path", ""); err != nil {
			return nil, err
		}
		if ep.Description, err = optString(m, "description", ""); err != nil {
			return nil, err
		}
		if !strings.HasPrefix(ep.Path, "/") {
			return nil, Permanent(fmt.Errorf("%w: %s[%d].path must start with /", ErrInvalidInput, key, i))
		}
		ep.Method = strings.ToUpper(ep.Method)
		endpoints = append(endpoints, ep)
	}
	return endpoints, nil
}

var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// componentName validates a name that becomes part of a file path
func componentName(key, s string) (string, error) {
	if !identRe.MatchString(s) {
		return "", Permanent(fmt.Errorf("%w: %s entry %q is not a valid identifier", ErrInvalidInput, key, s))
	}
	return s, nil
}

// routeName derives a file stem from an endpoint path, "/api/users/:id" -> "users"
func routeName(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, p := range parts {
		if p == "" || p == "api" || strings.HasPrefix(p, ":") || strings.HasPrefix(p, "{") {
			continue
		}
		if identRe.MatchString(p) {
			return p
		}
	}
	return "main"
}

func limit[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
