// Package config handles generic configuration Params, a map[string]string
// that callers build from a comma-separated "key=value" command-line token or
// set up directly in code.
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Params represents generic configuration parameters shared by the planner,
// its action solvers, and the concrete environments.
type Params map[string]string

// NewFromConfigString creates Params from a user-supplied configuration
// string such as "strategy=GGF,considerpast,maxdepth=50".
//
// A key with no "=value" part is recorded with an empty value, which
// PopOr/GetOr treat as boolean true.
func NewFromConfigString(config string) Params {
	params := make(Params)
	if config == "" {
		return params
	}
	for _, part := range strings.Split(config, ",") {
		subParts := strings.SplitN(part, "=", 2)
		if len(subParts) == 1 {
			params[subParts[0]] = ""
		} else {
			params[subParts[0]] = subParts[1]
		}
	}
	return params
}

// PopOr is like GetOr, but also deletes the retrieved key from params.
func PopOr[T interface {
	bool | int | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	value, err := GetOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// GetOr parses the parameter named key to type T if present, or returns
// defaultValue if key is absent.
//
// For bool types, a key present with no value is interpreted as true.
func GetOr[T interface {
	bool | int | float64 | string
}](params Params, key string, defaultValue T) (T, error) {
	vAny := any(defaultValue)
	var zero T
	toT := func(v any) T { return v.(T) }
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	switch vAny.(type) {
	case string:
		return toT(value), nil
	case int:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return zero, errors.Wrapf(err, "failed to parse configuration %s=%q to int", key, value)
		}
		return toT(parsed), nil
	case float64:
		if value == "" {
			return defaultValue, nil
		}
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return zero, errors.Wrapf(err, "failed to parse configuration %s=%q to float", key, value)
		}
		return toT(parsed), nil
	case bool:
		if value == "" || strings.EqualFold(value, "true") || value == "1" {
			return toT(true), nil
		}
		if strings.EqualFold(value, "false") || value == "0" {
			return toT(false), nil
		}
		return zero, errors.Errorf("failed to parse configuration %s=%q as bool", key, value)
	}
	return defaultValue, nil
}
