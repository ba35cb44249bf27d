// Package env provides read access to environment variables from the process
// environment, in-memory snapshots, and layered combinations of both.
package env

import (
	"os"
	"strconv"
	"strings"
)

// Values is a read-only source of named environment values.
type Values interface {
	// Lookup returns the raw value of name and whether it is set.
	Lookup(name string) (string, bool)
}

// String returns the value of name if it is set to a non-empty string.
func String(v Values, name string) (string, bool) {
	if v == nil {
		return "", false
	}
	value, ok := v.Lookup(name)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Int returns the value of name parsed as a base-10 integer.
// Values that are unset, empty or not integers are reported as absent.
func Int(v Values, name string) (int, bool) {
	value, ok := String(v, name)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool reports whether name is set to a value strconv.ParseBool accepts as true.
func Bool(v Values, name string) bool {
	value, ok := String(v, name)
	if !ok {
		return false
	}
	return ParseBool(value)
}

// ParseBool reports whether strconv.ParseBool accepts value as true.
// Values it cannot parse are false.
func ParseBool(value string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && b
}

type osValues struct{}

func (osValues) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// OS returns Values backed by the current process environment.
func OS() Values {
	return osValues{}
}

// Map is a snapshot of environment values.
type Map map[string]string

// Lookup implements Values.
func (m Map) Lookup(name string) (string, bool) {
	value, ok := m[name]
	return value, ok
}

// FromSlice builds a Map from KEY=value pairs as returned by os.Environ().
// Entries without "=" are ignored; later duplicates win.
func FromSlice(environ []string) Map {
	m := make(Map, len(environ))
	for _, kv := range environ {
		if parts := strings.SplitN(kv, "=", 2); len(parts) == 2 {
			m[parts[0]] = parts[1]
		}
	}
	return m
}

// Snapshot copies the current process environment into a Map.
func Snapshot() Map {
	return FromSlice(os.Environ())
}

type layered []Values

func (l layered) Lookup(name string) (string, bool) {
	for _, v := range l {
		if v == nil {
			continue
		}
		if value, ok := v.Lookup(name); ok {
			return value, true
		}
	}
	return "", false
}

// Layered combines several sources. The first source that has name set wins,
// so sources must be passed from highest to lowest priority.
func Layered(sources ...Values) Values {
	return layered(sources)
}
