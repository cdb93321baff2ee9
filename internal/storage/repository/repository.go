// Package repository contains the database access layer. Each repository
// is an interface with an unexported sql implementation so tests can
// substitute fakes.
package repository

import (
	"encoding/json"
	"errors"
)

// ErrNotFound is returned when a requested record does not exist (or does
// not belong to the requesting user).
var ErrNotFound = errors.New("record not found")

// toJSON marshals v for storage in a TEXT column. Marshaling the model
// types cannot fail; a nil slice/map is stored as its empty literal.
func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func stringsFromJSON(s string) []string {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func mapFromJSON(s string) map[string]string {
	var out map[string]string
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return map[string]string{}
	}
	return out
}
