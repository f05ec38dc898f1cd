package core

import (
	"strconv"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// InvalidPKText is the field error reported for references to objects that do not exist.
func InvalidPKText(id int) string {
	return "invalid pk \"" + strconv.Itoa(id) + "\" - object does not exist"
}

// UniqueTogetherText is the error reported when a set of fields must be unique together.
func UniqueTogetherText(fields ...string) string {
	return "the fields " + strings.Join(fields, ", ") + " must make a unique set"
}
