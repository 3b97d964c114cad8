package xquery

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

func ParseDate(query url.Values, name string, defaultValue string) string {
	value := query.Get(name)
	if value == "" {
		return defaultValue
	}

	if _, err := time.Parse(time.DateOnly, value); err != nil {
		return defaultValue
	}
	return value
}

// ParseBool accepts everything strconv.ParseBool does plus the html checkbox values "on" and "off".
func ParseBool(query url.Values, name string, defaultValue bool) bool {
	value := query.Get(name)
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "on":
		return true
	case "off":
		return false
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func ParseInt(query url.Values, name string, defaultValue int) int {
	value := query.Get(name)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

func ParseString(query url.Values, name string, defaultValue string) string {
	value := query.Get(name)
	if value == "" {
		return defaultValue
	}
	return value
}
