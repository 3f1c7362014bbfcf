package models

import (
	"regexp"
	"strings"
)

var dataURIPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

// StripDataURI removes a "data:image/...;base64," header so only the raw
// base64 payload is stored and sent.
func StripDataURI(photo string) string {
	return dataURIPrefix.ReplaceAllString(strings.TrimSpace(photo), "")
}

// PhotoDataURI wraps a stored payload for display. Empty stays empty.
func PhotoDataURI(payload string) string {
	if payload == "" {
		return ""
	}
	return "data:image/png;base64," + StripDataURI(payload)
}
