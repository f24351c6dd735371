package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans stored HTML (organizer descriptions) before rendering it on
// default pages to prevent XSS.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
