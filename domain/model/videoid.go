package model

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	videoURLRE = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/|youtube\.com/v/)([^#&?]{11})`)
	videoIDRE  = regexp.MustCompile(`^([a-zA-Z0-9_-]{11})$`)
)

// ExtractVideoID accepts a watch, short, embed or /v/ URL or a bare 11 character id.
func ExtractVideoID(urlOrID string) (string, error) {
	s := strings.TrimSpace(urlOrID)
	if m := videoURLRE.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	if m := videoIDRE.FindStringSubmatch(s); m != nil {
		return m[1], nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, urlOrID)
}
