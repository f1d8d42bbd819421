package entities

import (
	"fmt"
	"strings"
)

type Platform string

const (
	Vinted Platform = "Vinted"
)

// ToPlatform maps a configured platform name to a supported Platform.
// An empty name means Vinted.
func ToPlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vinted":
		return Vinted, nil
	default:
		return "", fmt.Errorf("platform %s not yet supported", s)
	}
}

// Listing is one marketplace item discovered on a search page. ImageURL is empty when the item has no image.
type Listing struct {
	ID       string
	Title    string
	URL      string
	ImageURL string
	Platform Platform
}

func (l Listing) HasImage() bool {
	return l.ImageURL != ""
}

// TitlePreview returns the first comma separated part of the title, cut to 50 runes.
func (l Listing) TitlePreview() string {
	if l.Title == "" {
		return l.ID
	}
	first, _, _ := strings.Cut(l.Title, ",")
	return Truncate(first, 50)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
