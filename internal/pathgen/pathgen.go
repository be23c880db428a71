// Package pathgen computes the canonical destination path for a catalogue
// match. It is a pure, deterministic function: no I/O, no global state.
package pathgen

import (
	"fmt"
	"path/filepath"
	"strings"

	"medialinkd/internal/media"
)

// ErrMissingEpisode is returned when a TV match has no episode number and
// none can be defaulted — per the layout rules, a missing season defaults to
// 1 but a missing episode is a hard error surfaced to the worker.
var ErrMissingEpisode = fmt.Errorf("pathgen: tv match is missing an episode number")

// Generate computes the absolute destination path under root for match,
// preserving ext (including its leading dot).
func Generate(root string, match *media.Match, ext string) (string, error) {
	title := SanitizeTitle(match.Title)
	yearSuffix := ""
	if match.Year != nil {
		yearSuffix = fmt.Sprintf(" (%d)", *match.Year)
	}
	folderTitle := title + yearSuffix

	switch match.Type {
	case media.MediaTypeMovie:
		filename := folderTitle + ext
		return filepath.Join(root, "Movies", folderTitle, filename), nil

	case media.MediaTypeTV:
		if match.Episode == nil {
			return "", ErrMissingEpisode
		}
		season := 1
		if match.Season != nil {
			season = *match.Season
		}
		seasonDir := fmt.Sprintf("Season %02d", season)
		filename := fmt.Sprintf("%s - S%02dE%02d%s", title, season, *match.Episode, ext)
		return filepath.Join(root, "TV", folderTitle, seasonDir, filename), nil

	default:
		return "", fmt.Errorf("pathgen: unknown media type %q", match.Type)
	}
}

// disallowed holds the characters filesystems in practice reject, per the
// title sanitisation rule: / \ : * ? " < > | and NUL.
const disallowed = "/\\:*?\"<>|\x00"

// SanitizeTitle strips disallowed characters, trims leading/trailing dots
// and whitespace, and collapses internal whitespace runs to a single space.
func SanitizeTitle(title string) string {
	var b strings.Builder
	lastWasSpace := false
	for _, r := range title {
		if strings.ContainsRune(disallowed, r) {
			continue
		}
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			if lastWasSpace {
				continue
			}
			lastWasSpace = true
			b.WriteRune(' ')
			continue
		}
		lastWasSpace = false
		b.WriteRune(r)
	}
	return strings.Trim(strings.TrimSpace(b.String()), ". ")
}
