package analyser

import (
	"regexp"
	"strconv"

	"medialinkd/internal/media"
)

// seasonEpisodePattern matches the common SxxEyy filename token (e.g.
// "S01E02", "s1e2"), which filenames frequently carry even when the
// analyser's own guess omits season/episode.
var seasonEpisodePattern = regexp.MustCompile(`(?i)[sS](\d{1,2})[eE](\d{1,3})`)

// supplementSeasonEpisode fills in guess.Season/Episode from a filename
// token when the analyser did not already provide them. It never overrides
// an explicit analyser-provided value.
//
// It deliberately runs regardless of guess.Type: the analyser can mislabel a
// TV episode as a movie (the reason the catalogue's hybrid-fallback search
// exists at all), and the filename's SxxEyy token is still ground truth in
// that case. The catalogue client only copies these fields onto a match once
// it has actually resolved to a TV result, so supplementing them here even
// for a movie-typed guess is harmless when the mislabel turns out correct.
func supplementSeasonEpisode(guess *media.Guess, filename string) {
	if guess.Season != nil && guess.Episode != nil {
		return
	}
	m := seasonEpisodePattern.FindStringSubmatch(filename)
	if m == nil {
		return
	}
	season, errS := strconv.Atoi(m[1])
	episode, errE := strconv.Atoi(m[2])
	if errS != nil || errE != nil {
		return
	}
	if guess.Season == nil {
		guess.Season = &season
	}
	if guess.Episode == nil {
		guess.Episode = &episode
	}
}
