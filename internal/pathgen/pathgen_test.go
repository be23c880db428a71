package pathgen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"medialinkd/internal/media"
	"medialinkd/internal/pathgen"
)

func intp(v int) *int { return &v }

func TestGenerateMovieLayout(t *testing.T) {
	year := 2010
	match := &media.Match{TMDBID: 27205, Type: media.MediaTypeMovie, Title: "Inception", Year: &year}

	got, err := pathgen.Generate("/t", match, ".mkv")
	require.NoError(t, err)
	require.Equal(t, "/t/Movies/Inception (2010)/Inception (2010).mkv", got)
}

func TestGenerateTVLayout(t *testing.T) {
	year := 2019
	match := &media.Match{TMDBID: 87108, Type: media.MediaTypeTV, Title: "Chernobyl", Year: &year, Season: intp(1), Episode: intp(2)}

	got, err := pathgen.Generate("/t", match, ".mkv")
	require.NoError(t, err)
	require.Equal(t, "/t/TV/Chernobyl (2019)/Season 01/Chernobyl - S01E02.mkv", got)
}

func TestGenerateTVDefaultsMissingSeasonToOne(t *testing.T) {
	match := &media.Match{TMDBID: 1, Type: media.MediaTypeTV, Title: "X", Episode: intp(5)}

	got, err := pathgen.Generate("/t", match, ".mkv")
	require.NoError(t, err)
	require.Equal(t, "/t/TV/X/Season 01/X - S01E05.mkv", got)
}

func TestGenerateTVMissingEpisodeIsError(t *testing.T) {
	match := &media.Match{TMDBID: 1, Type: media.MediaTypeTV, Title: "X"}

	_, err := pathgen.Generate("/t", match, ".mkv")
	require.ErrorIs(t, err, pathgen.ErrMissingEpisode)
}

func TestGenerateIsDeterministic(t *testing.T) {
	year := 2010
	match := &media.Match{TMDBID: 27205, Type: media.MediaTypeMovie, Title: "Inception", Year: &year}

	first, err := pathgen.Generate("/t", match, ".mkv")
	require.NoError(t, err)
	second, err := pathgen.Generate("/t", match, ".mkv")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSanitizeTitleStripsDisallowedCharacters(t *testing.T) {
	require.Equal(t, "A B C", pathgen.SanitizeTitle(`A:B*C`))
	require.Equal(t, "A B", pathgen.SanitizeTitle("A   B"))
	require.Equal(t, "Title", pathgen.SanitizeTitle("  Title.  "))
}
