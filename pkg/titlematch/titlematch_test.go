package titlematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "amelie 2001", Normalize("Amélie (2001)"))
	assert.Equal(t, "the matrix reloaded", Normalize("The.Matrix.Reloaded"))
	assert.Equal(t, "", Normalize("  ...  "))
}

func TestTokenSetRatio(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  int
		max  int
	}{
		{"subset scores full", "Inception", "Inception.2010.1080p.ITA.BluRay", 100, 100},
		{"word order ignored", "Dark Knight The", "The Dark Knight", 100, 100},
		{"accents folded", "Amélie", "Amelie.2001.1080p", 100, 100},
		{"unrelated", "Inception", "Interstellar.2014.1080p", 0, 79},
		{"empty", "", "Inception", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenSetRatio(tt.a, tt.b)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func TestHasSeriesPattern(t *testing.T) {
	series := []string{
		"Inception S01E01 ITA",
		"Show.s2e10.720p",
		"Show 1x05 HDTV",
		"Gomorra Stagione 3 Completa",
		"Show Season 2",
	}
	for _, title := range series {
		assert.True(t, HasSeriesPattern(title), title)
	}

	movies := []string{
		"Inception.2010.1080p.ITA.BluRay",
		"Film.1920x1080.x264",
		"Film.2019.2160p.H265",
	}
	for _, title := range movies {
		assert.False(t, HasSeriesPattern(title), title)
	}
}

func TestTypeConsistent(t *testing.T) {
	assert.False(t, TypeConsistent("Inception S01E01", "movie"))
	assert.True(t, TypeConsistent("Inception 2010", "movie"))
	assert.True(t, TypeConsistent("Show S01E01", "series"))
	assert.False(t, TypeConsistent("Show 2010 Complete", "series"))
	assert.True(t, TypeConsistent("Anything", "other"))
}

func TestMatchAllAndBest(t *testing.T) {
	candidates := []string{
		"Inception S01E01 ITA",
		"Inception.2010.1080p.BluRay",
		"Interstellar.2014.1080p",
		"Inception 2010 720p",
	}

	matches := MatchAll("Inception", candidates, "movie", 80)
	if assert.Len(t, matches, 2) {
		assert.Equal(t, 1, matches[0].Index)
		assert.Equal(t, 3, matches[1].Index)
	}

	best, ok := BestMatch("Inception", candidates, "movie", 80)
	assert.True(t, ok)
	assert.Equal(t, 1, best.Index, "ties keep the earliest candidate")

	_, ok = BestMatch("Inception", candidates[:1], "movie", 80)
	assert.False(t, ok)
}

func TestCleanTitle(t *testing.T) {
	assert.Equal(t, "The Matrix", CleanTitle("The.Matrix.1999.1080p.BluRay.x264-SPARKS"))
	assert.Equal(t, "", CleanTitle("   "))
}
