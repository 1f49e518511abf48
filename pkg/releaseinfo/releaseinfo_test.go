package releaseinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFullRelease(t *testing.T) {
	info := Parse("Movie.Name.2023.1080p.BluRay.x265.ITA.ENG.5.1.HDR")

	assert.Equal(t, QualityBluRay, info.Quality)
	assert.Equal(t, CodecHEVC, info.Codec)
	assert.True(t, info.HasVisualTag("HDR"))
	assert.True(t, info.HasAudioTag("5.1"))
	assert.True(t, info.HasLanguage("ITA"))
	assert.True(t, info.HasLanguage("ENG"))
	assert.Equal(t, Tier1080, info.Resolution)
}

func TestParseQualityPriority(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  Quality
	}{
		{"bluray beats web", "Film.2021.1080p.BluRay.WEB-DL", QualityBluRay},
		{"webdl", "Film.2021.1080p.WEB-DL.DDP5.1", QualityWebDL},
		{"bare web", "Film.2021.2160p.WEB.H265", QualityWebDL},
		{"webrip", "Film.2021.1080p.WEBRip.x264", QualityWebRip},
		{"hdrip", "Film 2021 HDRip XviD", QualityHDRip},
		{"dvdrip", "Film.2001.DVDRip", QualityDVDRip},
		{"cam", "Film.2024.HDCAM.x264", QualityCam},
		{"telesync", "Film.2024.TS.x264", QualityTeleSync},
		{"default", "Film 2024 1080p", QualityHD},
		{"empty", "", QualityHD},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.title).Quality)
		})
	}
}

func TestParseCodec(t *testing.T) {
	assert.Equal(t, CodecHEVC, Parse("Show.S01E01.HEVC").Codec)
	assert.Equal(t, CodecHEVC, Parse("Show.S01E01.H.265").Codec)
	assert.Equal(t, CodecAVC, Parse("Show.S01E01.x264-GRP").Codec)
	assert.Equal(t, CodecAV1, Parse("Show.S01E01.AV1").Codec)
	assert.Equal(t, CodecXviD, Parse("Show.S01E01.DivX").Codec)
	assert.Equal(t, CodecUnknown, Parse("Show S01E01").Codec)
}

func TestParseTags(t *testing.T) {
	info := Parse("Film.2019.2160p.UHD.BluRay.REMUX.DV.HDR10+.10bit.TrueHD.Atmos.7.1.DTS-HD.MA-GRP")

	assert.ElementsMatch(t, []string{"HDR", "DV", "10bit"}, info.VisualTags)
	assert.Subset(t, info.AudioTags, []string{"Atmos", "TrueHD", "DTS-HD", "7.1"})
	assert.NotContains(t, info.AudioTags, "DTS", "plain DTS is implied by DTS-HD")
	assert.Equal(t, Tier2160, info.Resolution)
}

func TestParseLanguages(t *testing.T) {
	info := Parse("Anime.S01E03.1080p.JAP.SUB.ITA")
	assert.Equal(t, []string{"ITA", "JAP"}, info.LanguageCodes())
	assert.True(t, info.Subtitled)

	multi := Parse("Film.2020.MULTi.1080p")
	assert.True(t, multi.HasLanguage("MULTI"))
	assert.False(t, multi.Subtitled)

	assert.False(t, Parse("La.Dolce.Vita.1960.1080p").HasLanguage("ITA"))
}

func TestResolutionTier(t *testing.T) {
	tests := map[string]int{
		"Film.2160p.WEB":         Tier2160,
		"Film 4K HDR":            Tier2160,
		"Film.1080p.720p":        Tier1080,
		"Film.HD.1080p":          Tier1080,
		"Film.720p.WEB":          Tier720,
		"Film.HD.ITA":            Tier720,
		"Film.DVDRip.XviD":       Tier480,
		"Film.480p":              Tier480,
		"Film.BluRay.DTS-HD.MA":  TierUnknown,
		"Film.2010.Extended.ITA": TierUnknown,
	}
	for title, want := range tests {
		assert.Equal(t, want, ResolutionTier(title), title)
	}
}

func TestTierTag(t *testing.T) {
	assert.Equal(t, "4K", TierTag(Tier2160))
	assert.Equal(t, "1080p", TierTag(Tier1080))
	assert.Equal(t, "Unknown", TierTag(TierUnknown))
}

func TestParseEpisode(t *testing.T) {
	ep, ok := ParseEpisode("Breaking.Bad.S02E05.720p.BluRay.x264")
	if assert.True(t, ok) {
		assert.Equal(t, 2, ep.Season)
		assert.Equal(t, 5, ep.Episode)
	}
}
