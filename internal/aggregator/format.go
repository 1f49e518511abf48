package aggregator

import (
	"fmt"
	"strings"

	"github.com/amaumene/streamhub/internal/models"
	"github.com/amaumene/streamhub/pkg/releaseinfo"
	"github.com/amaumene/streamhub/pkg/titlematch"
)

const bingePrefix = "streamhub"

// displayName renders "[1080p] 🇮🇹 🚀 Source".
func displayName(s models.RankedStream) string {
	parts := []string{"[" + releaseinfo.TierTag(s.ResolutionTier) + "]"}
	if flags := languageFlags(s.Release); flags != "" {
		parts = append(parts, flags)
	}
	parts = append(parts, s.StatusLabel.Icon(), s.SourceName)
	return strings.Join(parts, " ")
}

func languageFlags(info releaseinfo.Info) string {
	flags := make([]string, 0, len(info.Languages))
	for _, l := range info.Languages {
		flags = append(flags, l.Flag)
	}
	return strings.Join(flags, "")
}

// description is the multi-line block shown under the stream name.
func description(s models.RankedStream, req Request) string {
	var lines []string

	title := titlematch.CleanTitle(s.Label())
	if ep, ok := releaseinfo.ParseEpisode(s.Label()); ok && ep.Year > 0 {
		title = fmt.Sprintf("%s (%d)", title, ep.Year)
	} else if req.Meta.Year > 0 && req.Type == "movie" {
		title = fmt.Sprintf("%s (%d)", title, req.Meta.Year)
	}
	lines = append(lines, "📄 "+title)

	var tech []string
	if s.Release.Quality != "" {
		tech = append(tech, string(s.Release.Quality))
	}
	if s.Release.Codec != releaseinfo.CodecUnknown {
		tech = append(tech, string(s.Release.Codec))
	}
	tech = append(tech, s.Release.VisualTags...)
	if len(tech) > 0 {
		lines = append(lines, "🎞️ "+strings.Join(tech, " · "))
	}

	if len(s.Release.AudioTags) > 0 {
		lines = append(lines, "🔊 "+strings.Join(s.Release.AudioTags, " · "))
	}

	if codes := s.Release.LanguageCodes(); len(codes) > 0 {
		lang := languageFlags(s.Release) + " " + strings.Join(codes, "/")
		if s.Release.Subtitled {
			lang += " (subs)"
		}
		lines = append(lines, "🗣️ "+lang)
	}

	stats := []string{"💾 " + releaseinfo.FormatSize(s.SizeBytes)}
	if !s.IsDirect {
		stats = append(stats, fmt.Sprintf("👤 %d", s.Seeders))
	}
	stats = append(stats, s.StatusLabel.Icon()+" "+string(s.StatusLabel))
	lines = append(lines, strings.Join(stats, " · "))

	return strings.Join(lines, "\n")
}

// bingeGroup keeps autoplay on the same resolution, language and source
// across episodes of one title.
func bingeGroup(s models.RankedStream, req Request) string {
	lang := "none"
	if codes := s.Release.LanguageCodes(); len(codes) > 0 {
		lang = strings.Join(codes, "+")
	}
	return strings.Join([]string{
		bingePrefix,
		req.Meta.ID,
		releaseinfo.TierTag(s.ResolutionTier),
		lang,
		s.SourceName,
	}, "|")
}
