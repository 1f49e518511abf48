// Package releaseinfo extracts structured attributes from free-text release
// names: quality, codec, visual and audio tags, languages and resolution.
package releaseinfo

import (
	"regexp"
	"strings"

	"github.com/cehbz/torrentname"
)

type Quality string

const (
	QualityBluRay   Quality = "BluRay"
	QualityWebDL    Quality = "WEB-DL"
	QualityWebRip   Quality = "WEBRip"
	QualityHDRip    Quality = "HDRip"
	QualityDVDRip   Quality = "DVDRip"
	QualityCam      Quality = "CAM"
	QualityTeleSync Quality = "TeleSync"
	QualityHD       Quality = "HD"
)

type Codec string

const (
	CodecHEVC    Codec = "HEVC"
	CodecAVC     Codec = "AVC"
	CodecAV1     Codec = "AV1"
	CodecXviD    Codec = "XviD"
	CodecUnknown Codec = ""
)

// Language is a detected audio language with the glyph shown to users.
type Language struct {
	Code string
	Flag string
}

var (
	LangITA   = Language{Code: "ITA", Flag: "🇮🇹"}
	LangENG   = Language{Code: "ENG", Flag: "🇬🇧"}
	LangMULTI = Language{Code: "MULTI", Flag: "🌍"}
	LangJAP   = Language{Code: "JAP", Flag: "🇯🇵"}
)

// Info holds everything Parse could recognise. Unmatched fields stay at their
// zero value.
type Info struct {
	Quality    Quality
	Codec      Codec
	VisualTags []string
	AudioTags  []string
	Languages  []Language
	Subtitled  bool
	Resolution int
}

// HasLanguage reports whether code (ITA, ENG, ...) was detected.
func (i Info) HasLanguage(code string) bool {
	for _, l := range i.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// HasVisualTag reports whether tag was detected.
func (i Info) HasVisualTag(tag string) bool {
	return contains(i.VisualTags, tag)
}

// HasAudioTag reports whether tag was detected.
func (i Info) HasAudioTag(tag string) bool {
	return contains(i.AudioTags, tag)
}

// LanguageCodes returns the detected language codes in detection order.
func (i Info) LanguageCodes() []string {
	codes := make([]string, 0, len(i.Languages))
	for _, l := range i.Languages {
		codes = append(codes, l.Code)
	}
	return codes
}

type keyword struct {
	tag     string
	pattern *regexp.Regexp
}

type qualityRule struct {
	quality Quality
	match   func(string) bool
}

type codecRule struct {
	codec   Codec
	pattern *regexp.Regexp
}

type languageRule struct {
	lang    Language
	pattern *regexp.Regexp
}

// Boundaries treat anything but letters and digits as separators, so
// "Movie.ITA.ENG" and "Movie [ITA]" both match.
func word(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9])(?:` + expr + `)(?:[^a-z0-9]|$)`)
}

// Channel layouts are often glued to the codec (DDP5.1), so only digits count
// as neighbours.
func channels(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^0-9])(?:` + expr + `)(?:[^0-9]|$)`)
}

var (
	webRipPattern = word(`web[ .-]?rip`)
	webDLPattern  = word(`web[ .-]?dl|webhd`)
	webPattern    = word(`web`)

	qualityRules = []qualityRule{
		{QualityBluRay, word(`blu[ .-]?ray|bd[ .-]?rip|br[ .-]?rip|bd[ .-]?remux|remux|bdmux|bd`).MatchString},
		{QualityWebDL, func(s string) bool {
			return webDLPattern.MatchString(s) || (webPattern.MatchString(s) && !webRipPattern.MatchString(s))
		}},
		{QualityWebRip, webRipPattern.MatchString},
		{QualityHDRip, word(`hd[ .-]?rip`).MatchString},
		{QualityDVDRip, word(`dvd[ .-]?rip|dvd[ .-]?r|dvd`).MatchString},
		{QualityCam, word(`cam|cam[ .-]?rip|hd[ .-]?cam`).MatchString},
		{QualityTeleSync, word(`ts|tele[ .-]?sync|hd[ .-]?ts|tc|tele[ .-]?cine`).MatchString},
	}

	codecRules = []codecRule{
		{CodecHEVC, word(`[xh][ .]?265|hevc`)},
		{CodecAV1, word(`av1`)},
		{CodecAVC, word(`[xh][ .]?264|avc`)},
		{CodecXviD, word(`xvid|divx`)},
	}

	visualKeywords = []keyword{
		{"HDR", word(`hdr|hdr10|hdr10\+|hdr10plus`)},
		{"DV", word(`dv|dovi|dolby[ .-]?vision`)},
		{"10bit", word(`10[ .-]?bit`)},
		{"IMAX", word(`imax`)},
		{"AI", word(`ai[ .-]?upscaled?|ai[ .-]?enhanced|upscaled?`)},
	}

	dtsHDPattern  = word(`dts[ .-]?hd|dts[ .-]?ma|dts[ .-]?x`)
	audioKeywords = []keyword{
		{"Atmos", word(`atmos`)},
		{"TrueHD", word(`true[ .-]?hd`)},
		{"DTS-HD", dtsHDPattern},
		{"DTS", word(`dts`)},
		{"7.1", channels(`7[ .]1`)},
		{"5.1", channels(`5[ .]1`)},
		{"AAC", word(`aac(?:2[ .]0)?`)},
		{"E-AC3", word(`e-?ac-?3|eac3|ddp(?:2|5|7)?|dd\+`)},
	}

	languageRules = []languageRule{
		{LangITA, word(`ita|italian|italiano`)},
		{LangENG, word(`eng|english`)},
		{LangMULTI, word(`multi|multilang|multi[ .-]?audio|dual|dual[ .-]?audio`)},
		{LangJAP, word(`jap|jpn|japanese`)},
	}

	subtitlePattern = word(`sub|subs|subbed|sub[ .-]?ita|subita|vost|vostfr|softsub|hardsub|msubs`)
)

// Parse is total: it never fails and returns zero values for anything it
// cannot recognise. Quality defaults to HD.
func Parse(filename string) Info {
	info := Info{Quality: QualityHD, Codec: CodecUnknown}
	if strings.TrimSpace(filename) == "" {
		return info
	}

	for _, rule := range qualityRules {
		if rule.match(filename) {
			info.Quality = rule.quality
			break
		}
	}

	for _, rule := range codecRules {
		if rule.pattern.MatchString(filename) {
			info.Codec = rule.codec
			break
		}
	}

	for _, kw := range visualKeywords {
		if kw.pattern.MatchString(filename) {
			info.VisualTags = append(info.VisualTags, kw.tag)
		}
	}

	hasDTSHD := dtsHDPattern.MatchString(filename)
	for _, kw := range audioKeywords {
		if kw.tag == "DTS" && hasDTSHD {
			continue
		}
		if kw.pattern.MatchString(filename) {
			info.AudioTags = append(info.AudioTags, kw.tag)
		}
	}

	for _, rule := range languageRules {
		if rule.pattern.MatchString(filename) {
			info.Languages = append(info.Languages, rule.lang)
		}
	}

	info.Subtitled = subtitlePattern.MatchString(filename)
	info.Resolution = ResolutionTier(filename)

	return info
}

// Episode is the season/episode/year triple torrentname found in a title.
type Episode struct {
	Season  int
	Episode int
	Year    int
}

// ParseEpisode runs the torrentname parser and keeps the numbering fields.
// ok is false when the parser gave up on the title.
func ParseEpisode(title string) (Episode, bool) {
	parsed := torrentname.Parse(title)
	if parsed == nil {
		return Episode{}, false
	}
	return Episode{Season: parsed.Season, Episode: parsed.Episode, Year: parsed.Year}, true
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
