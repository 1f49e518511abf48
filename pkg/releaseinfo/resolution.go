package releaseinfo

import "regexp"

// Resolution tiers, highest first.
const (
	Tier2160    = 2160
	Tier1080    = 1080
	Tier720     = 720
	Tier480     = 480
	TierUnknown = 0
)

var (
	res2160Pattern = word(`2160p|4k|uhd`)
	res1080Pattern = word(`1080[pi]`)
	res720Pattern  = word(`720p|hd`)
	res480Pattern  = word(`480p|576p|360p|sd|sdtv|dvd[ .-]?rip|dvd|xvid|divx`)

	explicit720 = regexp.MustCompile(`(?i)(?:^|[^a-z0-9])720p(?:[^a-z0-9]|$)`)

	// "HD" inside audio tags says nothing about the picture.
	audioHDPattern = regexp.MustCompile(`(?i)dts[ .-]?hd(?:[ .-]?ma)?|true[ .-]?hd`)
)

func stripAudioHD(title string) string {
	return audioHDPattern.ReplaceAllString(title, " ")
}

// ResolutionTier buckets a title by its highest resolution tag. A title
// carrying both "720p" and "1080p" is 1080.
func ResolutionTier(title string) int {
	title = stripAudioHD(title)
	switch {
	case res2160Pattern.MatchString(title):
		return Tier2160
	case res1080Pattern.MatchString(title):
		return Tier1080
	case explicit720.MatchString(title):
		return Tier720
	case res480Pattern.MatchString(title):
		return Tier480
	case res720Pattern.MatchString(title):
		return Tier720
	default:
		return TierUnknown
	}
}

// IsLowResolution reports titles that only advertise SD sources or codecs.
func IsLowResolution(title string) bool {
	return res480Pattern.MatchString(title)
}

// IsHigh reports whether title carries a 1080p or 2160p/4K tag.
func IsHigh(title string) bool {
	return res2160Pattern.MatchString(title) || res1080Pattern.MatchString(title)
}

// Is720 reports a 720p or bare HD tag.
func Is720(title string) bool {
	return res720Pattern.MatchString(stripAudioHD(title))
}

// TierTag renders a tier the way stream names display it.
func TierTag(tier int) string {
	switch tier {
	case Tier2160:
		return "4K"
	case Tier1080:
		return "1080p"
	case Tier720:
		return "720p"
	case Tier480:
		return "480p"
	default:
		return "Unknown"
	}
}
