package releaseinfo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// sizePattern captures either a comma-grouped number ("1,234.5") or a plain
// one whose single separator is a decimal point ("4.2", "1,5"), followed by a
// unit at most one space away.
var sizePattern = regexp.MustCompile(`(?i)(?:^|[^a-z0-9.,])(?:(\d{1,3}(?:,\d{3})+(?:\.\d+)?)|(\d+(?:[.,]\d+)?))(?:\s?(tib|tb|gib|gb|mib|mb|kib|kb|bytes|b)(?:[^a-z]|$)|[^a-z0-9.,]|$)`)

var sizeUnits = map[string]float64{
	"":      1,
	"b":     1,
	"bytes": 1,
	"kb":    1 << 10,
	"kib":   1 << 10,
	"mb":    1 << 20,
	"mib":   1 << 20,
	"gb":    1 << 30,
	"gib":   1 << 30,
	"tb":    1 << 40,
	"tib":   1 << 40,
}

// ParseSize converts "4.2 GB", "700MB", "1,5 GiB" or "1,536 MB" to bytes
// using binary units. Empty, zero or unparseable input yields 0.
func ParseSize(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	num := strings.ReplaceAll(m[1], ",", "")
	if num == "" {
		num = strings.Replace(m[2], ",", ".", 1)
	}
	value, err := strconv.ParseFloat(num, 64)
	if err != nil || value <= 0 {
		return 0
	}

	mult, ok := sizeUnits[strings.ToLower(m[3])]
	if !ok {
		return 0
	}
	return int64(math.Round(value * mult))
}

// FormatSize renders bytes with a binary unit, e.g. "4.20 GB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "?"
	}
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit && exp < 3; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGT"[exp])
}
