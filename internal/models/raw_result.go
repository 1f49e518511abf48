package models

import (
	"net/url"
	"regexp"
	"strings"
)

var btihPattern = regexp.MustCompile(`(?i)urn:btih:([a-z0-9]{32,40})`)

// RawResult is one candidate stream as reported by a source adapter. Adapters
// map their native payloads into this shape; nothing downstream inspects
// adapter-specific fields.
type RawResult struct {
	Title        string
	DisplayName  string
	InfoHash     string
	MagnetURI    string
	DirectURL    string
	SizeBytes    int64
	Seeders      int
	SourceName   string
	IsDirect     bool
	IsExternal   bool
	IsCachedHint bool
	FileIndex    *int
	Filename     string

	// Set by the debrid cache check.
	Cached        bool
	CacheStatuses []CacheStatus
}

// CacheVariant is file-level cache detail reported by a provider.
type CacheVariant struct {
	FileIndex int
	Filename  string
	SizeBytes int64
}

// CacheStatus is one provider's answer for one info-hash.
type CacheStatus struct {
	Cached   bool
	Service  string
	Variants []CacheVariant
}

// Label is the text used for matching and display: the title, or the display
// name when the title is empty.
func (r RawResult) Label() string {
	if strings.TrimSpace(r.Title) != "" {
		return r.Title
	}
	return r.DisplayName
}

// Hash returns the lower-cased info-hash, extracting it from the magnet URI
// when the adapter only supplied that.
func (r RawResult) Hash() string {
	if r.InfoHash != "" {
		return strings.ToLower(strings.TrimSpace(r.InfoHash))
	}
	if r.MagnetURI == "" {
		return ""
	}
	if m := btihPattern.FindStringSubmatch(r.MagnetURI); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

// IsTorrent reports a P2P-identified entry.
func (r RawResult) IsTorrent() bool {
	return !r.IsDirect && (r.InfoHash != "" || r.MagnetURI != "")
}

// Usable reports whether the entry can be played at all: a direct entry needs
// a URL, anything else needs a hash or magnet.
func (r RawResult) Usable() bool {
	if r.IsDirect {
		return strings.TrimSpace(r.DirectURL) != ""
	}
	return r.Hash() != "" || strings.TrimSpace(r.MagnetURI) != ""
}

// IsCached combines the source hint with the debrid-verified status.
func (r RawResult) IsCached() bool {
	return r.Cached || r.IsCachedHint
}

// CachedBy returns the first provider that reported the hash as cached.
func (r RawResult) CachedBy() string {
	for _, s := range r.CacheStatuses {
		if s.Cached {
			return s.Service
		}
	}
	return ""
}

// FileIdx returns the file index or -1.
func (r RawResult) FileIdx() int {
	if r.FileIndex == nil {
		return -1
	}
	return *r.FileIndex
}

// Magnet returns the adapter's magnet URI or builds one from the hash.
func (r RawResult) Magnet(trackers []string) string {
	if r.MagnetURI != "" {
		return r.MagnetURI
	}
	h := r.Hash()
	if h == "" {
		return ""
	}
	v := url.Values{}
	v.Set("dn", r.Label())
	for _, tr := range trackers {
		v.Add("tr", tr)
	}
	return "magnet:?xt=urn:btih:" + h + "&" + v.Encode()
}

// IntPtr is a small helper for optional file indices.
func IntPtr(i int) *int {
	return &i
}
