package models

import "github.com/amaumene/streamhub/pkg/releaseinfo"

// StatusLabel classifies how a ranked stream will be played.
type StatusLabel string

const (
	StatusDirect   StatusLabel = "Direct"
	StatusCached   StatusLabel = "Cached"
	StatusProxy    StatusLabel = "Proxy"
	StatusP2P      StatusLabel = "P2P"
	StatusExternal StatusLabel = "External"
)

// Icon is the glyph shown in the stream name.
func (s StatusLabel) Icon() string {
	switch s {
	case StatusDirect:
		return "▶️"
	case StatusCached:
		return "🚀"
	case StatusProxy:
		return "🔁"
	case StatusP2P:
		return "🧲"
	default:
		return "🌐"
	}
}

// RankedStream is the final, immutable output of the pipeline.
type RankedStream struct {
	RawResult

	Release        releaseinfo.Info
	ResolutionTier int
	DisplayTitle   string
	Description    string
	PlaybackURL    string
	StatusLabel    StatusLabel
	BingeGroup     string
	Sources        []string
}

// ToStream renders the client-visible Stremio stream object.
func (r RankedStream) ToStream() Stream {
	s := Stream{
		Name:        r.DisplayTitle,
		Description: r.Description,
		BehaviorHints: &StreamBehaviorHints{
			BingeGroup: r.BingeGroup,
			Filename:   r.Filename,
			VideoSize:  r.SizeBytes,
		},
	}

	if r.StatusLabel == StatusExternal {
		s.ExternalURL = r.PlaybackURL
		return s
	}
	if r.PlaybackURL != "" {
		s.URL = r.PlaybackURL
		return s
	}

	s.InfoHash = r.Hash()
	if idx := r.FileIdx(); idx >= 0 {
		s.FileIdx = IntPtr(idx)
	}
	s.Sources = r.Sources
	return s
}
