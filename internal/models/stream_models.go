package models

// Stream represents a single playable stream in Stremio format.
type Stream struct {
	Name          string               `json:"name,omitempty"`
	Description   string               `json:"description,omitempty"`
	URL           string               `json:"url,omitempty"`
	ExternalURL   string               `json:"externalUrl,omitempty"`
	InfoHash      string               `json:"infoHash,omitempty"`
	FileIdx       *int                 `json:"fileIdx,omitempty"`
	Sources       []string             `json:"sources,omitempty"`
	BehaviorHints *StreamBehaviorHints `json:"behaviorHints,omitempty"`
}

// StreamBehaviorHints carries autoplay grouping and file details.
type StreamBehaviorHints struct {
	BingeGroup  string `json:"bingeGroup,omitempty"`
	Filename    string `json:"filename,omitempty"`
	VideoSize   int64  `json:"videoSize,omitempty"`
	NotWebReady bool   `json:"notWebReady,omitempty"`
}

// StreamResponse is the response format for stream endpoints.
type StreamResponse struct {
	Streams []Stream `json:"streams"`
}
