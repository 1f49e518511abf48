package models

type Manifest struct {
	ID            string        `json:"id"`
	Version       string        `json:"version"`
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Types         []string      `json:"types"`
	Resources     []string      `json:"resources"`
	Catalogs      []Catalog     `json:"catalogs"`
	BehaviorHints BehaviorHints `json:"behaviorHints"`
	IDPrefixes    []string      `json:"idPrefixes,omitempty"`
	Logo          string        `json:"logo,omitempty"`
}

type BehaviorHints struct {
	Configurable          bool `json:"configurable"`
	ConfigurationRequired bool `json:"configurationRequired,omitempty"`
}

type Catalog struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MediaMeta is the trusted metadata the stream pipeline works from.
type MediaMeta struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Year       int     `json:"year,omitempty"`
	Collection bool    `json:"collection,omitempty"`
	Videos     []Video `json:"videos,omitempty"`
}

// Video is an episode of a series or a member of a collection.
type Video struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Year    int    `json:"year,omitempty"`
	Season  int    `json:"season"`
	Episode int    `json:"episode"`
}
