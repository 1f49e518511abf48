// Package models defines the pipeline's data types and the wire formats of
// the Stremio and TMDB APIs.
package models

type TMDBFindResponse struct {
	MovieResults []TMDBMovie `json:"movie_results"`
	TVResults    []TMDBTV    `json:"tv_results"`
}

type TMDBMovie struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	OriginalTitle string `json:"original_title"`
	ReleaseDate   string `json:"release_date"`
}

type TMDBTV struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	OriginalName string `json:"original_name"`
	FirstAirDate string `json:"first_air_date"`
}

// TMDBMovieDetails is the subset of /movie/{id} used to expand collections.
type TMDBMovieDetails struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	ReleaseDate         string `json:"release_date"`
	BelongsToCollection *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"belongs_to_collection"`
}

// TMDBCollection is /collection/{id}.
type TMDBCollection struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Parts []TMDBMovie `json:"parts"`
}
