package models

import "time"

// Movie is a film in the catalogue. How it is stored is decided by the
// database package; nothing here knows about tables or columns.
type Movie struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	ReleaseDate time.Time `json:"releaseDate"`
	Synopsis    *string   `json:"synopsis"`
	AgeRating   AgeRating `json:"ageRating"`

	MainGenreID int    `json:"mainGenreId"`
	Genre       *Genre `json:"genre"` // only populated when the query asks for it

	// Director and Actors are owned: they live and die with the movie
	Director *Person  `json:"director"`
	Actors   []Person `json:"actors"`
}

// MovieTitle is the narrowed shape returned by projection queries.
type MovieTitle struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}
