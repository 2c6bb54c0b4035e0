package models

// Genre groups movies. Movies is a navigation-only relation: it is never
// serialized, and the movies of a genre are fetched with a query instead.
type Genre struct {
	ID     int     `json:"id"`
	Name   string  `json:"name"`
	Movies []Movie `json:"-"`
}
