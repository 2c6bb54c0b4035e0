package models

// Person is used for a movie's director and actors. It has no identity of
// its own outside the movie that owns it.
type Person struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
