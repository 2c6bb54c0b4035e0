package models

// AgeRating is the audience classification of a movie, stored as an int.
type AgeRating int

const (
	AgeRatingAll AgeRating = iota
	AgeRatingElementarySchool
	AgeRatingTeen
	AgeRatingAdolescent
	AgeRatingAdult
)

func (a AgeRating) String() string {
	switch a {
	case AgeRatingAll:
		return "All"
	case AgeRatingElementarySchool:
		return "ElementarySchool"
	case AgeRatingTeen:
		return "Teen"
	case AgeRatingAdolescent:
		return "Adolescent"
	case AgeRatingAdult:
		return "Adult"
	default:
		return "Unknown"
	}
}
