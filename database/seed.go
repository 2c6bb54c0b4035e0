package database

import (
	"fmt"
	"time"

	"github.com/camden-git/moviesbackend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedGenre is the genre the seed movie belongs to.
var SeedGenre = models.Genre{ID: 1, Name: "Fantasy"}

// SeedMovie returns the canonical movie written on first schema creation.
func SeedMovie() *models.Movie {
	plot := "Harry waves a stick and Snape goes pew pew"
	return &models.Movie{
		ID:          1,
		Title:       "Harry Potter and the Half Blood Prince",
		ReleaseDate: time.Date(2009, time.July, 15, 0, 0, 0, 0, time.UTC),
		Synopsis:    &plot,
		AgeRating:   models.AgeRatingAdolescent,
		MainGenreID: SeedGenre.ID,
		Director:    &models.Person{FirstName: "David", LastName: "Yates"},
		Actors: []models.Person{
			{FirstName: "Daniel", LastName: "Radcliffe"},
			{FirstName: "Emma", LastName: "Watson"},
			{FirstName: "Rupert", LastName: "Grint"},
		},
	}
}

// Seed writes the seed genre and movie, owned rows included, in one transaction.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		genre := ToGenreRecord(&SeedGenre)
		if err := tx.Create(&genre).Error; err != nil {
			return fmt.Errorf("failed to seed genre %q: %w", genre.Name, err)
		}

		picture := ToPictureRecord(SeedMovie())
		if err := tx.Omit(clause.Associations).Create(&picture).Error; err != nil {
			return fmt.Errorf("failed to seed picture %q: %w", picture.Title, err)
		}
		if picture.Director != nil {
			if err := tx.Create(picture.Director).Error; err != nil {
				return fmt.Errorf("failed to seed director of picture %d: %w", picture.ID, err)
			}
		}
		if len(picture.Actors) > 0 {
			if err := tx.Create(&picture.Actors).Error; err != nil {
				return fmt.Errorf("failed to seed actors of picture %d: %w", picture.ID, err)
			}
		}

		// explicit ids leave postgres sequences behind
		if tx.Dialector.Name() == "postgres" {
			for _, table := range []string{GenresTable, PicturesTable} {
				err := tx.Exec(fmt.Sprintf(`SELECT setval(pg_get_serial_sequence('"%s"', '%s'), (SELECT MAX("%s") FROM "%s"))`,
					table, ColumnID, ColumnID, table)).Error
				if err != nil {
					return fmt.Errorf("failed to advance id sequence of %s: %w", table, err)
				}
			}
		}
		return nil
	})
}
