package repository

import (
	"context"

	"github.com/camden-git/moviesbackend/database"
	"github.com/camden-git/moviesbackend/models"
	"gorm.io/gorm/clause"
)

// GenreSet is the Genres collection of a MoviesContext. A genre's movies are
// not loaded with it; use Movies.Query().InGenre(id).
type GenreSet struct {
	c *MoviesContext
}

// List returns all genres ordered by name. Results are tracked.
func (s *GenreSet) List(ctx context.Context) ([]*models.Genre, error) {
	var records []database.GenreRecord
	err := s.c.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: database.ColumnName}}).
		Find(&records).Error
	if err != nil {
		return nil, classify("list genres", err)
	}
	return s.attachAll(records)
}

// Find returns the genre with id, or nil. Tracked genres are returned without
// a round trip.
func (s *GenreSet) Find(ctx context.Context, id int) (*models.Genre, error) {
	if g, ok := s.c.genreByID[id]; ok {
		return g, nil
	}
	var records []database.GenreRecord
	err := s.c.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: database.ColumnID}, Value: id}).
		Limit(1).
		Find(&records).Error
	if err != nil {
		return nil, classify("find genre", err)
	}
	genres, err := s.attachAll(records)
	if err != nil || len(genres) == 0 {
		return nil, err
	}
	return genres[0], nil
}

func (s *GenreSet) attachAll(records []database.GenreRecord) ([]*models.Genre, error) {
	genres := make([]*models.Genre, 0, len(records))
	for i := range records {
		tracked, err := s.c.attach(database.FromGenreRecord(&records[i]), records[i].ID)
		if err != nil {
			return nil, err
		}
		genres = append(genres, tracked.(*models.Genre))
	}
	return genres, nil
}

// Add stages g for insertion.
func (s *GenreSet) Add(g *models.Genre) error {
	return s.c.add(g)
}

// Remove stages g for deletion. The store refuses while movies still
// reference it.
func (s *GenreSet) Remove(g *models.Genre) error {
	return s.c.remove(g, g.ID)
}
