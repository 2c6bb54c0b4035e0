package repository

import (
	"context"
	"errors"

	"github.com/camden-git/moviesbackend/database"
	"github.com/camden-git/moviesbackend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovieSet is the Movies collection of a MoviesContext.
type MovieSet struct {
	c *MoviesContext
}

// Query starts a query over the visible movies. Nothing runs until the query
// is materialized.
func (s *MovieSet) Query() MovieQuery {
	return MovieQuery{c: s.c}
}

// Find returns the movie with id, or nil when it does not exist or is hidden
// by the release filter. A movie already tracked by this context is returned
// as is, without a round trip, so it reflects any pending changes rather than
// the latest stored row.
func (s *MovieSet) Find(ctx context.Context, id int) (*models.Movie, error) {
	if m, ok := s.c.movieByID[id]; ok {
		return m, nil
	}
	return s.Query().withID(id).First(ctx)
}

// Add stages m for insertion. Its ID is set by Commit.
func (s *MovieSet) Add(m *models.Movie) error {
	return s.c.add(m)
}

// Remove stages m for deletion together with its director and actors.
func (s *MovieSet) Remove(m *models.Movie) error {
	return s.c.remove(m, m.ID)
}

// MovieQuery is an immutable, lazily evaluated query over Pictures. Each
// builder method returns a new query.
type MovieQuery struct {
	c             *MoviesContext
	scopes        []func(*gorm.DB) *gorm.DB
	ignoreFilters bool
	includeGenre  bool
	byTitle       bool
}

func (q MovieQuery) with(scope func(*gorm.DB) *gorm.DB) MovieQuery {
	scopes := make([]func(*gorm.DB) *gorm.DB, 0, len(q.scopes)+1)
	q.scopes = append(append(scopes, q.scopes...), scope)
	return q
}

func (q MovieQuery) withID(id int) MovieQuery {
	return q.with(func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{
			Column: clause.Column{Table: database.PicturesTable, Name: database.ColumnID},
			Value:  id,
		})
	})
}

// ReleasedIn keeps movies released in year.
func (q MovieQuery) ReleasedIn(year int) MovieQuery {
	return q.with(database.ReleasedIn(year))
}

// InGenre keeps movies whose main genre is genreID.
func (q MovieQuery) InGenre(genreID int) MovieQuery {
	return q.with(database.InGenre(genreID))
}

// IgnoreQueryFilters drops the standing release filter for this query.
func (q MovieQuery) IgnoreQueryFilters() MovieQuery {
	q.ignoreFilters = true
	return q
}

// IncludeGenre loads the Genre navigation of each movie.
func (q MovieQuery) IncludeGenre() MovieQuery {
	q.includeGenre = true
	return q
}

// OrderByTitle sorts by title instead of id.
func (q MovieQuery) OrderByTitle() MovieQuery {
	q.byTitle = true
	return q
}

func (q MovieQuery) build(ctx context.Context) *gorm.DB {
	db := q.c.db.WithContext(ctx).Model(&database.PictureRecord{})
	if !q.ignoreFilters {
		db = db.Scopes(database.ReleaseFilter)
	}
	return db.Scopes(q.scopes...)
}

func (q MovieQuery) order(db *gorm.DB) *gorm.DB {
	name := database.ColumnID
	if q.byTitle {
		name = database.ColumnTitle
	}
	return db.Order(clause.OrderByColumn{Column: clause.Column{Table: database.PicturesTable, Name: name}})
}

func orderActors(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Table: database.ActorsTable, Name: database.ColumnID}})
}

// List materializes the query. Results are tracked; a movie already tracked
// by the context is returned as the tracked instance.
func (q MovieQuery) List(ctx context.Context) ([]*models.Movie, error) {
	return q.list(ctx, 0)
}

// First materializes the first match, or nil.
func (q MovieQuery) First(ctx context.Context) (*models.Movie, error) {
	movies, err := q.list(ctx, 1)
	if err != nil || len(movies) == 0 {
		return nil, err
	}
	return movies[0], nil
}

func (q MovieQuery) list(ctx context.Context, limit int) ([]*models.Movie, error) {
	db := q.order(q.build(ctx)).
		Preload("Director").
		Preload("Actors", orderActors)
	if q.includeGenre {
		db = db.Preload("Genre")
	}
	if limit > 0 {
		db = db.Limit(limit)
	}

	var records []database.PictureRecord
	if err := db.Find(&records).Error; err != nil {
		return nil, readError("list movies", err)
	}

	movies := make([]*models.Movie, 0, len(records))
	for i := range records {
		tracked, err := q.c.attach(database.FromPictureRecord(&records[i]), records[i].ID)
		if err != nil {
			return nil, readError("list movies", err)
		}
		movies = append(movies, tracked.(*models.Movie))
	}
	return movies, nil
}

// Count returns the number of matching movies.
func (q MovieQuery) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := q.build(ctx).Count(&n).Error; err != nil {
		return 0, readError("count movies", err)
	}
	return n, nil
}

// Titles materializes only the Id and Title columns. The results are not
// tracked.
func (q MovieQuery) Titles(ctx context.Context) ([]models.MovieTitle, error) {
	var rows []database.PictureTitleRecord
	err := q.order(q.build(ctx)).
		Select(database.ColumnID, database.ColumnTitle).
		Find(&rows).Error
	if err != nil {
		return nil, readError("list movie titles", err)
	}

	titles := make([]models.MovieTitle, 0, len(rows))
	for _, r := range rows {
		titles = append(titles, models.MovieTitle{ID: r.ID, Title: r.Title})
	}
	return titles, nil
}

// readError keeps a FormatError visible to callers: a row the converter
// cannot decode is corrupt, and retrying will not help. A value that could not
// be encoded as a query argument is not corruption and is classified normally.
func readError(op string, err error) error {
	var fe *database.FormatError
	if errors.As(err, &fe) && !fe.Encoding {
		return &ReadError{Op: op, Err: fe}
	}
	return classify(op, err)
}

// ReadError is a materialization that failed because a stored value could
// not be converted.
type ReadError struct {
	Op  string
	Err *database.FormatError
}

func (e *ReadError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}
