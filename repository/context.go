package repository

import (
	"context"
	"fmt"

	"github.com/camden-git/moviesbackend/database"
	"github.com/camden-git/moviesbackend/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var validate = validator.New()

// MoviesContext is a unit of work over the movies store. It tracks every
// entity it loads or is given, and Commit writes all pending changes in one
// transaction. A context belongs to a single request and is not safe for
// concurrent use.
type MoviesContext struct {
	ID     uuid.UUID
	Movies *MovieSet
	Genres *GenreSet

	db  *gorm.DB
	log zerolog.Logger

	entries   []*entry
	byEntity  map[interface{}]*entry
	movieByID map[int]*models.Movie
	genreByID map[int]*models.Genre
	deleted   map[interface{}]struct{}
}

// NewMoviesContext creates a unit of work over db.
func NewMoviesContext(db *gorm.DB, log zerolog.Logger) *MoviesContext {
	id := uuid.New()
	c := &MoviesContext{
		ID:        id,
		db:        db,
		log:       log.With().Str("uow", id.String()).Logger(),
		byEntity:  make(map[interface{}]*entry),
		movieByID: make(map[int]*models.Movie),
		genreByID: make(map[int]*models.Genre),
		deleted:   make(map[interface{}]struct{}),
	}
	c.Movies = &MovieSet{c: c}
	c.Genres = &GenreSet{c: c}
	return c
}

// State reports the tracking state of a *models.Movie or *models.Genre.
// Instances whose deletion has been committed stay Deleted.
func (c *MoviesContext) State(entity interface{}) (EntityState, error) {
	if _, gone := c.deleted[entity]; gone {
		return Deleted, nil
	}
	en, ok := c.byEntity[entity]
	if !ok {
		return Detached, nil
	}
	return en.currentState()
}

// HasChanges reports whether Commit would write anything.
func (c *MoviesContext) HasChanges() (bool, error) {
	for _, en := range c.entries {
		s, err := en.currentState()
		if err != nil {
			return false, err
		}
		if s != Unchanged {
			return true, nil
		}
	}
	return false, nil
}

func (c *MoviesContext) add(entity interface{}) error {
	if _, gone := c.deleted[entity]; gone {
		return ErrEntityDeleted
	}
	if _, ok := c.byEntity[entity]; ok {
		return ErrAlreadyTracked
	}
	c.track(&entry{entity: entity, state: Added})
	return nil
}

func (c *MoviesContext) remove(entity interface{}, key int) error {
	if _, gone := c.deleted[entity]; gone {
		return ErrEntityDeleted
	}
	en, ok := c.byEntity[entity]
	if !ok {
		// a detached instance carrying a key is attached for deletion by key
		if key <= 0 {
			return ErrNotTracked
		}
		if c.trackedByKey(entity, key) != nil {
			return ErrAlreadyTracked
		}
		en = &entry{entity: entity, state: Unchanged, key: key}
		if err := en.snapshot(); err != nil {
			return err
		}
		c.track(en)
	}
	switch en.state {
	case Added:
		c.untrack(en)
	case Unchanged:
		en.state = Deleted
	}
	return nil
}

// attach tracks a freshly loaded instance as Unchanged, or returns the
// instance already tracked under the same key.
func (c *MoviesContext) attach(entity interface{}, key int) (interface{}, error) {
	if existing := c.trackedByKey(entity, key); existing != nil {
		return existing, nil
	}
	en := &entry{entity: entity, state: Unchanged, key: key}
	if err := en.snapshot(); err != nil {
		return nil, err
	}
	c.track(en)
	return entity, nil
}

func (c *MoviesContext) trackedByKey(entity interface{}, key int) interface{} {
	switch entity.(type) {
	case *models.Movie:
		if m, ok := c.movieByID[key]; ok {
			return m
		}
	case *models.Genre:
		if g, ok := c.genreByID[key]; ok {
			return g
		}
	}
	return nil
}

func (c *MoviesContext) track(en *entry) {
	c.entries = append(c.entries, en)
	c.byEntity[en.entity] = en
	c.index(en)
}

func (c *MoviesContext) index(en *entry) {
	if en.state == Added {
		return
	}
	switch e := en.entity.(type) {
	case *models.Movie:
		c.movieByID[en.key] = e
	case *models.Genre:
		c.genreByID[en.key] = e
	}
}

func (c *MoviesContext) untrack(en *entry) {
	delete(c.byEntity, en.entity)
	switch en.entity.(type) {
	case *models.Movie:
		if c.movieByID[en.key] == en.entity {
			delete(c.movieByID, en.key)
		}
	case *models.Genre:
		if c.genreByID[en.key] == en.entity {
			delete(c.genreByID, en.key)
		}
	}
	for i, other := range c.entries {
		if other == en {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			break
		}
	}
}

// plan is the work Commit performs, computed before the transaction opens.
type plan struct {
	genreInserts []*entry
	movieInserts []*entry
	updates      []update
	movieDeletes []*entry
	genreDeletes []*entry
}

type update struct {
	en      *entry
	columns map[string]interface{}
	owned   bool
}

func (c *MoviesContext) plan() (plan, error) {
	var p plan
	for _, en := range c.entries {
		switch en.state {
		case Added:
			switch en.entity.(type) {
			case *models.Genre:
				p.genreInserts = append(p.genreInserts, en)
			case *models.Movie:
				if _, err := database.EncodeDate(en.entity.(*models.Movie).ReleaseDate); err != nil {
					return plan{}, err
				}
				p.movieInserts = append(p.movieInserts, en)
			}
		case Deleted:
			switch en.entity.(type) {
			case *models.Movie:
				p.movieDeletes = append(p.movieDeletes, en)
			case *models.Genre:
				p.genreDeletes = append(p.genreDeletes, en)
			}
		case Unchanged:
			cols, err := en.changedColumns()
			if err != nil {
				return plan{}, err
			}
			owned := en.ownedChanged()
			if len(cols) > 0 || owned {
				p.updates = append(p.updates, update{en: en, columns: cols, owned: owned})
			}
		}
	}
	return p, nil
}

// Commit writes every pending insert, update and delete inside one
// transaction. Inserted entities receive their store-generated ids only once
// the transaction has committed; on failure nothing in memory changes and the
// same changes are still pending.
func (c *MoviesContext) Commit(ctx context.Context) error {
	p, err := c.plan()
	if err != nil {
		// only a date that cannot be written gets here
		return &ConstraintError{Op: "commit", Err: err}
	}
	if len(p.genreInserts)+len(p.movieInserts)+len(p.updates)+len(p.movieDeletes)+len(p.genreDeletes) == 0 {
		return nil
	}

	assigned := make(map[*entry]int)
	genreIDs := make(map[*models.Genre]int)

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, en := range p.genreInserts {
			rec := database.ToGenreRecord(en.entity.(*models.Genre))
			if err := validate.Struct(rec); err != nil {
				return err
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("insert genre %q: %w", rec.Name, err)
			}
			assigned[en] = rec.ID
			genreIDs[en.entity.(*models.Genre)] = rec.ID
		}

		for _, en := range p.movieInserts {
			m := en.entity.(*models.Movie)
			rec := database.ToPictureRecord(m)
			if id, ok := genreIDs[m.Genre]; ok && m.Genre != nil {
				rec.MainGenreID = id
			}
			if err := validate.Struct(rec); err != nil {
				return err
			}
			if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
				return fmt.Errorf("insert picture %q: %w", rec.Title, err)
			}
			if err := insertOwned(tx, rec.ID, m); err != nil {
				return err
			}
			assigned[en] = rec.ID
		}

		for _, u := range p.updates {
			if err := applyUpdate(tx, u); err != nil {
				return err
			}
		}

		for _, en := range p.movieDeletes {
			if err := deleteOwned(tx, en.key); err != nil {
				return err
			}
			res := tx.Delete(&database.PictureRecord{}, en.key)
			if res.Error != nil {
				return fmt.Errorf("delete picture %d: %w", en.key, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("delete picture %d: %w", en.key, ErrStaleEntity)
			}
		}

		for _, en := range p.genreDeletes {
			res := tx.Delete(&database.GenreRecord{}, en.key)
			if res.Error != nil {
				return fmt.Errorf("delete genre %d: %w", en.key, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("delete genre %d: %w", en.key, ErrStaleEntity)
			}
		}
		return nil
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("unit of work rolled back")
		return classify("commit", err)
	}

	c.accept(p, assigned, genreIDs)
	c.log.Debug().
		Int("inserted", len(p.genreInserts)+len(p.movieInserts)).
		Int("updated", len(p.updates)).
		Int("deleted", len(p.movieDeletes)+len(p.genreDeletes)).
		Msg("unit of work committed")
	return nil
}

// accept moves committed entries to their post-commit state.
func (c *MoviesContext) accept(p plan, assigned map[*entry]int, genreIDs map[*models.Genre]int) {
	for _, en := range append(p.genreInserts, p.movieInserts...) {
		en.key = assigned[en]
		switch e := en.entity.(type) {
		case *models.Genre:
			e.ID = en.key
		case *models.Movie:
			e.ID = en.key
			if id, ok := genreIDs[e.Genre]; ok && e.Genre != nil {
				e.MainGenreID = id
			}
		}
		en.state = Unchanged
		_ = en.snapshot()
		c.index(en)
	}
	for _, u := range p.updates {
		_ = u.en.snapshot()
	}
	for _, en := range append(p.movieDeletes, p.genreDeletes...) {
		c.untrack(en)
		c.deleted[en.entity] = struct{}{}
	}
}

func insertOwned(tx *gorm.DB, pictureID int, m *models.Movie) error {
	director, actors := database.OwnedRows(pictureID, m)
	if director != nil {
		if err := tx.Create(director).Error; err != nil {
			return fmt.Errorf("insert director of picture %d: %w", pictureID, err)
		}
	}
	if len(actors) > 0 {
		if err := tx.Create(&actors).Error; err != nil {
			return fmt.Errorf("insert actors of picture %d: %w", pictureID, err)
		}
	}
	return nil
}

func deleteOwned(tx *gorm.DB, pictureID int) error {
	byPicture := clause.Eq{Column: clause.Column{Name: database.ColumnPictureID}, Value: pictureID}
	if err := tx.Where(byPicture).Delete(&database.ActorRecord{}).Error; err != nil {
		return fmt.Errorf("delete actors of picture %d: %w", pictureID, err)
	}
	if err := tx.Where(byPicture).Delete(&database.DirectorRecord{}).Error; err != nil {
		return fmt.Errorf("delete director of picture %d: %w", pictureID, err)
	}
	return nil
}

// applyUpdate writes only the changed columns. Owned rows are replaced as a
// whole when any of them changed.
func applyUpdate(tx *gorm.DB, u update) error {
	byKey := clause.Eq{Column: clause.Column{Name: database.ColumnID}, Value: u.en.key}

	switch e := u.en.entity.(type) {
	case *models.Movie:
		if len(u.columns) > 0 {
			rec := database.ToPictureRecord(e)
			if err := validate.Struct(rec); err != nil {
				return err
			}
			res := tx.Table(database.PicturesTable).Where(byKey).Updates(u.columns)
			if res.Error != nil {
				return fmt.Errorf("update picture %d: %w", u.en.key, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("update picture %d: %w", u.en.key, ErrStaleEntity)
			}
		}
		if u.owned {
			if err := deleteOwned(tx, u.en.key); err != nil {
				return err
			}
			if err := insertOwned(tx, u.en.key, e); err != nil {
				return err
			}
		}
	case *models.Genre:
		rec := database.ToGenreRecord(e)
		if err := validate.Struct(rec); err != nil {
			return err
		}
		res := tx.Table(database.GenresTable).Where(byKey).Updates(u.columns)
		if res.Error != nil {
			return fmt.Errorf("update genre %d: %w", u.en.key, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("update genre %d: %w", u.en.key, ErrStaleEntity)
		}
	}
	return nil
}
