package repository

import (
	"fmt"
	"reflect"

	"github.com/camden-git/moviesbackend/database"
	"github.com/camden-git/moviesbackend/models"
)

// EntityState is where an instance sits in the unit of work.
type EntityState int

const (
	Detached EntityState = iota
	Added
	Unchanged
	Modified
	Deleted
)

func (s EntityState) String() string {
	switch s {
	case Detached:
		return "Detached"
	case Added:
		return "Added"
	case Unchanged:
		return "Unchanged"
	case Modified:
		return "Modified"
	case Deleted:
		return "Deleted"
	default:
		return fmt.Sprintf("EntityState(%d)", int(s))
	}
}

// entry tracks one *models.Movie or *models.Genre. state is never Modified:
// modification is detected by diffing against original.
type entry struct {
	entity interface{}
	state  EntityState
	key    int

	original map[string]interface{}
	director *models.Person
	actors   []models.Person
}

// columnsOf returns the stored column values of a tracked entity.
func columnsOf(entity interface{}) (map[string]interface{}, error) {
	switch e := entity.(type) {
	case *models.Movie:
		return database.PictureColumns(e)
	case *models.Genre:
		return map[string]interface{}{database.ColumnName: e.Name}, nil
	default:
		return nil, fmt.Errorf("unsupported entity type %T", entity)
	}
}

// snapshot records the current values as the unchanged baseline.
func (en *entry) snapshot() error {
	cols, err := columnsOf(en.entity)
	if err != nil {
		return err
	}
	en.original = cols
	if m, ok := en.entity.(*models.Movie); ok {
		en.director = nil
		if m.Director != nil {
			d := *m.Director
			en.director = &d
		}
		en.actors = append([]models.Person(nil), m.Actors...)
	}
	return nil
}

// changedColumns returns the columns whose stored value differs from the
// snapshot, with their new values.
func (en *entry) changedColumns() (map[string]interface{}, error) {
	current, err := columnsOf(en.entity)
	if err != nil {
		return nil, err
	}
	changed := make(map[string]interface{})
	for col, v := range current {
		if !reflect.DeepEqual(en.original[col], v) {
			changed[col] = v
		}
	}
	return changed, nil
}

// ownedChanged reports whether the Director or Actors differ from the snapshot.
func (en *entry) ownedChanged() bool {
	m, ok := en.entity.(*models.Movie)
	if !ok {
		return false
	}
	if (m.Director == nil) != (en.director == nil) {
		return true
	}
	if m.Director != nil && *m.Director != *en.director {
		return true
	}
	if len(m.Actors) != len(en.actors) {
		return true
	}
	for i := range m.Actors {
		if m.Actors[i] != en.actors[i] {
			return true
		}
	}
	return false
}

// currentState folds change detection into the stored state.
func (en *entry) currentState() (EntityState, error) {
	if en.state != Unchanged {
		return en.state, nil
	}
	changed, err := en.changedColumns()
	if err != nil {
		return Unchanged, err
	}
	if len(changed) > 0 || en.ownedChanged() {
		return Modified, nil
	}
	return Unchanged, nil
}
