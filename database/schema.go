package database

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Migrate creates or updates the mapped tables. When the Pictures table did
// not exist beforehand the seed rows are written too. It reports whether the
// schema was created by this call.
func Migrate(db *gorm.DB, log zerolog.Logger) (bool, error) {
	created := !db.Migrator().HasTable(&PictureRecord{})

	err := db.AutoMigrate(
		&GenreRecord{},
		&PictureRecord{},
		&DirectorRecord{},
		&ActorRecord{},
	)
	if err != nil {
		return false, fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}

	if created {
		if err := Seed(db); err != nil {
			return true, err
		}
		log.Info().Msg("schema created and seeded")
	}
	return created, nil
}

// VerifySchema checks that the mapping agrees with the store: every table and
// mapped column exists and the Genre relationship resolves to
// Pictures.MainGenreId -> Genres.Id. Callers must not serve requests when it fails.
func VerifySchema(db *gorm.DB) error {
	m := db.Migrator()
	for _, model := range []interface{}{&GenreRecord{}, &PictureRecord{}, &DirectorRecord{}, &ActorRecord{}} {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("failed to parse mapping for %T: %w", model, err)
		}
		if !m.HasTable(model) {
			return fmt.Errorf("table %s is missing", stmt.Schema.Table)
		}
		for _, column := range stmt.Schema.DBNames {
			if !m.HasColumn(model, column) {
				return fmt.Errorf("column %s.%s is missing", stmt.Schema.Table, column)
			}
		}
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(&PictureRecord{}); err != nil {
		return fmt.Errorf("failed to parse mapping for pictures: %w", err)
	}
	if err := checkRelation(stmt.Schema, "Genre", schema.BelongsTo, GenresTable, ColumnMainGenreID, ColumnID); err != nil {
		return err
	}
	if err := checkRelation(stmt.Schema, "Director", schema.HasOne, DirectorsTable, ColumnPictureID, ColumnID); err != nil {
		return err
	}
	if err := checkRelation(stmt.Schema, "Actors", schema.HasMany, ActorsTable, ColumnPictureID, ColumnID); err != nil {
		return err
	}
	if !m.HasConstraint(&PictureRecord{}, "Genre") {
		return fmt.Errorf("foreign key %s.%s -> %s.%s is missing", PicturesTable, ColumnMainGenreID, GenresTable, ColumnID)
	}
	return nil
}

func checkRelation(s *schema.Schema, name string, kind schema.RelationshipType, table, foreignKey, primaryKey string) error {
	rel, ok := s.Relationships.Relations[name]
	if !ok {
		return fmt.Errorf("relationship %s.%s cannot be resolved", s.Table, name)
	}
	if rel.Type != kind {
		return fmt.Errorf("relationship %s.%s is %s, expected %s", s.Table, name, rel.Type, kind)
	}
	if rel.FieldSchema.Table != table {
		return fmt.Errorf("relationship %s.%s targets %s, expected %s", s.Table, name, rel.FieldSchema.Table, table)
	}
	if len(rel.References) != 1 {
		return fmt.Errorf("relationship %s.%s has %d key pairs, expected 1", s.Table, name, len(rel.References))
	}
	ref := rel.References[0]
	if ref.ForeignKey.DBName != foreignKey || ref.PrimaryKey.DBName != primaryKey {
		return fmt.Errorf("relationship %s.%s binds %s -> %s, expected %s -> %s",
			s.Table, name, ref.ForeignKey.DBName, ref.PrimaryKey.DBName, foreignKey, primaryKey)
	}
	return nil
}
