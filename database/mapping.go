package database

import (
	"time"

	"github.com/camden-git/moviesbackend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Storage names. Entities are renamed here and only here.
const (
	PicturesTable  = "Pictures"
	GenresTable    = "Genres"
	DirectorsTable = "Picture_Directors"
	ActorsTable    = "Picture_Actors"

	ColumnID          = "Id"
	ColumnTitle       = "Title"
	ColumnReleaseDate = "ReleaseDate"
	ColumnPlot        = "Plot"
	ColumnAgeRating   = "AgeRating"
	ColumnMainGenreID = "MainGenreId"
	ColumnPictureID   = "PictureId"
	ColumnName        = "Name"
)

// ReleaseCutoff is the first release date visible through default queries.
var ReleaseCutoff = time.Date(1997, time.January, 1, 0, 0, 0, 0, time.UTC)

// PictureRecord maps models.Movie onto the Pictures table.
type PictureRecord struct {
	ID          int       `gorm:"column:Id;primaryKey;autoIncrement"`
	Title       string    `gorm:"column:Title;type:varchar(128);not null" validate:"required,max=128"`
	ReleaseDate Char8Date `gorm:"column:ReleaseDate;type:char(8);not null"`
	Plot        *string   `gorm:"column:Plot;type:text"`
	AgeRating   int       `gorm:"column:AgeRating;not null;default:0"`
	MainGenreID int       `gorm:"column:MainGenreId;not null;index"`

	// MainGenreID backs Genre by the <Relation>ID convention; the tag spells it out
	Genre    *GenreRecord    `gorm:"foreignKey:MainGenreID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Director *DirectorRecord `gorm:"foreignKey:PictureID;references:ID;constraint:OnDelete:CASCADE"`
	Actors   []ActorRecord   `gorm:"foreignKey:PictureID;references:ID;constraint:OnDelete:CASCADE"`
}

func (PictureRecord) TableName() string {
	return PicturesTable
}

// PictureTitleRecord receives the narrowed Id/Title projection of Pictures.
type PictureTitleRecord struct {
	ID    int    `gorm:"column:Id"`
	Title string `gorm:"column:Title"`
}

// GenreRecord maps models.Genre onto the Genres table. CreatedDate is a
// shadow column: it is stored but has no field on the entity.
type GenreRecord struct {
	ID          int       `gorm:"column:Id;primaryKey;autoIncrement"`
	Name        string    `gorm:"column:Name;type:varchar(64);not null" validate:"required,max=64"`
	CreatedDate time.Time `gorm:"column:CreatedDate;autoCreateTime"`
}

func (GenreRecord) TableName() string {
	return GenresTable
}

// DirectorRecord is the owned single Director row, keyed by its picture.
type DirectorRecord struct {
	PictureID int    `gorm:"column:PictureId;primaryKey;autoIncrement:false"`
	FirstName string `gorm:"column:FirstName;not null"`
	LastName  string `gorm:"column:LastName;not null"`
}

func (DirectorRecord) TableName() string {
	return DirectorsTable
}

// ActorRecord is one owned Actor row, keyed by (PictureId, Id) where Id is
// a sequence local to the picture.
type ActorRecord struct {
	PictureID int    `gorm:"column:PictureId;primaryKey;autoIncrement:false"`
	ID        int    `gorm:"column:Id;primaryKey;autoIncrement:false"`
	FirstName string `gorm:"column:FirstName;not null"`
	LastName  string `gorm:"column:LastName;not null"`
}

func (ActorRecord) TableName() string {
	return ActorsTable
}

// ReleaseFilter is the standing query filter on Pictures.
func ReleaseFilter(db *gorm.DB) *gorm.DB {
	return db.Where(clause.Gte{
		Column: clause.Column{Table: PicturesTable, Name: ColumnReleaseDate},
		Value:  Char8Date(ReleaseCutoff),
	})
}

// ReleasedIn narrows Pictures to one calendar year. Because dates are stored
// as YYYYMMDD the year is a plain string range. A year that cannot be stored
// matches nothing.
func ReleasedIn(year int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !Representable(year) {
			return db.Where(clause.Expr{SQL: "1 = 0"})
		}
		col := clause.Column{Table: PicturesTable, Name: ColumnReleaseDate}
		first := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		last := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return db.Where(clause.Gte{Column: col, Value: Char8Date(first)}).
			Where(clause.Lte{Column: col, Value: Char8Date(last)})
	}
}

// InGenre narrows Pictures to one genre.
func InGenre(genreID int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(clause.Eq{
			Column: clause.Column{Table: PicturesTable, Name: ColumnMainGenreID},
			Value:  genreID,
		})
	}
}

// ToPictureRecord builds the stored form of a movie, owned rows included.
// Actor ids are assigned 1..n in slice order.
func ToPictureRecord(m *models.Movie) PictureRecord {
	rec := PictureRecord{
		ID:          m.ID,
		Title:       m.Title,
		ReleaseDate: Char8Date(m.ReleaseDate),
		Plot:        m.Synopsis,
		AgeRating:   int(m.AgeRating),
		MainGenreID: m.MainGenreID,
	}
	rec.Director, rec.Actors = OwnedRows(m.ID, m)
	return rec
}

// OwnedRows builds the Director and Actor rows of m under pictureID.
func OwnedRows(pictureID int, m *models.Movie) (*DirectorRecord, []ActorRecord) {
	var director *DirectorRecord
	if m.Director != nil {
		director = &DirectorRecord{
			PictureID: pictureID,
			FirstName: m.Director.FirstName,
			LastName:  m.Director.LastName,
		}
	}
	actors := make([]ActorRecord, 0, len(m.Actors))
	for i, a := range m.Actors {
		actors = append(actors, ActorRecord{
			PictureID: pictureID,
			ID:        i + 1,
			FirstName: a.FirstName,
			LastName:  a.LastName,
		})
	}
	return director, actors
}

// FromPictureRecord materializes a movie from its stored form.
func FromPictureRecord(rec *PictureRecord) *models.Movie {
	m := &models.Movie{
		ID:          rec.ID,
		Title:       rec.Title,
		ReleaseDate: rec.ReleaseDate.Time(),
		Synopsis:    rec.Plot,
		AgeRating:   models.AgeRating(rec.AgeRating),
		MainGenreID: rec.MainGenreID,
		Actors:      []models.Person{},
	}
	if rec.Genre != nil {
		m.Genre = FromGenreRecord(rec.Genre)
	}
	if rec.Director != nil {
		m.Director = &models.Person{FirstName: rec.Director.FirstName, LastName: rec.Director.LastName}
	}
	for _, a := range rec.Actors {
		m.Actors = append(m.Actors, models.Person{FirstName: a.FirstName, LastName: a.LastName})
	}
	return m
}

// PictureColumns returns the stored value of every mapped Pictures column
// except the key. Values are what would be written, converters applied.
func PictureColumns(m *models.Movie) (map[string]interface{}, error) {
	date, err := EncodeDate(m.ReleaseDate)
	if err != nil {
		return nil, err
	}
	var plot interface{}
	if m.Synopsis != nil {
		plot = *m.Synopsis
	}
	return map[string]interface{}{
		ColumnTitle:       m.Title,
		ColumnReleaseDate: date,
		ColumnPlot:        plot,
		ColumnAgeRating:   int(m.AgeRating),
		ColumnMainGenreID: m.MainGenreID,
	}, nil
}

func ToGenreRecord(g *models.Genre) GenreRecord {
	return GenreRecord{ID: g.ID, Name: g.Name}
}

func FromGenreRecord(rec *GenreRecord) *models.Genre {
	return &models.Genre{ID: rec.ID, Name: rec.Name}
}
