package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// builderFor returns a statement builder using the placeholders of dialect.
func builderFor(dialect string) sq.StatementBuilderType {
	if dialect == "postgres" {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return psql
}

func quote(name string) string {
	return `"` + name + `"`
}

// OwnedCounts is how many owned rows a picture has.
type OwnedCounts struct {
	Directors int64
	Actors    int64
}

// GetOwnedCounts counts the Director and Actor rows stored under pictureID,
// whether or not the picture itself still exists.
func GetOwnedCounts(db *sql.DB, dialect string, pictureID int) (OwnedCounts, error) {
	var counts OwnedCounts
	b := builderFor(dialect)

	for _, t := range []struct {
		table string
		dest  *int64
	}{
		{DirectorsTable, &counts.Directors},
		{ActorsTable, &counts.Actors},
	} {
		sqlStr, args, err := b.Select("COUNT(*)").
			From(quote(t.table)).
			Where(sq.Eq{quote(ColumnPictureID): pictureID}).
			ToSql()
		if err != nil {
			return OwnedCounts{}, fmt.Errorf("failed to build SQL query for GetOwnedCounts: %w", err)
		}
		if err := db.QueryRow(sqlStr, args...).Scan(t.dest); err != nil {
			return OwnedCounts{}, fmt.Errorf("failed to count %s rows for picture %d: %w", t.table, pictureID, err)
		}
	}
	return counts, nil
}

// CountOrphanedOwnedRows counts Director and Actor rows whose picture no
// longer exists. Anything above zero means a cascade was missed.
func CountOrphanedOwnedRows(db *sql.DB, dialect string) (int64, error) {
	var total int64
	b := builderFor(dialect)

	for _, table := range []string{DirectorsTable, ActorsTable} {
		sqlStr, args, err := b.Select("COUNT(*)").
			From(quote(table) + " o").
			LeftJoin(fmt.Sprintf("%s p ON p.%s = o.%s", quote(PicturesTable), quote(ColumnID), quote(ColumnPictureID))).
			Where(sq.Eq{"p." + quote(ColumnID): nil}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build SQL query for CountOrphanedOwnedRows: %w", err)
		}
		var n int64
		if err := db.QueryRow(sqlStr, args...).Scan(&n); err != nil {
			return 0, fmt.Errorf("failed to count orphaned %s rows: %w", table, err)
		}
		total += n
	}
	return total, nil
}
