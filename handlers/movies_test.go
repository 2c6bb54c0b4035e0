package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camden-git/moviesbackend/config"
	"github.com/camden-git/moviesbackend/database"
	"github.com/camden-git/moviesbackend/handlers"
	"github.com/camden-git/moviesbackend/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	dsn := database.SQLiteDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	db, err := database.Open(sqlite.Open(dsn), logger.Discard)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	_, err = database.Migrate(db, zerolog.Nop())
	require.NoError(t, err)

	cfg := config.Config{
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RequestTimeout:     10 * time.Second,
	}
	return handlers.NewRouter(cfg, db, zerolog.Nop()), db
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handlers.APIErrorResponse
	decode(t, rec, &resp)
	require.Len(t, resp.Errors, 1)
	return resp.Errors[0].Code
}

const gladiator = `{
	"id": 77,
	"title": "Gladiator",
	"releaseDate": "2000-05-05",
	"synopsis": "A general becomes a slave.",
	"ageRating": 4,
	"mainGenreId": 1,
	"director": {"firstName": "Ridley", "lastName": "Scott"},
	"actors": [{"firstName": "Russell", "lastName": "Crowe"}]
}`

func TestListMovies(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/movies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var movies []models.Movie
	decode(t, rec, &movies)
	require.Len(t, movies, 1)
	assert.Equal(t, "Harry Potter and the Half Blood Prince", movies[0].Title)
	assert.Equal(t, time.Date(2009, time.July, 15, 0, 0, 0, 0, time.UTC), movies[0].ReleaseDate)
	assert.Len(t, movies[0].Actors, 3)
}

func TestListMoviesByYear(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/movies/by-year/2009", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var rows []map[string]interface{}
	decode(t, rec, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, map[string]interface{}{
		"id":    float64(1),
		"title": "Harry Potter and the Half Blood Prince",
	}, rows[0])

	rec = do(t, h, http.MethodGet, "/movies/by-year/2010", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, year := range []string{"0", "-5", "10000"} {
		rec = do(t, h, http.MethodGet, "/movies/by-year/"+year, "")
		assert.Equal(t, http.StatusOK, rec.Code, "year %s: %s", year, rec.Body.String())
		assert.JSONEq(t, `[]`, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/movies/by-year/soon", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_parameter", errorCode(t, rec))
}

func TestGetMovie(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/movies/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m models.Movie
	decode(t, rec, &m)
	assert.Equal(t, 1, m.ID)
	assert.Equal(t, models.AgeRatingAdolescent, m.AgeRating)
	require.NotNil(t, m.Director)
	assert.Equal(t, "Yates", m.Director.LastName)

	rec = do(t, h, http.MethodGet, "/movies/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorCode(t, rec))

	rec = do(t, h, http.MethodGet, "/movies/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateMovie(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/movies", gladiator)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Movie
	decode(t, rec, &created)
	assert.NotEqual(t, 77, created.ID, "the client id is ignored")
	assert.Greater(t, created.ID, 1)
	assert.Equal(t, fmt.Sprintf("/movies/%d", created.ID), rec.Header().Get("Location"))

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/movies/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched models.Movie
	decode(t, rec, &fetched)
	assert.Equal(t, created, fetched)
	assert.Equal(t, models.AgeRatingAdult, fetched.AgeRating)
	assert.Equal(t, []models.Person{{FirstName: "Russell", LastName: "Crowe"}}, fetched.Actors)
}

func TestCreateMovie_Rejected(t *testing.T) {
	h, db := newTestServer(t)

	cases := map[string]struct {
		body   string
		status int
		code   string
	}{
		"malformed json": {`{"title":`, http.StatusBadRequest, "invalid_body"},
		"bad date":       {`{"title":"x","releaseDate":"15/07/2009","mainGenreId":1}`, http.StatusBadRequest, "invalid_body"},
		"empty title":    {`{"title":"","releaseDate":"2009-07-15","mainGenreId":1}`, http.StatusBadRequest, "constraint_violation"},
		"long title":     {`{"title":"` + strings.Repeat("a", 129) + `","releaseDate":"2009-07-15","mainGenreId":1}`, http.StatusBadRequest, "constraint_violation"},
		"unknown genre":  {`{"title":"x","releaseDate":"2009-07-15","mainGenreId":42}`, http.StatusBadRequest, "constraint_violation"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/movies", c.body)
			assert.Equal(t, c.status, rec.Code, rec.Body.String())
			assert.Equal(t, c.code, errorCode(t, rec))
		})
	}

	var n int64
	require.NoError(t, db.Model(&database.PictureRecord{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCreateMovie_AcceptsTimestamp(t *testing.T) {
	h, _ := newTestServer(t)

	body := `{"title":"Memento","releaseDate":"2000-09-05T00:00:00Z","mainGenreId":1}`
	rec := do(t, h, http.MethodPost, "/movies", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var m models.Movie
	decode(t, rec, &m)
	assert.Equal(t, []models.Person{}, m.Actors)
	assert.Nil(t, m.Director)

	rec = do(t, h, http.MethodGet, "/movies/by-year/2000", "")
	assert.JSONEq(t, fmt.Sprintf(`[{"id":%d,"title":"Memento"}]`, m.ID), rec.Body.String())
}

func TestCreateMovie_KeepsCalendarDateOnly(t *testing.T) {
	h, _ := newTestServer(t)

	body := `{"title":"Late show","releaseDate":"2009-07-15T23:30:00-05:00","mainGenreId":1}`
	rec := do(t, h, http.MethodPost, "/movies", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	decode(t, rec, &created)
	assert.Equal(t, "2009-07-15T00:00:00Z", created["releaseDate"])

	rec = do(t, h, http.MethodGet, rec.Header().Get("Location"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched map[string]interface{}
	decode(t, rec, &fetched)
	assert.Equal(t, created, fetched)
}

func TestUpdateMovie(t *testing.T) {
	h, _ := newTestServer(t)

	body := `{
		"id": 55,
		"title": "Half-Blood Prince",
		"releaseDate": "2009-07-17",
		"synopsis": null,
		"ageRating": 0,
		"mainGenreId": 99,
		"director": {"firstName": "Someone", "lastName": "Else"},
		"actors": []
	}`
	rec := do(t, h, http.MethodPut, "/movies/1", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/movies/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var m models.Movie
	decode(t, rec, &m)

	assert.Equal(t, 1, m.ID)
	assert.Equal(t, "Half-Blood Prince", m.Title)
	assert.Equal(t, time.Date(2009, time.July, 17, 0, 0, 0, 0, time.UTC), m.ReleaseDate)
	assert.Nil(t, m.Synopsis)

	// outside the allow-list, so untouched
	assert.Equal(t, models.AgeRatingAdolescent, m.AgeRating)
	assert.Equal(t, 1, m.MainGenreID)
	assert.Equal(t, "Yates", m.Director.LastName)
	assert.Len(t, m.Actors, 3)
}

func TestUpdateMovie_Rejected(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/movies/999", gladiator)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPut, "/movies/1", `{"title":"","releaseDate":"2009-07-15"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "constraint_violation", errorCode(t, rec))

	// a date before the cutoff hides the movie from every later read
	rec = do(t, h, http.MethodPut, "/movies/1", `{"title":"Old","releaseDate":"1990-01-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/movies/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMovie_WithoutReleaseDate(t *testing.T) {
	h, db := newTestServer(t)

	// the body replaces the date too, so omitting it stores the zero date,
	// which the release filter then hides
	rec := do(t, h, http.MethodPut, "/movies/1", `{"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var raw string
	require.NoError(t, db.Raw(`SELECT "ReleaseDate" FROM "Pictures" WHERE "Id" = ?`, 1).Scan(&raw).Error)
	assert.Equal(t, "00010101", raw)

	rec = do(t, h, http.MethodGet, "/movies/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMovie(t *testing.T) {
	h, db := newTestServer(t)

	rec := do(t, h, http.MethodDelete, "/movies/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/movies/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/movies/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	counts, err := database.GetOwnedCounts(sqlDB, db.Dialector.Name(), 1)
	require.NoError(t, err)
	assert.Equal(t, database.OwnedCounts{}, counts)
}

func TestGenreEndpoints(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/genres", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Fantasy"}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/genres/1/movies", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var movies []models.Movie
	decode(t, rec, &movies)
	require.Len(t, movies, 1)
	assert.Equal(t, 1, movies[0].ID)

	rec = do(t, h, http.MethodGet, "/genres/2/movies", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	h, db := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, map[string]interface{}{"database": "ok"}, body["checks"])

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORS(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/movies", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
