package repositories_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"tour-route-service/internal/adapters/repositories"
	"tour-route-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tourRowColumns = []string{
	"id", "name", "description", "route_data", "route_polyline", "created_by", "created_at", "is_active",
}

func sampleTour() *domain.Tour {
	return &domain.Tour{
		ID:          "tour-1",
		Name:        "Old Town",
		Description: "Plazas and churches",
		Route: domain.RouteSnapshot{
			Waypoints: []domain.Coordinate{{Latitude: 38.5, Longitude: -120.2}, {Latitude: 40.7, Longitude: -120.95}},
			POIs: []domain.POI{{
				ID:          "p1",
				Title:       "Plaza Mayor",
				Description: "Main square",
				Images:      []string{"https://img/1.jpg"},
				Coordinate:  domain.Coordinate{Latitude: 38.5, Longitude: -120.2},
			}},
		},
		CreatedBy: "ops",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		IsActive:  true,
	}
}

func TestSaveTour(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)
		tour := sampleTour()

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tours")).
			WithArgs("tour-1", "Old Town", "Plazas and churches", pgxmock.AnyArg(),
				"_p~iF~ps|U_ulLnnqC", "ops", tour.CreatedAt, true).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.SaveTour(ctx, tour))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("assigns id and creation time", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)
		tour := &domain.Tour{Name: "n", Description: "d"}

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tours")).
			WithArgs(pgxmock.AnyArg(), "n", "d", pgxmock.AnyArg(), "", "", pgxmock.AnyArg(), false).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, repo.SaveTour(ctx, tour))
		assert.NotEmpty(t, tour.ID)
		assert.False(t, tour.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("exec error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tours")).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(assert.AnError)

		err = repo.SaveTour(ctx, sampleTour())
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, `save tour "tour-1"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetTour(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)
		want := sampleTour()

		mock.ExpectQuery(regexp.QuoteMeta("FROM tours WHERE id = $1")).
			WithArgs("tour-1").
			WillReturnRows(pgxmock.NewRows(tourRowColumns).AddRow(
				"tour-1", "Old Town", "Plazas and churches",
				[]byte(`[{"id":"p1","title":"Plaza Mayor","description":"Main square","images":["https://img/1.jpg"],"lat":38.5,"lng":-120.2}]`),
				"_p~iF~ps|U_ulLnnqC", "ops", want.CreatedAt, true,
			))

		got, err := repo.GetTour(ctx, "tour-1")
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.CreatedAt, got.CreatedAt)
		assert.Equal(t, want.Route.POIs, got.Route.POIs)
		require.Len(t, got.Route.Waypoints, 2)
		for i, w := range want.Route.Waypoints {
			assert.InDelta(t, w.Latitude, got.Route.Waypoints[i].Latitude, 1e-9)
			assert.InDelta(t, w.Longitude, got.Route.Waypoints[i].Longitude, 1e-9)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta("FROM tours WHERE id = $1")).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetTour(ctx, "missing")
		require.Nil(t, got)
		require.ErrorIs(t, err, domain.ErrTourNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt polyline", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta("FROM tours WHERE id = $1")).
			WithArgs("tour-1").
			WillReturnRows(pgxmock.NewRows(tourRowColumns).AddRow(
				"tour-1", "n", "d", []byte(`[]`), "_p~iF~ps|U_", "", time.Now(), true,
			))

		_, err = repo.GetTour(ctx, "tour-1")
		require.ErrorContains(t, err, "decode route_polyline")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListTours(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()

	t.Run("active only", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)
		created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs(true).
			WillReturnRows(pgxmock.NewRows(tourRowColumns).
				AddRow("b", "B", "second", []byte(`[]`), "", "", created.Add(time.Hour), true).
				AddRow("a", "A", "first", []byte(`[]`), "", "", created, true))

		tours, err := repo.ListTours(ctx, true)
		require.NoError(t, err)
		require.Len(t, tours, 2)
		assert.Equal(t, "b", tours[0].ID)
		assert.Equal(t, "a", tours[1].ID)
		assert.Empty(t, tours[0].Route.POIs)
		assert.NotNil(t, tours[0].Route.Waypoints)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs(false).
			WillReturnError(assert.AnError)

		tours, err := repo.ListTours(ctx, false)
		require.Nil(t, tours)
		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "query tours table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rows error", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs(false).
			WillReturnRows(pgxmock.NewRows(tourRowColumns).
				AddRow("a", "A", "first", []byte(`[]`), "", "", time.Now(), true).
				RowError(0, assert.AnError))

		tours, err := repo.ListTours(ctx, false)
		require.Nil(t, tours)
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResolveQRCode(t *testing.T) {
	t.Parallel()
	logger := slog.Default()
	ctx := t.Context()
	columns := []string{"code", "tour_id", "is_active", "expires_at"}

	t.Run("without expiry", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta("FROM qr_codes WHERE code = $1")).
			WithArgs("ABC").
			WillReturnRows(pgxmock.NewRows(columns).AddRow("ABC", "tour-1", true, (*time.Time)(nil)))

		qr, err := repo.ResolveQRCode(ctx, "ABC")
		require.NoError(t, err)
		assert.Equal(t, &domain.QRCode{Code: "ABC", TourID: "tour-1", IsActive: true}, qr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with expiry", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)
		expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(regexp.QuoteMeta("FROM qr_codes WHERE code = $1")).
			WithArgs("XYZ").
			WillReturnRows(pgxmock.NewRows(columns).AddRow("XYZ", "tour-2", false, &expires))

		qr, err := repo.ResolveQRCode(ctx, "XYZ")
		require.NoError(t, err)
		require.NotNil(t, qr.ExpiresAt)
		assert.True(t, expires.Equal(*qr.ExpiresAt))
		assert.False(t, qr.IsActive)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := repositories.NewPostgresTourRepository(mock, logger)

		mock.ExpectQuery(regexp.QuoteMeta("FROM qr_codes WHERE code = $1")).
			WithArgs("nope").
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.ResolveQRCode(ctx, "nope")
		require.ErrorIs(t, err, domain.ErrQRCodeNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInitSchema(t *testing.T) {
	t.Parallel()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS tours")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS qr_codes")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS route_cache")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS")).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCommit()

	require.NoError(t, repositories.InitSchema(t.Context(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedFromJSON(t *testing.T) {
	t.Parallel()

	t.Run("inserts tours and codes", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		path := filepath.Join(t.TempDir(), "tours.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
			{
				"id": "tour-1",
				"name": "Old Town",
				"description": "Plazas",
				"route": {"waypoints": [], "pois": [{"title": "A", "description": "a", "images": [], "lat": 40.41, "lng": -3.70}]},
				"qr_codes": [{"code": "ABC"}]
			}
		]`), 0o600))

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tours")).
			WithArgs("tour-1", "Old Town", "Plazas", pgxmock.AnyArg(), "", "").
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO qr_codes")).
			WithArgs("ABC", "tour-1", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, repositories.SeedFromJSON(t.Context(), mock, path))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid tour before touching the db", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		err = repositories.SeedTours(t.Context(), mock, []repositories.TourSeed{{Name: "no description"}})
		require.ErrorIs(t, err, domain.ErrInvalidTour)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		err = repositories.SeedFromJSON(t.Context(), mock, filepath.Join(t.TempDir(), "nope.json"))
		require.ErrorContains(t, err, "seed tours: read")
	})
}

func TestMemoryTourRepository(t *testing.T) {
	ctx := t.Context()
	repo := repositories.NewMemoryTourRepository()

	older := sampleTour()
	newer := &domain.Tour{
		Name:        "Night walk",
		Description: "After dark",
		CreatedAt:   older.CreatedAt.Add(time.Hour),
	}
	require.NoError(t, repo.SaveTour(ctx, older))
	require.NoError(t, repo.SaveTour(ctx, newer))
	assert.NotEmpty(t, newer.ID)

	got, err := repo.GetTour(ctx, "tour-1")
	require.NoError(t, err)
	got.Route.POIs[0].Title = "changed"

	again, err := repo.GetTour(ctx, "tour-1")
	require.NoError(t, err)
	assert.Equal(t, "Plaza Mayor", again.Route.POIs[0].Title)

	all, err := repo.ListTours(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)

	active, err := repo.ListTours(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "tour-1", active[0].ID)

	_, err = repo.GetTour(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrTourNotFound)

	repo.PutQRCode(domain.QRCode{Code: "ABC", TourID: "tour-1", IsActive: true})
	qr, err := repo.ResolveQRCode(ctx, "ABC")
	require.NoError(t, err)
	assert.Equal(t, "tour-1", qr.TourID)

	_, err = repo.ResolveQRCode(ctx, "nope")
	require.ErrorIs(t, err, domain.ErrQRCodeNotFound)
}
