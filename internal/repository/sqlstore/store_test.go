package sqlstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/jengzang/dwell-backend-go/internal/database"
	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/repository"
)

var t0 = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

func TestSaveZone_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO zones`).
		WithArgs("Home", "flat", 50.088, 14.4208, 100.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewStore(db, database.DriverSQLite)
	err = store.SaveZone(context.Background(), models.Zone{
		Name: "Home", Description: "flat", Latitude: 50.088, Longitude: 14.4208, Radius: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestSaveZone_PostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)`).
		WillReturnResult(sqlmock.NewResult(1, 1))

	store := NewStore(db, database.DriverPostgres)
	if err := store.SaveZone(context.Background(), models.Zone{Name: "Home", Radius: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindZones_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"name", "description", "latitude", "longitude", "radius"}).
		AddRow("Home", "flat", 50.088, 14.4208, 100.0).
		AddRow("Work", "", 50.1, 14.45, 150.0)
	mock.ExpectQuery(`SELECT name, description, latitude, longitude, radius FROM zones`).
		WillReturnRows(rows)

	zones, err := NewStore(db, database.DriverSQLite).FindZones(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 2 || zones[1].Name != "Work" || zones[1].Radius != 150 {
		t.Errorf("unexpected zones: %+v", zones)
	}
}

func TestFindZones_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT (.+) FROM zones`).WillReturnError(sqlmock.ErrCancelled)

	if _, err := NewStore(db, database.DriverSQLite).FindZones(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestDeleteZone_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`DELETE FROM zones WHERE name = (.+)`).
		WithArgs("Nowhere").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewStore(db, database.DriverSQLite).DeleteZone(context.Background(), "Nowhere")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSegment_UndefinedZone(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO segments`).
		WithArgs("seg-1", nil, nil, nil, nil, nil, t0.UnixNano(), t0.Add(time.Hour).UnixNano()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = NewStore(db, database.DriverSQLite).SaveSegment(context.Background(), models.Segment{
		ID: "seg-1", Entered: t0, Exited: t0.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestFindSegments_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"id", "zone_name", "zone_description", "zone_latitude", "zone_longitude", "zone_radius", "entered", "exited"}).
		AddRow("seg-1", "Home", "flat", 50.088, 14.4208, 100.0, t0.UnixNano(), t0.Add(time.Hour).UnixNano()).
		AddRow("seg-2", nil, nil, nil, nil, nil, t0.Add(time.Hour).UnixNano(), t0.Add(2*time.Hour).UnixNano())
	mock.ExpectQuery(`SELECT (.+) FROM segments ORDER BY entered, id`).WillReturnRows(rows)

	segments, err := NewStore(db, database.DriverSQLite).FindSegments(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0].Zone == nil || segments[0].Zone.Name != "Home" {
		t.Errorf("expected Home snapshot, got %+v", segments[0].Zone)
	}
	if segments[1].Zone != nil {
		t.Errorf("expected undefined zone, got %+v", segments[1].Zone)
	}
	if !segments[0].Entered.Equal(t0) || !segments[1].Exited.Equal(t0.Add(2*time.Hour)) {
		t.Errorf("unexpected timestamps: %+v", segments)
	}
}

func TestLoadState_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT payload FROM tracker_state WHERE id = (.+)`).
		WithArgs("tracker").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	state, err := NewStore(db, database.DriverSQLite).LoadState(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != nil {
		t.Errorf("expected nil state, got %+v", state)
	}
}

func TestLoadState_Corrupt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT payload FROM tracker_state`).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow("{not json"))

	if _, err := NewStore(db, database.DriverSQLite).LoadState(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSaveState_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`INSERT INTO tracker_state`).
		WithArgs("tracker", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(driver.ErrBadConn)

	err = NewStore(db, database.DriverSQLite).SaveState(context.Background(), models.TrackerState{SpeedKmh: 3})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestRoundTripSQLite(t *testing.T) {
	db, err := database.Open(database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	if err := database.NewMigrationManager(db, database.DriverSQLite).RunMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	store := NewStore(db, database.DriverSQLite)

	home := models.Zone{Name: "Home", Description: "flat", Latitude: 50.088, Longitude: 14.4208, Radius: 100}
	if err := store.SaveZone(ctx, home); err != nil {
		t.Fatalf("save zone: %v", err)
	}
	home.Radius = 120
	if err := store.SaveZone(ctx, home); err != nil {
		t.Fatalf("upsert zone: %v", err)
	}
	zones, err := store.FindZones(ctx)
	if err != nil || len(zones) != 1 || zones[0].Radius != 120 {
		t.Fatalf("unexpected zones: %+v, %v", zones, err)
	}

	segs := []models.Segment{
		{ID: "b", Entered: t0.Add(time.Hour), Exited: t0.Add(2 * time.Hour)},
		{ID: "a", Zone: &home, Entered: t0, Exited: t0.Add(time.Hour)},
	}
	for _, s := range segs {
		if err := store.SaveSegment(ctx, s); err != nil {
			t.Fatalf("save segment: %v", err)
		}
	}
	got, err := store.FindSegments(ctx)
	if err != nil || len(got) != 2 {
		t.Fatalf("unexpected segments: %+v, %v", got, err)
	}
	if got[0].ID != "a" || got[0].Zone == nil || got[0].Zone.Radius != 120 || got[1].Zone != nil {
		t.Errorf("unexpected segment contents: %+v", got)
	}

	if err := store.DeleteZone(ctx, "Home"); err != nil {
		t.Fatalf("delete zone: %v", err)
	}
	got, _ = store.FindSegments(ctx)
	if got[0].Zone == nil || got[0].Zone.Name != "Home" {
		t.Error("segment snapshot must survive zone deletion")
	}

	if err := store.DeleteSegment(ctx, "a"); err != nil {
		t.Fatalf("delete segment: %v", err)
	}
	if err := store.DeleteSegment(ctx, "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	state := models.TrackerState{
		LastCoordinate: &models.Coordinate{Latitude: 1, Longitude: 2},
		LastSampleTime: t0,
		Current:        &models.Segment{ID: "c", Zone: &home, Entered: t0, Exited: t0, Open: true},
		SpeedKmh:       12.5,
	}
	if err := store.SaveState(ctx, state); err != nil {
		t.Fatalf("save state: %v", err)
	}
	state.SpeedKmh = 3
	if err := store.SaveState(ctx, state); err != nil {
		t.Fatalf("overwrite state: %v", err)
	}
	loaded, err := store.LoadState(ctx)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if loaded.SpeedKmh != 3 || loaded.Current == nil || loaded.Current.Zone.Name != "Home" || !loaded.LastSampleTime.Equal(t0) {
		t.Errorf("unexpected state: %+v", loaded)
	}
}
