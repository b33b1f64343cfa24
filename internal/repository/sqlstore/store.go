// Package sqlstore implements repository.Store on database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/dwell-backend-go/internal/database"
	"github.com/jengzang/dwell-backend-go/internal/models"
	"github.com/jengzang/dwell-backend-go/internal/repository"
)

var _ repository.Store = (*Store)(nil)

const stateKey = "tracker"

// Store handles database operations for zones, segments and tracker state
type Store struct {
	db     *sql.DB
	driver string
}

// NewStore creates a new SQL store. driver selects the placeholder syntax.
func NewStore(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

func (s *Store) q(query string) string {
	return database.Rebind(s.driver, query)
}

// SaveZone inserts or replaces a zone
func (s *Store) SaveZone(ctx context.Context, zone models.Zone) error {
	query := `INSERT INTO zones (name, description, latitude, longitude, radius, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			description = excluded.description,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			radius = excluded.radius`

	_, err := s.db.ExecContext(ctx, s.q(query),
		zone.Name, zone.Description, zone.Latitude, zone.Longitude, zone.Radius, time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save zone: %w", err)
	}
	return nil
}

// FindZones retrieves all zones in creation order
func (s *Store) FindZones(ctx context.Context) ([]models.Zone, error) {
	query := `SELECT name, description, latitude, longitude, radius
		FROM zones ORDER BY created_at, name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query zones: %w", err)
	}
	defer rows.Close()

	var zones []models.Zone
	for rows.Next() {
		var z models.Zone
		if err := rows.Scan(&z.Name, &z.Description, &z.Latitude, &z.Longitude, &z.Radius); err != nil {
			return nil, fmt.Errorf("failed to scan zone: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate zones: %w", err)
	}

	return zones, nil
}

// DeleteZone removes a zone by name
func (s *Store) DeleteZone(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM zones WHERE name = ?`), name)
	if err != nil {
		return fmt.Errorf("failed to delete zone: %w", err)
	}
	return expectAffected(res)
}

// SaveSegment inserts or replaces a closed segment with its zone snapshot
func (s *Store) SaveSegment(ctx context.Context, seg models.Segment) error {
	query := `INSERT INTO segments (id, zone_name, zone_description, zone_latitude, zone_longitude, zone_radius, entered, exited)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			zone_name = excluded.zone_name,
			zone_description = excluded.zone_description,
			zone_latitude = excluded.zone_latitude,
			zone_longitude = excluded.zone_longitude,
			zone_radius = excluded.zone_radius,
			entered = excluded.entered,
			exited = excluded.exited`

	var (
		name, description sql.NullString
		lat, lon, radius  sql.NullFloat64
	)
	if z := seg.Zone; z != nil {
		name = sql.NullString{String: z.Name, Valid: true}
		description = sql.NullString{String: z.Description, Valid: true}
		lat = sql.NullFloat64{Float64: z.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: z.Longitude, Valid: true}
		radius = sql.NullFloat64{Float64: z.Radius, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, s.q(query),
		seg.ID, name, description, lat, lon, radius, seg.Entered.UnixNano(), seg.Exited.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save segment: %w", err)
	}
	return nil
}

// FindSegments retrieves all stored segments, oldest first
func (s *Store) FindSegments(ctx context.Context) ([]models.Segment, error) {
	query := `SELECT id, zone_name, zone_description, zone_latitude, zone_longitude, zone_radius, entered, exited
		FROM segments ORDER BY entered, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []models.Segment
	for rows.Next() {
		var (
			seg               models.Segment
			name, description sql.NullString
			lat, lon, radius  sql.NullFloat64
			entered, exited   int64
		)
		if err := rows.Scan(&seg.ID, &name, &description, &lat, &lon, &radius, &entered, &exited); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		if name.Valid {
			seg.Zone = &models.Zone{
				Name:        name.String,
				Description: description.String,
				Latitude:    lat.Float64,
				Longitude:   lon.Float64,
				Radius:      radius.Float64,
			}
		}
		seg.Entered = time.Unix(0, entered).UTC()
		seg.Exited = time.Unix(0, exited).UTC()
		segments = append(segments, seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate segments: %w", err)
	}

	return segments, nil
}

// DeleteSegment removes a segment by ID
func (s *Store) DeleteSegment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM segments WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete segment: %w", err)
	}
	return expectAffected(res)
}

// SaveState stores the tracker state as a single JSON row
func (s *Store) SaveState(ctx context.Context, state models.TrackerState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode tracker state: %w", err)
	}

	query := `INSERT INTO tracker_state (id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, s.q(query), stateKey, string(payload), time.Now().UnixNano()); err != nil {
		return fmt.Errorf("failed to save tracker state: %w", err)
	}
	return nil
}

// LoadState returns the saved tracker state, or nil if none exists
func (s *Store) LoadState(ctx context.Context) (*models.TrackerState, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT payload FROM tracker_state WHERE id = ?`), stateKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tracker state: %w", err)
	}

	var state models.TrackerState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("failed to decode tracker state: %w", err)
	}
	return &state, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
