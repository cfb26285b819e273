package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
)

// Field is one named column value of a ride insert payload. The ride
// service builds an ordered field list per schema variant and the
// repository renders it into a single INSERT statement verbatim, so
// the column set sent to the store is exactly what the variant
// produced — nothing is added, reordered or dropped here.
type Field struct {
	Name  string
	Value any
}

// RideRepo provides data access to the rides table. Reads assume the
// current canonical layout; the write path goes through InsertRide,
// which takes the column set from the caller because the layout of
// rides differs between deployments.
type RideRepo struct {
	db *sql.DB
}

// NewRideRepo returns a new RideRepo bound to the given database.
func NewRideRepo(db *sql.DB) *RideRepo { return &RideRepo{db: db} }

// InsertRide issues a single INSERT with exactly the given fields and
// returns the created row's id. Each call is one atomic statement: it
// either commits a full row and yields an id, or commits nothing and
// returns the store's error untouched so the caller can classify it.
func (r *RideRepo) InsertRide(ctx context.Context, fields []Field) (uint64, error) {
	cols := make([]string, len(fields))
	marks := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
		marks[i] = "?"
		args[i] = f.Value
	}
	query := "INSERT INTO rides (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// RideRow mirrors the current canonical layout of the rides table. It
// is the read-side shape returned to handlers; timestamps are
// formatted by the query in UTC.
type RideRow struct {
	ID            uint64   `json:"id"`
	DriverID      string   `json:"driver_id"`
	Departure     string   `json:"departure"`
	Destination   string   `json:"destination"`
	DepartureTime string   `json:"departure_time"`
	Price         float64  `json:"price"`
	SeatsTotal    int      `json:"seats_total"`
	Description   *string  `json:"description,omitempty"`
	Options       []string `json:"options"`
	VehicleModel  *string  `json:"vehicle_model,omitempty"`
}

const rideSelectColumns = `
			id,
			driver_id,
			departure,
			destination,
			DATE_FORMAT(departure_time, '%Y-%m-%dT%TZ') AS departure_time,
			price,
			seats_total,
			description,
			COALESCE(options, '[]') AS options,
			vehicle_model`

// GetByID returns a single ride. When no row matches, ErrRideNotFound
// is returned.
func (r *RideRepo) GetByID(ctx context.Context, rideID uint64) (*RideRow, error) {
	query := `SELECT` + rideSelectColumns + `
		FROM rides
		WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, rideID)
	ride, err := scanRide(row)
	if err == sql.ErrNoRows {
		return nil, ErrRideNotFound
	}
	return ride, err
}

// ListByDriver returns all rides offered by the given driver, most
// recent departure first.
func (r *RideRepo) ListByDriver(ctx context.Context, driverID string) ([]RideRow, error) {
	query := `SELECT` + rideSelectColumns + `
		FROM rides
		WHERE driver_id = ?
		ORDER BY departure_time DESC`
	rows, err := r.db.QueryContext(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RideRow{}
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ride)
	}
	return out, rows.Err()
}

// RideSearchQuery defines filters & pagination for searching rides.
type RideSearchQuery struct {
	Departure   string
	Destination string
	Date        string // YYYY-MM-DD; empty means any upcoming ride
	Page        int
	PageSize    int
}

// SearchUpcoming returns upcoming rides matching the query plus the
// total number of matches for pagination.
func (r *RideRepo) SearchUpcoming(ctx context.Context, q RideSearchQuery) ([]RideRow, int64, error) {
	where := []string{"departure_time >= UTC_TIMESTAMP()"}
	args := []any{}

	if q.Departure != "" {
		where = append(where, "LOWER(departure) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Departure)+"%")
	}
	if q.Destination != "" {
		where = append(where, "LOWER(destination) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Destination)+"%")
	}
	if q.Date != "" {
		where = append(where, "DATE(departure_time) = ?")
		args = append(args, q.Date)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countSQL := `SELECT COUNT(*) FROM rides WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT` + rideSelectColumns + `
		FROM rides
		WHERE ` + cond + `
		ORDER BY departure_time ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]RideRow, 0, limit)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *ride)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRide(s scanner) (*RideRow, error) {
	var ride RideRow
	var description, vehicleModel sql.NullString
	var optionsJSON []byte
	if err := s.Scan(
		&ride.ID,
		&ride.DriverID,
		&ride.Departure,
		&ride.Destination,
		&ride.DepartureTime,
		&ride.Price,
		&ride.SeatsTotal,
		&description,
		&optionsJSON,
		&vehicleModel,
	); err != nil {
		return nil, err
	}
	if description.Valid {
		d := description.String
		ride.Description = &d
	}
	if vehicleModel.Valid {
		v := vehicleModel.String
		ride.VehicleModel = &v
	}
	ride.Options = []string{}
	if len(optionsJSON) > 0 {
		if err := json.Unmarshal(optionsJSON, &ride.Options); err != nil {
			ride.Options = []string{}
		}
	}
	return &ride, nil
}
