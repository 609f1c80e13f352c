package seed

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"doctor-booking-api/internal/model"
)

//go:embed migrations/001_doctors.sql
var doctorsSchema string

// DB is the subset of *pgxpool.Pool the directory loader needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Migrate creates the doctors table if it is missing.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, doctorsSchema); err != nil {
		return fmt.Errorf("seed: migrate doctors: %w", err)
	}
	return nil
}

// LoadDoctors reads the directory once, in position order. The table is
// only ever read; session state never reaches the database.
func LoadDoctors(ctx context.Context, db DB) ([]model.Doctor, error) {
	rows, err := db.Query(ctx,
		`SELECT id, name, specialty, image, rating, experience, location, available_slots, price
		 FROM doctors
		 ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("seed: query doctors: %w", err)
	}
	defer rows.Close()

	var out []model.Doctor
	for rows.Next() {
		var d model.Doctor
		if err := rows.Scan(
			&d.ID, &d.Name, &d.Specialty, &d.Image, &d.Rating,
			&d.Experience, &d.Location, &d.AvailableSlots, &d.Price,
		); err != nil {
			return nil, fmt.Errorf("seed: scan doctor: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("seed: read doctors: %w", err)
	}
	return out, nil
}

// FromPostgres replaces the embedded directory with the database one and keeps
// the embedded sample appointments. An empty table is filled with the
// embedded directory first.
func FromPostgres(ctx context.Context, db DB, base Dataset) (Dataset, error) {
	doctors, err := LoadDoctors(ctx, db)
	if err != nil {
		return Dataset{}, err
	}
	if len(doctors) == 0 {
		if len(base.Doctors) == 0 {
			return Dataset{}, fmt.Errorf("%w: doctors table is empty", ErrInvalidDataset)
		}
		if err := InsertDoctors(ctx, db, base.Doctors); err != nil {
			return Dataset{}, err
		}
		doctors = base.Doctors
	}
	ds := Dataset{Doctors: doctors, Appointments: base.Appointments}
	return ds, ds.Validate()
}

// InsertDoctors writes doctors in list order. Existing ids are left alone.
func InsertDoctors(ctx context.Context, db DB, doctors []model.Doctor) error {
	for i, d := range doctors {
		_, err := db.Exec(ctx,
			`INSERT INTO doctors (id, position, name, specialty, image, rating, experience, location, available_slots, price)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			 ON CONFLICT (id) DO NOTHING`,
			d.ID, i, d.Name, d.Specialty, d.Image, d.Rating, d.Experience, d.Location, d.AvailableSlots, d.Price,
		)
		if err != nil {
			return fmt.Errorf("seed: insert doctor %s: %w", d.ID, err)
		}
	}
	return nil
}
