// Package seed holds the fixed initial dataset every session store starts from.
package seed

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"doctor-booking-api/internal/model"
)

//go:embed data/*.json
var dataFS embed.FS

var ErrInvalidDataset = errors.New("invalid seed dataset")

// Dataset is an opaque initial state: the doctor directory plus sample
// appointments.
type Dataset struct {
	Doctors      []model.Doctor
	Appointments []model.Appointment
}

// Embedded returns the dataset compiled into the binary.
func Embedded() (Dataset, error) {
	var ds Dataset
	if err := decode("data/doctors.json", &ds.Doctors); err != nil {
		return Dataset{}, err
	}
	if err := decode("data/appointments.json", &ds.Appointments); err != nil {
		return Dataset{}, err
	}
	return ds, ds.Validate()
}

func decode(name string, v any) error {
	b, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("seed: read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("seed: decode %s: %w", name, err)
	}
	return nil
}

// Validate checks the invariants the store relies on but does not enforce
// itself: unique ids in both collections and statuses from the enum.
func (ds Dataset) Validate() error {
	seen := make(map[string]bool, len(ds.Doctors))
	for i, d := range ds.Doctors {
		if d.ID == "" {
			return fmt.Errorf("%w: doctor #%d has no id", ErrInvalidDataset, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("%w: duplicate doctor id %q", ErrInvalidDataset, d.ID)
		}
		if d.Rating < 0 || d.Rating > 5 {
			return fmt.Errorf("%w: doctor %q rating %.1f out of range", ErrInvalidDataset, d.ID, d.Rating)
		}
		seen[d.ID] = true
	}

	clear(seen)
	for i, a := range ds.Appointments {
		if a.ID == "" {
			return fmt.Errorf("%w: appointment #%d has no id", ErrInvalidDataset, i)
		}
		if seen[a.ID] {
			return fmt.Errorf("%w: duplicate appointment id %q", ErrInvalidDataset, a.ID)
		}
		if !a.Status.Valid() {
			return fmt.Errorf("%w: appointment %q: %w", ErrInvalidDataset, a.ID, model.ErrInvalidStatus)
		}
		seen[a.ID] = true
	}
	return nil
}

// WithoutAppointments drops the sample bookings and keeps the directory.
func (ds Dataset) WithoutAppointments() Dataset {
	return Dataset{Doctors: ds.Doctors}
}
