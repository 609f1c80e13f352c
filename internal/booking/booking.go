// Package booking holds the rules the booking screen applied before handing
// a new appointment to the store.
package booking

import (
	"errors"
	"fmt"
	"strings"

	"doctor-booking-api/internal/model"
	"doctor-booking-api/internal/store"
)

// DefaultType is preselected when the caller picks no appointment type.
const DefaultType = "Konsultim"

// SuggestedTypes are offered as choices; any other text is accepted.
var SuggestedTypes = []string{"Konsultim", "Ekzaminim", "Kontroll pasues", "Parandalim"}

// ValidationError rejects a booking before it reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("booking: %s: %s", e.Field, e.Reason)
}

// Directory is the part of the store a booking needs.
type Directory interface {
	GetDoctor(id string) (model.Doctor, error)
	AddAppointment(d model.AppointmentDraft) (model.Appointment, error)
}

type Request struct {
	DoctorID string
	Date     string
	Time     string
	Type     string
	Notes    string
}

// Book validates r, copies the doctor's name and specialty onto the draft and
// stores it as an upcoming appointment.
func Book(dir Directory, r Request) (model.Appointment, error) {
	date := strings.TrimSpace(r.Date)
	tm := strings.TrimSpace(r.Time)
	if date == "" {
		return model.Appointment{}, &ValidationError{Field: "date", Reason: "required"}
	}
	if tm == "" {
		return model.Appointment{}, &ValidationError{Field: "time", Reason: "required"}
	}

	doc, err := dir.GetDoctor(r.DoctorID)
	if errors.Is(err, store.ErrNotFound) {
		return model.Appointment{}, &ValidationError{Field: "doctor_id", Reason: "unknown doctor"}
	}
	if err != nil {
		return model.Appointment{}, err
	}
	if !doc.OffersSlot(tm) {
		return model.Appointment{}, &ValidationError{Field: "time", Reason: "not offered by " + doc.Name}
	}

	typ := strings.TrimSpace(r.Type)
	if typ == "" {
		typ = DefaultType
	}
	d := model.AppointmentDraft{
		DoctorID:   doc.ID,
		DoctorName: doc.Name,
		Specialty:  doc.Specialty,
		Date:       date,
		Time:       tm,
		Type:       typ,
		Status:     model.StatusUpcoming,
	}
	n := strings.TrimSpace(r.Notes)
	if n == "" {
		n = "Takim me " + doc.Name
	}
	d.Notes = &n
	return dir.AddAppointment(d)
}
