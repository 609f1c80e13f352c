package model

import (
	"errors"
	"fmt"
	"slices"
)

var ErrInvalidStatus = errors.New("invalid appointment status")

type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusUpcoming, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool {
	switch s {
	case StatusUpcoming, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

type Doctor struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Specialty      string   `json:"specialty"`
	Image          string   `json:"image"`
	Rating         float64  `json:"rating"`
	Experience     string   `json:"experience"`
	Location       string   `json:"location"`
	AvailableSlots []string `json:"availableSlots"`
	Price          string   `json:"price"`
}

// Clone returns a copy that shares no memory with d.
func (d Doctor) Clone() Doctor {
	d.AvailableSlots = slices.Clone(d.AvailableSlots)
	return d
}

// OffersSlot reports whether t is one of the doctor's bookable times.
func (d Doctor) OffersSlot(t string) bool {
	return slices.Contains(d.AvailableSlots, t)
}

// Appointment carries copies of the doctor's name and specialty taken at
// booking time; they are never re-synced with the directory.
type Appointment struct {
	ID         string  `json:"id"`
	DoctorID   string  `json:"doctorId"`
	DoctorName string  `json:"doctorName"`
	Specialty  string  `json:"specialty"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Type       string  `json:"type"`
	Status     Status  `json:"status"`
	Notes      *string `json:"notes,omitempty"`
}

func (a Appointment) Clone() Appointment {
	if a.Notes != nil {
		n := *a.Notes
		a.Notes = &n
	}
	return a
}

// Draft strips the id.
func (a Appointment) Draft() AppointmentDraft {
	c := a.Clone()
	return AppointmentDraft{
		DoctorID:   c.DoctorID,
		DoctorName: c.DoctorName,
		Specialty:  c.Specialty,
		Date:       c.Date,
		Time:       c.Time,
		Type:       c.Type,
		Status:     c.Status,
		Notes:      c.Notes,
	}
}

// AppointmentDraft is an appointment before the store assigns its id.
type AppointmentDraft struct {
	DoctorID   string
	DoctorName string
	Specialty  string
	Date       string
	Time       string
	Type       string
	Status     Status
	Notes      *string
}

func (d AppointmentDraft) Validate() error {
	if !d.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, d.Status)
	}
	return nil
}

// WithID builds the stored appointment.
func (d AppointmentDraft) WithID(id string) Appointment {
	return Appointment{
		ID:         id,
		DoctorID:   d.DoctorID,
		DoctorName: d.DoctorName,
		Specialty:  d.Specialty,
		Date:       d.Date,
		Time:       d.Time,
		Type:       d.Type,
		Status:     d.Status,
		Notes:      d.Notes,
	}.Clone()
}

// AppointmentPatch is a partial update. A nil field is left untouched.
// Setting Notes to "" clears the notes.
type AppointmentPatch struct {
	DoctorID   *string
	DoctorName *string
	Specialty  *string
	Date       *string
	Time       *string
	Type       *string
	Status     *Status
	Notes      *string
}

func (p AppointmentPatch) Empty() bool {
	return p == AppointmentPatch{}
}

func (p AppointmentPatch) Validate() error {
	if p.Status != nil && !p.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *p.Status)
	}
	return nil
}

// Apply returns a with every set field of p merged in.
func (p AppointmentPatch) Apply(a Appointment) Appointment {
	a = a.Clone()
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&a.DoctorID, p.DoctorID)
	set(&a.DoctorName, p.DoctorName)
	set(&a.Specialty, p.Specialty)
	set(&a.Date, p.Date)
	set(&a.Time, p.Time)
	set(&a.Type, p.Type)
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Notes != nil {
		if *p.Notes == "" {
			a.Notes = nil
		} else {
			n := *p.Notes
			a.Notes = &n
		}
	}
	return a
}
