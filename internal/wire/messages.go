package wire

import (
	"time"

	"google.golang.org/protobuf/encoding/protowire"
	"google.golang.org/protobuf/types/known/timestamppb"

	"doctor-booking-api/internal/booking"
	"doctor-booking-api/internal/model"
)

type Empty struct{}

func (*Empty) MarshalWire() []byte { return nil }

func (*Empty) UnmarshalWire(b []byte) error {
	return walk(b, func(field) error { return nil })
}

type IDRequest struct {
	ID string
}

func (m *IDRequest) MarshalWire() []byte { return appendString(nil, 1, m.ID) }

func (m *IDRequest) UnmarshalWire(b []byte) error {
	*m = IDRequest{}
	return walk(b, func(f field) error {
		if f.is(1, protowire.BytesType) {
			m.ID = f.str()
		}
		return nil
	})
}

type Session struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
}

func (m *Session) MarshalWire() []byte {
	b := appendString(nil, 1, m.Token)
	b = appendString(b, 2, m.SessionID)
	if !m.ExpiresAt.IsZero() {
		b = appendTimestamp(b, 3, timestamppb.New(m.ExpiresAt))
	}
	return b
}

func (m *Session) UnmarshalWire(b []byte) error {
	*m = Session{}
	return walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.BytesType):
			m.Token = f.str()
		case f.is(2, protowire.BytesType):
			m.SessionID = f.str()
		case f.is(3, protowire.BytesType):
			ts, err := parseTimestamp(f.raw)
			if err != nil {
				return err
			}
			m.ExpiresAt = ts.AsTime()
		}
		return nil
	})
}

// SearchDoctorsRequest runs the free-text search, then narrows by the exact
// specialty when one is given.
type SearchDoctorsRequest struct {
	Query     string
	Specialty string
}

func (m *SearchDoctorsRequest) MarshalWire() []byte {
	b := appendString(nil, 1, m.Query)
	return appendString(b, 2, m.Specialty)
}

func (m *SearchDoctorsRequest) UnmarshalWire(b []byte) error {
	*m = SearchDoctorsRequest{}
	return walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.BytesType):
			m.Query = f.str()
		case f.is(2, protowire.BytesType):
			m.Specialty = f.str()
		}
		return nil
	})
}

type DoctorList struct {
	Doctors []model.Doctor
}

func (m *DoctorList) MarshalWire() []byte {
	var b []byte
	for _, d := range m.Doctors {
		b = appendMessage(b, 1, appendDoctor(nil, d))
	}
	return b
}

func (m *DoctorList) UnmarshalWire(b []byte) error {
	*m = DoctorList{}
	return walk(b, func(f field) error {
		if !f.is(1, protowire.BytesType) {
			return nil
		}
		d, err := parseDoctor(f.raw)
		if err != nil {
			return err
		}
		m.Doctors = append(m.Doctors, d)
		return nil
	})
}

type DoctorReply struct {
	Doctor model.Doctor
}

func (m *DoctorReply) MarshalWire() []byte {
	return appendMessage(nil, 1, appendDoctor(nil, m.Doctor))
}

func (m *DoctorReply) UnmarshalWire(b []byte) error {
	*m = DoctorReply{}
	return walk(b, func(f field) (err error) {
		if f.is(1, protowire.BytesType) {
			m.Doctor, err = parseDoctor(f.raw)
		}
		return err
	})
}

type StringList struct {
	Values []string
}

func (m *StringList) MarshalWire() []byte {
	var b []byte
	for _, v := range m.Values {
		b = protowire.AppendTag(b, 1, protowire.BytesType)
		b = protowire.AppendString(b, v)
	}
	return b
}

func (m *StringList) UnmarshalWire(b []byte) error {
	*m = StringList{}
	return walk(b, func(f field) error {
		if f.is(1, protowire.BytesType) {
			m.Values = append(m.Values, f.str())
		}
		return nil
	})
}

// ListAppointmentsRequest filters by status; "" and "all" return everything.
type ListAppointmentsRequest struct {
	Status string
}

func (m *ListAppointmentsRequest) MarshalWire() []byte { return appendString(nil, 1, m.Status) }

func (m *ListAppointmentsRequest) UnmarshalWire(b []byte) error {
	*m = ListAppointmentsRequest{}
	return walk(b, func(f field) error {
		if f.is(1, protowire.BytesType) {
			m.Status = f.str()
		}
		return nil
	})
}

type AppointmentList struct {
	Appointments []model.Appointment
}

func (m *AppointmentList) MarshalWire() []byte {
	var b []byte
	for _, a := range m.Appointments {
		b = appendMessage(b, 1, appendAppointment(nil, a))
	}
	return b
}

func (m *AppointmentList) UnmarshalWire(b []byte) error {
	*m = AppointmentList{}
	return walk(b, func(f field) error {
		if !f.is(1, protowire.BytesType) {
			return nil
		}
		a, err := parseAppointment(f.raw)
		if err != nil {
			return err
		}
		m.Appointments = append(m.Appointments, a)
		return nil
	})
}

type AppointmentReply struct {
	Appointment model.Appointment
}

func (m *AppointmentReply) MarshalWire() []byte {
	return appendMessage(nil, 1, appendAppointment(nil, m.Appointment))
}

func (m *AppointmentReply) UnmarshalWire(b []byte) error {
	*m = AppointmentReply{}
	return walk(b, func(f field) (err error) {
		if f.is(1, protowire.BytesType) {
			m.Appointment, err = parseAppointment(f.raw)
		}
		return err
	})
}

// AddAppointmentRequest carries a draft with the same field numbers as
// Appointment; field 1 (id) is never sent.
type AddAppointmentRequest struct {
	Draft model.AppointmentDraft
}

func (m *AddAppointmentRequest) MarshalWire() []byte {
	return appendAppointment(nil, m.Draft.WithID(""))
}

func (m *AddAppointmentRequest) UnmarshalWire(b []byte) error {
	a, err := parseAppointment(b)
	if err != nil {
		return err
	}
	m.Draft = a.Draft()
	return nil
}

// UpdateAppointmentRequest tracks presence on every patch field: a field is
// on the wire exactly when the patch sets it.
type UpdateAppointmentRequest struct {
	ID    string
	Patch model.AppointmentPatch
}

func (m *UpdateAppointmentRequest) MarshalWire() []byte {
	p := m.Patch
	b := appendString(nil, 1, m.ID)
	b = appendOptional(b, 2, p.DoctorID)
	b = appendOptional(b, 3, p.DoctorName)
	b = appendOptional(b, 4, p.Specialty)
	b = appendOptional(b, 5, p.Date)
	b = appendOptional(b, 6, p.Time)
	b = appendOptional(b, 7, p.Type)
	if p.Status != nil {
		s := string(*p.Status)
		b = appendOptional(b, 8, &s)
	}
	return appendOptional(b, 9, p.Notes)
}

func (m *UpdateAppointmentRequest) UnmarshalWire(b []byte) error {
	*m = UpdateAppointmentRequest{}
	p := &m.Patch
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		v := f.str()
		switch f.num {
		case 1:
			m.ID = v
		case 2:
			p.DoctorID = &v
		case 3:
			p.DoctorName = &v
		case 4:
			p.Specialty = &v
		case 5:
			p.Date = &v
		case 6:
			p.Time = &v
		case 7:
			p.Type = &v
		case 8:
			s := model.Status(v)
			p.Status = &s
		case 9:
			p.Notes = &v
		}
		return nil
	})
}

type BookRequest struct {
	DoctorID string
	Date     string
	Time     string
	Type     string
	Notes    string
}

func (m *BookRequest) MarshalWire() []byte {
	b := appendString(nil, 1, m.DoctorID)
	b = appendString(b, 2, m.Date)
	b = appendString(b, 3, m.Time)
	b = appendString(b, 4, m.Type)
	return appendString(b, 5, m.Notes)
}

func (m *BookRequest) UnmarshalWire(b []byte) error {
	*m = BookRequest{}
	return walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			m.DoctorID = f.str()
		case 2:
			m.Date = f.str()
		case 3:
			m.Time = f.str()
		case 4:
			m.Type = f.str()
		case 5:
			m.Notes = f.str()
		}
		return nil
	})
}

// Request converts to the booking flow's input.
func (m *BookRequest) Request() booking.Request {
	return booking.Request{DoctorID: m.DoctorID, Date: m.Date, Time: m.Time, Type: m.Type, Notes: m.Notes}
}

type AvailableDatesRequest struct {
	Days int32
}

func (m *AvailableDatesRequest) MarshalWire() []byte {
	return appendVarint(nil, 1, uint64(int64(m.Days)))
}

func (m *AvailableDatesRequest) UnmarshalWire(b []byte) error {
	*m = AvailableDatesRequest{}
	return walk(b, func(f field) error {
		if f.is(1, protowire.VarintType) {
			m.Days = int32(f.u)
		}
		return nil
	})
}

type AvailableDateList struct {
	Dates []booking.Date
}

func (m *AvailableDateList) MarshalWire() []byte {
	var b []byte
	for _, d := range m.Dates {
		b = appendMessage(b, 1, appendDate(nil, d))
	}
	return b
}

func (m *AvailableDateList) UnmarshalWire(b []byte) error {
	*m = AvailableDateList{}
	return walk(b, func(f field) error {
		if !f.is(1, protowire.BytesType) {
			return nil
		}
		d, err := parseDate(f.raw)
		if err != nil {
			return err
		}
		m.Dates = append(m.Dates, d)
		return nil
	})
}

type Stats struct {
	Counts model.Counts
}

func (m *Stats) MarshalWire() []byte {
	c := m.Counts
	b := appendVarint(nil, 1, uint64(c.Total))
	b = appendVarint(b, 2, uint64(c.Upcoming))
	b = appendVarint(b, 3, uint64(c.Completed))
	return appendVarint(b, 4, uint64(c.Cancelled))
}

func (m *Stats) UnmarshalWire(b []byte) error {
	*m = Stats{}
	c := &m.Counts
	return walk(b, func(f field) error {
		if f.typ != protowire.VarintType {
			return nil
		}
		switch f.num {
		case 1:
			c.Total = int(f.u)
		case 2:
			c.Upcoming = int(f.u)
		case 3:
			c.Completed = int(f.u)
		case 4:
			c.Cancelled = int(f.u)
		}
		return nil
	})
}

// ChangeEvent is one WatchAppointments message. Kind is "added", "updated"
// or "deleted".
type ChangeEvent struct {
	Kind          string
	AppointmentID string
}

func (m *ChangeEvent) MarshalWire() []byte {
	b := appendString(nil, 1, m.Kind)
	return appendString(b, 2, m.AppointmentID)
}

func (m *ChangeEvent) UnmarshalWire(b []byte) error {
	*m = ChangeEvent{}
	return walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.BytesType):
			m.Kind = f.str()
		case f.is(2, protowire.BytesType):
			m.AppointmentID = f.str()
		}
		return nil
	})
}
