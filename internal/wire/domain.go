package wire

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"doctor-booking-api/internal/booking"
	"doctor-booking-api/internal/model"
)

func appendDoctor(b []byte, d model.Doctor) []byte {
	b = appendString(b, 1, d.ID)
	b = appendString(b, 2, d.Name)
	b = appendString(b, 3, d.Specialty)
	b = appendString(b, 4, d.Image)
	b = appendDouble(b, 5, d.Rating)
	b = appendString(b, 6, d.Experience)
	b = appendString(b, 7, d.Location)
	for _, s := range d.AvailableSlots {
		b = protowire.AppendTag(b, 8, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return appendString(b, 9, d.Price)
}

func parseDoctor(b []byte) (model.Doctor, error) {
	var d model.Doctor
	err := walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.BytesType):
			d.ID = f.str()
		case f.is(2, protowire.BytesType):
			d.Name = f.str()
		case f.is(3, protowire.BytesType):
			d.Specialty = f.str()
		case f.is(4, protowire.BytesType):
			d.Image = f.str()
		case f.is(5, protowire.Fixed64Type):
			d.Rating = math.Float64frombits(f.u)
		case f.is(6, protowire.BytesType):
			d.Experience = f.str()
		case f.is(7, protowire.BytesType):
			d.Location = f.str()
		case f.is(8, protowire.BytesType):
			d.AvailableSlots = append(d.AvailableSlots, f.str())
		case f.is(9, protowire.BytesType):
			d.Price = f.str()
		}
		return nil
	})
	return d, err
}

func appendAppointment(b []byte, a model.Appointment) []byte {
	b = appendString(b, 1, a.ID)
	b = appendString(b, 2, a.DoctorID)
	b = appendString(b, 3, a.DoctorName)
	b = appendString(b, 4, a.Specialty)
	b = appendString(b, 5, a.Date)
	b = appendString(b, 6, a.Time)
	b = appendString(b, 7, a.Type)
	b = appendString(b, 8, string(a.Status))
	return appendOptional(b, 9, a.Notes)
}

func parseAppointment(b []byte) (model.Appointment, error) {
	var a model.Appointment
	err := walk(b, func(f field) error {
		if f.typ != protowire.BytesType {
			return nil
		}
		switch f.num {
		case 1:
			a.ID = f.str()
		case 2:
			a.DoctorID = f.str()
		case 3:
			a.DoctorName = f.str()
		case 4:
			a.Specialty = f.str()
		case 5:
			a.Date = f.str()
		case 6:
			a.Time = f.str()
		case 7:
			a.Type = f.str()
		case 8:
			a.Status = model.Status(f.str())
		case 9:
			n := f.str()
			a.Notes = &n
		}
		return nil
	})
	return a, err
}

func appendDate(b []byte, d booking.Date) []byte {
	b = appendString(b, 1, d.Display)
	return appendString(b, 2, d.Value)
}

func parseDate(b []byte) (booking.Date, error) {
	var d booking.Date
	err := walk(b, func(f field) error {
		switch {
		case f.is(1, protowire.BytesType):
			d.Display = f.str()
		case f.is(2, protowire.BytesType):
			d.Value = f.str()
		}
		return nil
	})
	return d, err
}
