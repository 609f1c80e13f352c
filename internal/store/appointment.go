package store

import (
	"slices"

	"doctor-booking-api/internal/model"
)

// ListAppointments returns every appointment in booking order.
func (s *Store) ListAppointments() ([]model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := make([]model.Appointment, len(s.appointments))
	for i, a := range s.appointments {
		out[i] = a.Clone()
	}
	return out, nil
}

func (s *Store) GetAppointment(id string) (model.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return model.Appointment{}, err
	}
	i := s.indexOf(id)
	if i < 0 {
		return model.Appointment{}, ErrNotFound
	}
	return s.appointments[i].Clone(), nil
}

// AddAppointment appends the draft under a fresh id. Only the status is
// checked: doctor, date and time are taken as given, and the same slot may be
// booked twice.
func (s *Store) AddAppointment(d model.AppointmentDraft) (model.Appointment, error) {
	if err := d.Validate(); err != nil {
		return model.Appointment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return model.Appointment{}, err
	}

	id := s.newID()
	for id == "" || s.indexOf(id) >= 0 {
		id = s.newID()
	}
	a := d.WithID(id)
	s.appointments = append(s.appointments, a)
	s.publish(Change{Kind: ChangeAdded, AppointmentID: id})
	return a.Clone(), nil
}

// DeleteAppointment removes the appointment if present. Unknown ids are a
// no-op, so deleting twice is the same as deleting once.
func (s *Store) DeleteAppointment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.appointments = slices.Delete(s.appointments, i, i+1)
	s.publish(Change{Kind: ChangeDeleted, AppointmentID: id})
	return nil
}

// UpdateAppointment merges the set fields of p into the appointment. Unknown
// ids are a no-op. The transition policy is only asked when p sets a status.
func (s *Store) UpdateAppointment(id string, p model.AppointmentPatch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	i := s.indexOf(id)
	if i < 0 || p.Empty() {
		return nil
	}
	cur := s.appointments[i]
	if p.Status != nil && !s.allowed(cur.Status, *p.Status) {
		return ErrInvalidTransition
	}
	s.appointments[i] = p.Apply(cur)
	s.publish(Change{Kind: ChangeUpdated, AppointmentID: id})
	return nil
}

// caller holds mu
func (s *Store) indexOf(id string) int {
	return slices.IndexFunc(s.appointments, func(a model.Appointment) bool { return a.ID == id })
}
