package store

import (
	"strings"

	"doctor-booking-api/internal/model"
)

func (s *Store) ListDoctors() ([]model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	return cloneDoctors(s.doctors, nil), nil
}

// SearchDoctors matches query as one case-insensitive substring of name,
// specialty or location. A blank query returns the whole directory.
func (s *Store) SearchDoctors(query string) ([]model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return cloneDoctors(s.doctors, nil), nil
	}

	q := strings.ToLower(query)
	return cloneDoctors(s.doctors, func(d model.Doctor) bool {
		return strings.Contains(strings.ToLower(d.Name), q) ||
			strings.Contains(strings.ToLower(d.Specialty), q) ||
			strings.Contains(strings.ToLower(d.Location), q)
	}), nil
}

func (s *Store) GetDoctor(id string) (model.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(); err != nil {
		return model.Doctor{}, err
	}
	i, ok := s.doctorIdx[id]
	if !ok {
		return model.Doctor{}, ErrNotFound
	}
	return s.doctors[i].Clone(), nil
}

func cloneDoctors(in []model.Doctor, keep func(model.Doctor) bool) []model.Doctor {
	out := make([]model.Doctor, 0, len(in))
	for _, d := range in {
		if keep == nil || keep(d) {
			out = append(out, d.Clone())
		}
	}
	return out
}
