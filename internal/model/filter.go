package model

// FilterAll selects every appointment in FilterByStatus.
const FilterAll = "all"

// FilterByStatus keeps appointments whose status equals filter. An empty
// filter or FilterAll returns everything.
func FilterByStatus(appts []Appointment, filter string) []Appointment {
	out := make([]Appointment, 0, len(appts))
	for _, a := range appts {
		if filter == "" || filter == FilterAll || string(a.Status) == filter {
			out = append(out, a)
		}
	}
	return out
}

// FilterBySpecialty is the exact-match chip filter of the directory screen.
func FilterBySpecialty(doctors []Doctor, specialty string) []Doctor {
	if specialty == "" {
		return doctors
	}
	out := make([]Doctor, 0, len(doctors))
	for _, d := range doctors {
		if d.Specialty == specialty {
			out = append(out, d)
		}
	}
	return out
}

// Specialties returns the distinct specialties in first-seen order.
func Specialties(doctors []Doctor) []string {
	seen := make(map[string]bool, len(doctors))
	var out []string
	for _, d := range doctors {
		if seen[d.Specialty] {
			continue
		}
		seen[d.Specialty] = true
		out = append(out, d.Specialty)
	}
	return out
}

type Counts struct {
	Total     int
	Upcoming  int
	Completed int
	Cancelled int
}

func CountByStatus(appts []Appointment) Counts {
	c := Counts{Total: len(appts)}
	for _, a := range appts {
		switch a.Status {
		case StatusUpcoming:
			c.Upcoming++
		case StatusCompleted:
			c.Completed++
		case StatusCancelled:
			c.Cancelled++
		}
	}
	return c
}
