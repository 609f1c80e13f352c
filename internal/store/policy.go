package store

import "doctor-booking-api/internal/model"

// TransitionPolicy decides whether an update may move an appointment from one
// status to another.
type TransitionPolicy func(from, to model.Status) bool

// AnyTransition permits every change, including completed -> upcoming.
func AnyTransition(from, to model.Status) bool { return true }

// ForwardOnly lets an upcoming appointment end as completed or cancelled and
// freezes it afterwards. Re-setting the current status is always allowed.
func ForwardOnly(from, to model.Status) bool {
	if from == to {
		return true
	}
	return from == model.StatusUpcoming && (to == model.StatusCompleted || to == model.StatusCancelled)
}
