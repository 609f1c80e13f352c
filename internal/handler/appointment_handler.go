package handler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"doctor-booking-api/internal/booking"
	"doctor-booking-api/internal/model"
	"doctor-booking-api/internal/wire"
)

func (h *Handler) ListAppointments(ctx context.Context, req *wire.ListAppointmentsRequest) (*wire.AppointmentList, error) {
	ctx, span := h.start(ctx, "ListAppointments", attribute.String("filter.status", req.Status))

	if req.Status != "" && req.Status != model.FilterAll {
		if _, err := model.ParseStatus(req.Status); err != nil {
			return nil, h.end(span, err)
		}
	}
	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	appts, err := st.ListAppointments()
	if err != nil {
		return nil, h.end(span, err)
	}
	return &wire.AppointmentList{Appointments: model.FilterByStatus(appts, req.Status)}, h.end(span, nil)
}

func (h *Handler) GetAppointment(ctx context.Context, req *wire.IDRequest) (*wire.AppointmentReply, error) {
	ctx, span := h.start(ctx, "GetAppointment", attribute.String("appointment.id", req.ID))

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	a, err := st.GetAppointment(req.ID)
	if err != nil {
		return nil, h.end(span, err)
	}
	return &wire.AppointmentReply{Appointment: a}, h.end(span, nil)
}

// AddAppointment stores the draft as given. Only the status is validated;
// use BookAppointment for the checked flow.
func (h *Handler) AddAppointment(ctx context.Context, req *wire.AddAppointmentRequest) (*wire.AppointmentReply, error) {
	ctx, span := h.start(ctx, "AddAppointment", attribute.String("doctor.id", req.Draft.DoctorID))

	st, sid, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	a, err := st.AddAppointment(req.Draft)
	if err != nil {
		return nil, h.end(span, err)
	}
	h.metrics.AppointmentBooked()
	h.log.WithSession(sid).WithField("appointment_id", a.ID).Debug("appointment added")
	span.SetAttributes(attribute.String("appointment.id", a.ID))
	return &wire.AppointmentReply{Appointment: a}, h.end(span, nil)
}

func (h *Handler) UpdateAppointment(ctx context.Context, req *wire.UpdateAppointmentRequest) (*wire.Empty, error) {
	ctx, span := h.start(ctx, "UpdateAppointment", attribute.String("appointment.id", req.ID))

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	if err := st.UpdateAppointment(req.ID, req.Patch); err != nil {
		return nil, h.end(span, err)
	}
	return &wire.Empty{}, h.end(span, nil)
}

// DeleteAppointment succeeds for unknown ids.
func (h *Handler) DeleteAppointment(ctx context.Context, req *wire.IDRequest) (*wire.Empty, error) {
	ctx, span := h.start(ctx, "DeleteAppointment", attribute.String("appointment.id", req.ID))

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	if err := st.DeleteAppointment(req.ID); err != nil {
		return nil, h.end(span, err)
	}
	return &wire.Empty{}, h.end(span, nil)
}

func (h *Handler) BookAppointment(ctx context.Context, req *wire.BookRequest) (*wire.AppointmentReply, error) {
	ctx, span := h.start(ctx, "BookAppointment",
		attribute.String("doctor.id", req.DoctorID),
		attribute.String("booking.date", req.Date),
		attribute.String("booking.time", req.Time))

	st, sid, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	a, err := booking.Book(st, req.Request())
	if err != nil {
		return nil, h.end(span, err)
	}
	h.metrics.AppointmentBooked()
	h.log.WithSession(sid).WithField("appointment_id", a.ID).Info("appointment booked")
	span.SetAttributes(attribute.String("appointment.id", a.ID))
	return &wire.AppointmentReply{Appointment: a}, h.end(span, nil)
}

func (h *Handler) AvailableDates(ctx context.Context, req *wire.AvailableDatesRequest) (*wire.AvailableDateList, error) {
	_, span := h.start(ctx, "AvailableDates", attribute.Int("dates.days", int(req.Days)))

	if req.Days < 0 {
		return nil, h.end(span, status.Error(codes.InvalidArgument, "days must not be negative"))
	}
	return &wire.AvailableDateList{Dates: booking.AvailableDates(h.now(), int(req.Days))}, h.end(span, nil)
}

func (h *Handler) GetStats(ctx context.Context, _ *wire.Empty) (*wire.Stats, error) {
	ctx, span := h.start(ctx, "GetStats")

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	appts, err := st.ListAppointments()
	if err != nil {
		return nil, h.end(span, err)
	}
	return &wire.Stats{Counts: model.CountByStatus(appts)}, h.end(span, nil)
}

// WatchAppointments streams one event per appointment change until the
// client goes away or the session ends.
func (h *Handler) WatchAppointments(_ *wire.Empty, stream ChangeStream) error {
	ctx := stream.Context()
	st, sid, err := h.storeFor(ctx)
	if err != nil {
		return err
	}
	changes, cancel := st.Subscribe()
	defer cancel()

	log := h.log.WithSession(sid)
	log.Debug("watch started")
	defer log.Debug("watch ended")

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-changes:
			if !ok {
				return nil
			}
			ev := &wire.ChangeEvent{Kind: string(c.Kind), AppointmentID: c.AppointmentID}
			if err := stream.Send(ev); err != nil {
				return err
			}
		}
	}
}
