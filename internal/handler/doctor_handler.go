package handler

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"doctor-booking-api/internal/model"
	"doctor-booking-api/internal/wire"
)

func (h *Handler) ListDoctors(ctx context.Context, _ *wire.Empty) (*wire.DoctorList, error) {
	ctx, span := h.start(ctx, "ListDoctors")

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	docs, err := st.ListDoctors()
	if err != nil {
		return nil, h.end(span, err)
	}
	return &wire.DoctorList{Doctors: docs}, h.end(span, nil)
}

// SearchDoctors applies the free-text query first and the specialty chip
// second, like the doctors screen.
func (h *Handler) SearchDoctors(ctx context.Context, req *wire.SearchDoctorsRequest) (*wire.DoctorList, error) {
	ctx, span := h.start(ctx, "SearchDoctors",
		attribute.String("search.query", req.Query),
		attribute.String("search.specialty", req.Specialty))

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	docs, err := st.SearchDoctors(req.Query)
	if err != nil {
		return nil, h.end(span, err)
	}
	docs = model.FilterBySpecialty(docs, req.Specialty)
	span.SetAttributes(attribute.Int("search.results", len(docs)))
	return &wire.DoctorList{Doctors: docs}, h.end(span, nil)
}

// GetDoctor reports NotFound for any id outside the directory, "" included.
func (h *Handler) GetDoctor(ctx context.Context, req *wire.IDRequest) (*wire.DoctorReply, error) {
	ctx, span := h.start(ctx, "GetDoctor", attribute.String("doctor.id", req.ID))

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	d, err := st.GetDoctor(req.ID)
	if err != nil {
		return nil, h.end(span, err)
	}
	return &wire.DoctorReply{Doctor: d}, h.end(span, nil)
}

func (h *Handler) ListSpecialties(ctx context.Context, _ *wire.Empty) (*wire.StringList, error) {
	ctx, span := h.start(ctx, "ListSpecialties")

	st, _, err := h.storeFor(ctx)
	if err != nil {
		return nil, h.end(span, err)
	}
	docs, err := st.ListDoctors()
	if err != nil {
		return nil, h.end(span, err)
	}
	return &wire.StringList{Values: model.Specialties(docs)}, h.end(span, nil)
}
