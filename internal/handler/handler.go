package handler

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"doctor-booking-api/internal/booking"
	"doctor-booking-api/internal/logger"
	"doctor-booking-api/internal/metrics"
	"doctor-booking-api/internal/model"
	"doctor-booking-api/internal/session"
	"doctor-booking-api/internal/store"
)

type Option func(*Handler)

func WithLogger(l *logger.Logger) Option { return func(h *Handler) { h.log = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(h *Handler) { h.metrics = m } }

// WithClock sets the clock AvailableDates counts from.
func WithClock(now func() time.Time) Option { return func(h *Handler) { h.now = now } }

type Handler struct {
	sessions *session.Manager
	log      *logger.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	now      func() time.Time
}

func New(sessions *session.Manager, opts ...Option) *Handler {
	h := &Handler{
		sessions: sessions,
		log:      logger.Discard(),
		tracer:   otel.Tracer("doctor-booking-api/handler"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// storeFor returns the store of the session the interceptor resolved.
func (h *Handler) storeFor(ctx context.Context) (*store.Store, string, error) {
	id, ok := session.FromContext(ctx)
	if !ok {
		return nil, "", status.Error(codes.Unauthenticated, "no session")
	}
	st, err := h.sessions.Store(id)
	if err != nil {
		return nil, "", h.toStatus(err)
	}
	return st, id, nil
}

func (h *Handler) start(ctx context.Context, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if id, ok := session.FromContext(ctx); ok {
		attrs = append(attrs, attribute.String("session.id", id))
	}
	return h.tracer.Start(ctx, ServiceName+"/"+method, trace.WithAttributes(attrs...))
}

// end closes the span and converts err for the wire.
func (h *Handler) end(span trace.Span, err error) error {
	defer span.End()
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	if _, ok := status.FromError(err); ok {
		return err
	}
	return h.toStatus(err)
}

func (h *Handler) toStatus(err error) error {
	var ve *booking.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.As(err, &ve):
		return status.Error(codes.InvalidArgument, ve.Error())
	case errors.Is(err, model.ErrInvalidStatus):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, store.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, "status change not allowed")
	case errors.Is(err, store.ErrNotInitialized):
		return status.Error(codes.FailedPrecondition, "session store is closed")
	case errors.Is(err, session.ErrInvalidToken), errors.Is(err, session.ErrUnknownSession):
		return status.Error(codes.Unauthenticated, "invalid session")
	}
	h.log.WithError(err).Error("unhandled error")
	return status.Error(codes.Internal, "internal error")
}
