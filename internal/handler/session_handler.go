package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"doctor-booking-api/internal/session"
	"doctor-booking-api/internal/wire"
)

func (h *Handler) OpenSession(ctx context.Context, _ *wire.Empty) (*wire.Session, error) {
	_, span := h.start(ctx, "OpenSession")

	tok, err := h.sessions.Open()
	if err != nil {
		h.log.WithError(err).Error("open session")
		return nil, h.end(span, status.Error(codes.Internal, "internal error"))
	}
	h.end(span, nil)
	return &wire.Session{Token: tok.Raw, SessionID: tok.SessionID, ExpiresAt: tok.ExpiresAt}, nil
}

// CloseSession drops the caller's store. The token stops working right away.
func (h *Handler) CloseSession(ctx context.Context, _ *wire.Empty) (*wire.Empty, error) {
	_, span := h.start(ctx, "CloseSession")

	id, ok := session.FromContext(ctx)
	if !ok {
		return nil, h.end(span, status.Error(codes.Unauthenticated, "no session"))
	}
	h.sessions.Close(id)
	return &wire.Empty{}, h.end(span, nil)
}
