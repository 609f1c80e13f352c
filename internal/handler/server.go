package handler

import (
	"google.golang.org/grpc"

	"doctor-booking-api/internal/logger"
	"doctor-booking-api/internal/metrics"
	"doctor-booking-api/internal/middleware"
	"doctor-booking-api/internal/session"
	"doctor-booking-api/internal/wire"
)

// NewServer builds the gRPC server with the interceptor chain and registers
// h on it.
func NewServer(h *Handler, sessions *session.Manager, rl *middleware.RateLimiter, m *metrics.Metrics, log *logger.Logger) *grpc.Server {
	srv := grpc.NewServer(
		grpc.ForceServerCodec(wire.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.Observe(m, log),
			middleware.RateLimit(rl),
			middleware.Session(sessions),
		),
		grpc.ChainStreamInterceptor(
			middleware.SessionStream(sessions),
		),
	)
	Register(srv, h)
	return srv
}
