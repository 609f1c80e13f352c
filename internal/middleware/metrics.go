package middleware

import (
	"context"
	"path"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"doctor-booking-api/internal/logger"
	"doctor-booking-api/internal/metrics"
)

// Observe records count and latency of every unary call and logs failures.
// Chain it first; calls rejected by later interceptors are counted.
func Observe(m *metrics.Metrics, log *logger.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = logger.Discard()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		took := time.Since(start)

		method := path.Base(info.FullMethod)
		code := status.Code(err)
		m.ObserveRPC(method, code.String(), took)
		if err != nil {
			log.WithComponent("grpc").WithFields(logrus.Fields{
				"method":   method,
				"code":     code.String(),
				"duration": took.String(),
			}).Warn(status.Convert(err).Message())
		}
		return resp, err
	}
}
