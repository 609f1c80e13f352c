package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"doctor-booking-api/internal/session"
)

// open methods need no session
var open = map[string]bool{
	"/doctorbooking.v1.BookingService/OpenSession": true,
}

// Resolver turns a bearer token into a live session id.
type Resolver interface {
	Resolve(raw string) (string, error)
}

func Session(r Resolver) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if open[info.FullMethod] {
			return next(ctx, req)
		}
		ctx, err := resolve(ctx, r)
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func SessionStream(r Resolver) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, next grpc.StreamHandler) error {
		ctx, err := resolve(ss.Context(), r)
		if err != nil {
			return err
		}
		return next(srv, &sessionStream{ServerStream: ss, ctx: ctx})
	}
}

func resolve(ctx context.Context, r Resolver) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	// token from Authorization: Bearer <jwt>
	raw := ""
	if vals := md.Get("authorization"); len(vals) > 0 {
		raw = strings.TrimPrefix(vals[0], "Bearer ")
	}
	if raw == "" {
		return nil, status.Error(codes.Unauthenticated, "no session token")
	}

	id, err := r.Resolve(raw)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid session")
	}
	return session.NewContext(ctx, id), nil
}

type sessionStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *sessionStream) Context() context.Context { return s.ctx }
