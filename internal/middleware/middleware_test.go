package middleware

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"doctor-booking-api/internal/logger"
	"doctor-booking-api/internal/metrics"
	"doctor-booking-api/internal/session"
)

type fakeResolver map[string]string

func (f fakeResolver) Resolve(raw string) (string, error) {
	if id, ok := f[raw]; ok {
		return id, nil
	}
	return "", session.ErrInvalidToken
}

const listDoctors = "/doctorbooking.v1.BookingService/ListDoctors"

func withToken(tok string) context.Context {
	md := metadata.New(map[string]string{"authorization": "Bearer " + tok})
	return metadata.NewIncomingContext(context.Background(), md)
}

func sessionOf(ctx context.Context, _ any) (any, error) {
	id, _ := session.FromContext(ctx)
	return id, nil
}

func TestSessionInterceptor(t *testing.T) {
	icpt := Session(fakeResolver{"good": "s-1"})

	tests := []struct {
		name   string
		ctx    context.Context
		method string
		want   any
		code   codes.Code
	}{
		{"valid token", withToken("good"), listDoctors, "s-1", codes.OK},
		{"forged token", withToken("forged"), listDoctors, nil, codes.Unauthenticated},
		{"no metadata", context.Background(), listDoctors, nil, codes.Unauthenticated},
		{"no token", metadata.NewIncomingContext(context.Background(), metadata.MD{}), listDoctors, nil, codes.Unauthenticated},
		{"open method", context.Background(), "/doctorbooking.v1.BookingService/OpenSession", "", codes.OK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := icpt(tt.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tt.method}, sessionOf)
			assert.Equal(t, tt.code, status.Code(err))
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestSessionStreamInterceptor(t *testing.T) {
	icpt := SessionStream(fakeResolver{"good": "s-1"})
	info := &grpc.StreamServerInfo{FullMethod: "/doctorbooking.v1.BookingService/WatchAppointments"}

	var seen string
	err := icpt(nil, &fakeStream{ctx: withToken("good")}, info, func(_ any, ss grpc.ServerStream) error {
		seen, _ = session.FromContext(ss.Context())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "s-1", seen)

	err = icpt(nil, &fakeStream{ctx: withToken("bad")}, info, func(any, grpc.ServerStream) error {
		t.Fatal("handler must not run")
		return nil
	})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func fromPeer(addr string) context.Context {
	tcp, _ := net.ResolveTCPAddr("tcp", addr)
	return peer.NewContext(context.Background(), &peer.Peer{Addr: tcp})
}

func pass(context.Context, any) (any, error) { return "ok", nil }

func TestRateLimitOpenSession(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	icpt := RateLimit(rl)
	openInfo := &grpc.UnaryServerInfo{FullMethod: "/doctorbooking.v1.BookingService/OpenSession"}

	for i := 0; i < 2; i++ {
		_, err := icpt(fromPeer("10.0.0.1:5000"), nil, openInfo, pass)
		require.NoError(t, err)
	}

	// same host, new port shares the bucket
	_, err := icpt(fromPeer("10.0.0.1:5001"), nil, openInfo, pass)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	_, err = icpt(fromPeer("10.0.0.2:5000"), nil, openInfo, pass)
	assert.NoError(t, err)

	// other methods are not limited
	_, err = icpt(fromPeer("10.0.0.1:5000"), nil, &grpc.UnaryServerInfo{FullMethod: listDoctors}, pass)
	assert.NoError(t, err)
}

func forwarded(ctx context.Context, client string) context.Context {
	return metadata.NewIncomingContext(ctx, metadata.Pairs("x-forwarded-for", client))
}

func TestRateLimitForwardedClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	icpt := RateLimit(rl)
	openInfo := &grpc.UnaryServerInfo{FullMethod: "/doctorbooking.v1.BookingService/OpenSession"}

	// the bridge connects over loopback; each browser gets its own bucket
	_, err := icpt(forwarded(fromPeer("127.0.0.1:6000"), "203.0.113.1"), nil, openInfo, pass)
	require.NoError(t, err)
	_, err = icpt(forwarded(fromPeer("127.0.0.1:6000"), "198.51.100.7, 10.0.0.9"), nil, openInfo, pass)
	require.NoError(t, err)
	_, err = icpt(forwarded(fromPeer("127.0.0.1:6001"), "203.0.113.1"), nil, openInfo, pass)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))

	// remote peers cannot pick their own key
	_, err = icpt(forwarded(fromPeer("10.0.0.5:5000"), "192.0.2.44"), nil, openInfo, pass)
	require.NoError(t, err)
	_, err = icpt(forwarded(fromPeer("10.0.0.5:5000"), "192.0.2.45"), nil, openInfo, pass)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestPeerAddr(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"no peer", context.Background(), "unknown"},
		{"tcp", fromPeer("10.0.0.1:5000"), "10.0.0.1"},
		{"loopback without header", fromPeer("127.0.0.1:5000"), "127.0.0.1"},
		{"loopback forwarded", forwarded(fromPeer("127.0.0.1:5000"), "203.0.113.1"), "203.0.113.1"},
		{"ipv6 loopback forwarded", forwarded(fromPeer("[::1]:5000"), "2001:db8::1"), "2001:db8::1"},
		{"remote forwarded", forwarded(fromPeer("10.0.0.1:5000"), "203.0.113.1"), "10.0.0.1"},
		{"unix socket", forwarded(peer.NewContext(context.Background(), &peer.Peer{Addr: &net.UnixAddr{Name: "/tmp/booking.sock", Net: "unix"}}), "203.0.113.9"), "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, peerAddr(tt.ctx))
		})
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.get("10.0.0.1")
	rl.get("10.0.0.2")

	rl.cleanup(time.Now())
	assert.Len(t, rl.clients, 2)

	rl.cleanup(time.Now().Add(staleAfter + time.Second))
	assert.Empty(t, rl.clients)
}

func TestRateLimiterRunStops(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := logger.Discard()
	log.SetLevel(logrus.WarnLevel)
	hook := test.NewLocal(log.Logger)

	icpt := Observe(m, log)
	info := &grpc.UnaryServerInfo{FullMethod: listDoctors}

	_, err := icpt(context.Background(), nil, info, pass)
	require.NoError(t, err)
	assert.Empty(t, hook.AllEntries())

	_, err = icpt(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "not found")
	})
	assert.Equal(t, codes.NotFound, status.Code(err))
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "ListDoctors", hook.LastEntry().Data["method"])

	_, err = icpt(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, errors.New("boom")
	})
	assert.Equal(t, codes.Unknown, status.Code(err))

	n, err := testutil.GatherAndCount(reg, "doctorbooking_rpc_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "one series per status code")
}
