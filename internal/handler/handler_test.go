package handler_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"reflect"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"doctor-booking-api/internal/booking"
	"doctor-booking-api/internal/client"
	"doctor-booking-api/internal/handler"
	"doctor-booking-api/internal/logger"
	"doctor-booking-api/internal/middleware"
	"doctor-booking-api/internal/model"
	"doctor-booking-api/internal/seed"
	"doctor-booking-api/internal/session"
)

var today = time.Date(2025, 1, 18, 10, 0, 0, 0, time.UTC)

type env struct {
	sessions *session.Manager
	dial     func() *client.Client
}

func setup(t *testing.T) *env {
	t.Helper()
	data, err := seed.Embedded()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	log := logger.Discard()
	sessions := session.NewManager(session.Config{Secret: "handler-test", Seed: data, Logger: log})
	t.Cleanup(sessions.Shutdown)

	h := handler.New(sessions, handler.WithLogger(log), handler.WithClock(func() time.Time { return today }))
	srv := handler.NewServer(h, sessions, middleware.NewRateLimiter(100, 100), nil, log)

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
	return &env{
		sessions: sessions,
		dial: func() *client.Client {
			c, err := client.Dial("passthrough:///bufnet", dialer)
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			t.Cleanup(func() { c.Close() })
			return c
		},
	}
}

// openClient returns a client holding a fresh session.
func openClient(t *testing.T, e *env) *client.Client {
	t.Helper()
	c := e.dial()
	if _, err := c.OpenSession(context.Background()); err != nil {
		t.Fatalf("open session: %v", err)
	}
	return c
}

func wantCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if got := status.Code(err); got != want {
		t.Fatalf("expected %v, got %v (%v)", want, got, err)
	}
}

// ----- sessions -----

func TestOpenSession(t *testing.T) {
	e := setup(t)
	c := e.dial()

	s, err := c.OpenSession(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Token == "" || s.SessionID == "" {
		t.Fatal("empty session handle")
	}
	if !s.ExpiresAt.After(time.Now()) {
		t.Errorf("expiry in the past: %v", s.ExpiresAt)
	}
	if e.sessions.Len() != 1 {
		t.Errorf("expected 1 live session, got %d", e.sessions.Len())
	}
}

func TestNoSession(t *testing.T) {
	e := setup(t)
	c := e.dial()

	_, err := c.ListDoctors(context.Background())
	wantCode(t, err, codes.Unauthenticated)

	c.SetToken("forged.token.value")
	_, err = c.ListAppointments(context.Background(), "")
	wantCode(t, err, codes.Unauthenticated)
}

func TestCloseSession(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	tok := c.Token()

	if err := c.CloseSession(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	c.SetToken(tok)
	_, err := c.ListDoctors(context.Background())
	wantCode(t, err, codes.Unauthenticated)
}

func TestSessionIsolation(t *testing.T) {
	e := setup(t)
	a := openClient(t, e)
	b := openClient(t, e)
	ctx := context.Background()

	if _, err := a.Book(ctx, booking.Request{DoctorID: "1", Date: "20. Jan 2025", Time: "08:00"}); err != nil {
		t.Fatalf("book: %v", err)
	}

	la, _ := a.ListAppointments(ctx, "")
	lb, _ := b.ListAppointments(ctx, "")
	if len(la) != 3 || len(lb) != 2 {
		t.Errorf("expected 3 and 2 appointments, got %d and %d", len(la), len(lb))
	}
}

// ----- doctors -----

func TestDoctors(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	ctx := context.Background()

	docs, err := c.ListDoctors(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(docs) != 13 {
		t.Fatalf("expected 13 doctors, got %d", len(docs))
	}
	if docs[0].ID != "1" || len(docs[0].AvailableSlots) == 0 || docs[0].Rating == 0 {
		t.Errorf("first doctor lost fields: %+v", docs[0])
	}

	d, err := c.GetDoctor(ctx, "3")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Specialty != "Kardiologji" {
		t.Errorf("unexpected specialty %q", d.Specialty)
	}

	_, err = c.GetDoctor(ctx, "999")
	wantCode(t, err, codes.NotFound)
	_, err = c.GetDoctor(ctx, "")
	wantCode(t, err, codes.NotFound)
}

func TestSearchDoctors(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	ctx := context.Background()

	all, _ := c.ListDoctors(ctx)
	blank, err := c.SearchDoctors(ctx, "   ", "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(blank) != len(all) {
		t.Errorf("blank query should return all, got %d", len(blank))
	}

	nebih, _ := c.SearchDoctors(ctx, "NEBIH", "")
	if len(nebih) == 0 || nebih[0].ID != "1" {
		t.Errorf("expected Dr. Nebih Meha first, got %+v", nebih)
	}

	general, _ := c.SearchDoctors(ctx, "", "Mjekësi e Përgjithshme")
	for _, d := range general {
		if d.Specialty != "Mjekësi e Përgjithshme" {
			t.Errorf("specialty filter let %q through", d.Specialty)
		}
	}
	if len(general) == 0 || len(general) == len(all) {
		t.Errorf("specialty filter did not narrow: %d", len(general))
	}

	specs, err := c.ListSpecialties(ctx)
	if err != nil {
		t.Fatalf("specialties: %v", err)
	}
	if len(specs) != len(model.Specialties(all)) || specs[0] != "Mjekësi e Përgjithshme" {
		t.Errorf("unexpected specialties %v", specs)
	}
}

// ----- appointments -----

func TestBookAppointment(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	ctx := context.Background()

	a, err := c.Book(ctx, booking.Request{DoctorID: "2", Date: "20. Jan 2025", Time: "09:00", Notes: "  "})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if a.ID == "" || a.DoctorName != "Dr. Arben Krasniqi" || a.Type != booking.DefaultType {
		t.Errorf("unexpected booking %+v", a)
	}
	if a.Status != model.StatusUpcoming || a.Notes == nil || *a.Notes != "Takim me Dr. Arben Krasniqi" {
		t.Errorf("expected upcoming with default notes, got %s %v", a.Status, a.Notes)
	}

	got, err := c.GetAppointment(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, a) {
		t.Errorf("stored %+v, returned %+v", got, a)
	}
}

func TestBookValidation(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)

	tests := []struct {
		name string
		req  booking.Request
	}{
		{"empty date", booking.Request{DoctorID: "1", Time: "08:00"}},
		{"empty time", booking.Request{DoctorID: "1", Date: "20. Jan 2025"}},
		{"unknown doctor", booking.Request{DoctorID: "404", Date: "20. Jan 2025", Time: "08:00"}},
		{"slot not offered", booking.Request{DoctorID: "1", Date: "20. Jan 2025", Time: "23:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Book(context.Background(), tt.req)
			wantCode(t, err, codes.InvalidArgument)
		})
	}
}

func TestAppointmentLifecycle(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	ctx := context.Background()

	notes := "first visit"
	a, err := c.AddAppointment(ctx, model.AppointmentDraft{
		DoctorID: "5", DoctorName: "Dr. Bahri Specialty", Date: "21. Jan 2025", Time: "10:00",
		Type: "Ekzaminim", Status: model.StatusUpcoming, Notes: &notes,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	done := model.StatusCompleted
	if err := c.UpdateAppointment(ctx, a.ID, model.AppointmentPatch{Status: &done}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := c.GetAppointment(ctx, a.ID)
	if got.Status != model.StatusCompleted || got.Date != a.Date || got.Notes == nil || *got.Notes != notes {
		t.Errorf("partial update touched other fields: %+v", got)
	}

	completed, _ := c.ListAppointments(ctx, "completed")
	if len(completed) != 1 || completed[0].ID != a.ID {
		t.Errorf("status filter: %+v", completed)
	}

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats != (model.Counts{Total: 3, Upcoming: 2, Completed: 1}) {
		t.Errorf("unexpected stats %+v", stats)
	}

	if err := c.DeleteAppointment(ctx, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := c.DeleteAppointment(ctx, a.ID); err != nil {
		t.Errorf("second delete should be a no-op: %v", err)
	}
	_, err = c.GetAppointment(ctx, a.ID)
	wantCode(t, err, codes.NotFound)

	// unknown and empty ids are no-ops too
	if err := c.UpdateAppointment(ctx, "missing", model.AppointmentPatch{Status: &done}); err != nil {
		t.Errorf("update of unknown id: %v", err)
	}
	if err := c.UpdateAppointment(ctx, "", model.AppointmentPatch{Status: &done}); err != nil {
		t.Errorf("update of empty id: %v", err)
	}
	if err := c.DeleteAppointment(ctx, ""); err != nil {
		t.Errorf("delete of empty id: %v", err)
	}
	_, err = c.GetAppointment(ctx, "")
	wantCode(t, err, codes.NotFound)
	if all, _ := c.ListAppointments(ctx, model.FilterAll); len(all) != 2 {
		t.Errorf("empty-id calls changed the list: %d", len(all))
	}
}

func TestInvalidStatus(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	ctx := context.Background()

	_, err := c.ListAppointments(ctx, "pending")
	wantCode(t, err, codes.InvalidArgument)

	_, err = c.AddAppointment(ctx, model.AppointmentDraft{DoctorID: "1", Status: "pending"})
	wantCode(t, err, codes.InvalidArgument)

	bad := model.Status("archived")
	err = c.UpdateAppointment(ctx, "1", model.AppointmentPatch{Status: &bad})
	wantCode(t, err, codes.InvalidArgument)

	all, _ := c.ListAppointments(ctx, model.FilterAll)
	if len(all) != 2 {
		t.Errorf("rejected writes changed the list: %d", len(all))
	}
}

func TestAvailableDates(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)

	dates, err := c.AvailableDates(context.Background(), 0)
	if err != nil {
		t.Fatalf("dates: %v", err)
	}
	if len(dates) != booking.DefaultDateWindow {
		t.Fatalf("expected %d dates, got %d", booking.DefaultDateWindow, len(dates))
	}
	if dates[0].Value != "19. Jan 2025" || dates[0].Display != "So, 19. Jan" {
		t.Errorf("unexpected first date %+v", dates[0])
	}

	_, err = c.AvailableDates(context.Background(), -1)
	wantCode(t, err, codes.InvalidArgument)
}

// ----- watch -----

func TestWatchAppointments(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w, err := c.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// the subscription is registered once the handler runs; retry the write
	// until the first event arrives
	events := make(chan error, 1)
	var first string
	go func() {
		ev, err := w.Recv()
		first = ev.Kind
		events <- err
	}()
	var booked model.Appointment
	received := false
	for i := 0; i < 50 && !received; i++ {
		a, err := c.Book(ctx, booking.Request{DoctorID: "1", Date: "20. Jan 2025", Time: "08:00"})
		if err != nil {
			t.Fatalf("book: %v", err)
		}
		booked = a
		select {
		case err := <-events:
			if err != nil {
				t.Fatalf("recv: %v", err)
			}
			if first != "added" {
				t.Errorf("expected added event, got %q", first)
			}
			received = true
		case <-time.After(50 * time.Millisecond):
		}
	}
	if !received {
		t.Fatal("no event received")
	}

	if err := c.DeleteAppointment(ctx, booked.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	for {
		ev, err := w.Recv()
		if err != nil {
			t.Fatalf("recv: %v", err)
		}
		if ev.Kind == "deleted" {
			if ev.AppointmentID != booked.ID {
				t.Errorf("deleted event for %q, want %q", ev.AppointmentID, booked.ID)
			}
			break
		}
	}

	// closing the session ends the stream
	if err := c.CloseSession(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	for {
		_, err := w.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("expected clean end of stream, got %v", err)
		}
	}
}

// ----- concurrency -----

func TestConcurrentBooking(t *testing.T) {
	e := setup(t)
	c := openClient(t, e)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := c.Book(ctx, booking.Request{
				DoctorID: "1",
				Date:     fmt.Sprintf("%d. Feb 2025", i+1),
				Time:     "08:00",
			})
			if err != nil {
				t.Errorf("book %d: %v", i, err)
				return
			}
			ids <- a.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %s", id)
		}
		seen[id] = true
	}
	all, _ := c.ListAppointments(ctx, "")
	if len(all) != 2+n {
		t.Errorf("expected %d appointments, got %d", 2+n, len(all))
	}
}
