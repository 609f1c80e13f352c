// Package client is a typed Go client for BookingService.
package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"doctor-booking-api/internal/booking"
	"doctor-booking-api/internal/handler"
	"doctor-booking-api/internal/model"
	"doctor-booking-api/internal/wire"
)

type Client struct {
	conn *grpc.ClientConn

	mu    sync.RWMutex
	token string
}

// Dial connects to addr (e.g. "localhost:50051") over plaintext. Extra
// options are applied after the defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(wire.Codec{})),
	}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("client dial: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken reuses a session opened earlier, e.g. by another process.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

func (c *Client) outgoing(ctx context.Context) context.Context {
	if tok := c.Token(); tok != "" {
		return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+tok)
	}
	return ctx
}

func (c *Client) invoke(ctx context.Context, method string, req, resp wire.Message) error {
	return c.conn.Invoke(c.outgoing(ctx), "/"+handler.ServiceName+"/"+method, req, resp)
}

// OpenSession starts a fresh session and keeps its token for later calls.
func (c *Client) OpenSession(ctx context.Context) (wire.Session, error) {
	var s wire.Session
	if err := c.invoke(ctx, "OpenSession", &wire.Empty{}, &s); err != nil {
		return wire.Session{}, err
	}
	c.SetToken(s.Token)
	return s, nil
}

func (c *Client) CloseSession(ctx context.Context) error {
	if err := c.invoke(ctx, "CloseSession", &wire.Empty{}, &wire.Empty{}); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) ListDoctors(ctx context.Context) ([]model.Doctor, error) {
	var out wire.DoctorList
	err := c.invoke(ctx, "ListDoctors", &wire.Empty{}, &out)
	return out.Doctors, err
}

// SearchDoctors matches query against name, specialty and location, then
// keeps only specialty when it is not empty.
func (c *Client) SearchDoctors(ctx context.Context, query, specialty string) ([]model.Doctor, error) {
	var out wire.DoctorList
	err := c.invoke(ctx, "SearchDoctors", &wire.SearchDoctorsRequest{Query: query, Specialty: specialty}, &out)
	return out.Doctors, err
}

func (c *Client) GetDoctor(ctx context.Context, id string) (model.Doctor, error) {
	var out wire.DoctorReply
	err := c.invoke(ctx, "GetDoctor", &wire.IDRequest{ID: id}, &out)
	return out.Doctor, err
}

func (c *Client) ListSpecialties(ctx context.Context) ([]string, error) {
	var out wire.StringList
	err := c.invoke(ctx, "ListSpecialties", &wire.Empty{}, &out)
	return out.Values, err
}

// ListAppointments filters by status; "" or "all" returns every appointment.
func (c *Client) ListAppointments(ctx context.Context, status string) ([]model.Appointment, error) {
	var out wire.AppointmentList
	err := c.invoke(ctx, "ListAppointments", &wire.ListAppointmentsRequest{Status: status}, &out)
	return out.Appointments, err
}

func (c *Client) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	var out wire.AppointmentReply
	err := c.invoke(ctx, "GetAppointment", &wire.IDRequest{ID: id}, &out)
	return out.Appointment, err
}

func (c *Client) AddAppointment(ctx context.Context, d model.AppointmentDraft) (model.Appointment, error) {
	var out wire.AppointmentReply
	err := c.invoke(ctx, "AddAppointment", &wire.AddAppointmentRequest{Draft: d}, &out)
	return out.Appointment, err
}

func (c *Client) UpdateAppointment(ctx context.Context, id string, p model.AppointmentPatch) error {
	return c.invoke(ctx, "UpdateAppointment", &wire.UpdateAppointmentRequest{ID: id, Patch: p}, &wire.Empty{})
}

func (c *Client) DeleteAppointment(ctx context.Context, id string) error {
	return c.invoke(ctx, "DeleteAppointment", &wire.IDRequest{ID: id}, &wire.Empty{})
}

func (c *Client) Book(ctx context.Context, r booking.Request) (model.Appointment, error) {
	var out wire.AppointmentReply
	req := &wire.BookRequest{DoctorID: r.DoctorID, Date: r.Date, Time: r.Time, Type: r.Type, Notes: r.Notes}
	err := c.invoke(ctx, "BookAppointment", req, &out)
	return out.Appointment, err
}

func (c *Client) AvailableDates(ctx context.Context, days int) ([]booking.Date, error) {
	var out wire.AvailableDateList
	err := c.invoke(ctx, "AvailableDates", &wire.AvailableDatesRequest{Days: int32(days)}, &out)
	return out.Dates, err
}

func (c *Client) Stats(ctx context.Context) (model.Counts, error) {
	var out wire.Stats
	err := c.invoke(ctx, "GetStats", &wire.Empty{}, &out)
	return out.Counts, err
}

// Watcher receives appointment change events.
type Watcher struct {
	stream grpc.ClientStream
}

// Watch subscribes to the session's appointment changes. Cancel ctx to stop.
func (c *Client) Watch(ctx context.Context) (*Watcher, error) {
	desc := &handler.ServiceDesc.Streams[0]
	stream, err := c.conn.NewStream(c.outgoing(ctx), desc, "/"+handler.ServiceName+"/"+desc.StreamName)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&wire.Empty{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &Watcher{stream: stream}, nil
}

// Recv blocks for the next event. It returns io.EOF once the server ends
// the stream.
func (w *Watcher) Recv() (wire.ChangeEvent, error) {
	var ev wire.ChangeEvent
	err := w.stream.RecvMsg(&ev)
	return ev, err
}
