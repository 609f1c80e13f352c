package handler

import (
	"context"

	"google.golang.org/grpc"

	"doctor-booking-api/internal/wire"
)

const ServiceName = "doctorbooking.v1.BookingService"

// BookingServer is implemented by *Handler. Requests and replies are wire
// messages, so the server must run with wire.Codec.
type BookingServer interface {
	OpenSession(context.Context, *wire.Empty) (*wire.Session, error)
	CloseSession(context.Context, *wire.Empty) (*wire.Empty, error)

	ListDoctors(context.Context, *wire.Empty) (*wire.DoctorList, error)
	SearchDoctors(context.Context, *wire.SearchDoctorsRequest) (*wire.DoctorList, error)
	GetDoctor(context.Context, *wire.IDRequest) (*wire.DoctorReply, error)
	ListSpecialties(context.Context, *wire.Empty) (*wire.StringList, error)

	ListAppointments(context.Context, *wire.ListAppointmentsRequest) (*wire.AppointmentList, error)
	GetAppointment(context.Context, *wire.IDRequest) (*wire.AppointmentReply, error)
	AddAppointment(context.Context, *wire.AddAppointmentRequest) (*wire.AppointmentReply, error)
	UpdateAppointment(context.Context, *wire.UpdateAppointmentRequest) (*wire.Empty, error)
	DeleteAppointment(context.Context, *wire.IDRequest) (*wire.Empty, error)
	BookAppointment(context.Context, *wire.BookRequest) (*wire.AppointmentReply, error)
	AvailableDates(context.Context, *wire.AvailableDatesRequest) (*wire.AvailableDateList, error)
	GetStats(context.Context, *wire.Empty) (*wire.Stats, error)

	WatchAppointments(*wire.Empty, ChangeStream) error
}

type ChangeStream interface {
	Send(*wire.ChangeEvent) error
	Context() context.Context
}

func Register(s grpc.ServiceRegistrar, srv BookingServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BookingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("OpenSession", BookingServer.OpenSession),
		unary("CloseSession", BookingServer.CloseSession),
		unary("ListDoctors", BookingServer.ListDoctors),
		unary("SearchDoctors", BookingServer.SearchDoctors),
		unary("GetDoctor", BookingServer.GetDoctor),
		unary("ListSpecialties", BookingServer.ListSpecialties),
		unary("ListAppointments", BookingServer.ListAppointments),
		unary("GetAppointment", BookingServer.GetAppointment),
		unary("AddAppointment", BookingServer.AddAppointment),
		unary("UpdateAppointment", BookingServer.UpdateAppointment),
		unary("DeleteAppointment", BookingServer.DeleteAppointment),
		unary("BookAppointment", BookingServer.BookAppointment),
		unary("AvailableDates", BookingServer.AvailableDates),
		unary("GetStats", BookingServer.GetStats),
	},
	Streams: []grpc.StreamDesc{{
		StreamName:    "WatchAppointments",
		ServerStreams: true,
		Handler: func(srv any, stream grpc.ServerStream) error {
			in := new(wire.Empty)
			if err := stream.RecvMsg(in); err != nil {
				return err
			}
			return srv.(BookingServer).WatchAppointments(in, &changeStream{stream})
		},
	}},
	Metadata: "doctorbooking/v1/booking.proto",
}

// unary builds the method entry generated code would emit for one RPC.
func unary[Req any, P interface {
	*Req
	wire.Message
}, Resp wire.Message](name string, call func(BookingServer, context.Context, P) (Resp, error)) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, icpt grpc.UnaryServerInterceptor) (any, error) {
			in := P(new(Req))
			if err := dec(in); err != nil {
				return nil, err
			}
			if icpt == nil {
				return call(srv.(BookingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return icpt(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(BookingServer), ctx, req.(P))
			})
		},
	}
}

type changeStream struct {
	grpc.ServerStream
}

func (s *changeStream) Send(m *wire.ChangeEvent) error {
	return s.ServerStream.SendMsg(m)
}
