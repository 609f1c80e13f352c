package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"google.golang.org/grpc/status"

	"doctor-booking-api/internal/booking"
	"doctor-booking-api/internal/client"
	"doctor-booking-api/internal/model"
)

var errUsage = errors.New("invalid arguments, see bookingctl -h")

// run executes one subcommand against c and prints its result to out.
func run(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	cmd, args := args[0], args[1:]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var err error
	switch cmd {
	case "session":
		sess, err := c.OpenSession(ctx)
		if err != nil {
			return rpcErr(err)
		}
		fmt.Fprintf(out, "export BOOKING_TOKEN=%s\n# session %s expires %s\n", sess.Token, sess.SessionID, sess.ExpiresAt.Format("2006-01-02 15:04"))
		return nil

	case "doctors":
		specialty := fs.String("specialty", "", "exact specialty filter")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		docs, err := c.SearchDoctors(ctx, strings.Join(fs.Args(), " "), *specialty)
		if err != nil {
			return rpcErr(err)
		}
		printDoctors(out, docs)
		return nil

	case "doctor":
		if len(args) != 1 {
			return errUsage
		}
		d, err := c.GetDoctor(ctx, args[0])
		if err != nil {
			return rpcErr(err)
		}
		fmt.Fprintf(out, "%s\n%s · %s\n%s\nRating %.1f · %s\nSlots: %s\n",
			d.Name, d.Specialty, d.Experience, d.Location, d.Rating, d.Price, strings.Join(d.AvailableSlots, " "))
		return nil

	case "specialties":
		specs, err := c.ListSpecialties(ctx)
		if err != nil {
			return rpcErr(err)
		}
		for _, s := range specs {
			fmt.Fprintln(out, s)
		}
		return nil

	case "appointments":
		st := fs.String("status", model.FilterAll, "all, upcoming, completed or cancelled")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		appts, err := c.ListAppointments(ctx, *st)
		if err != nil {
			return rpcErr(err)
		}
		printAppointments(out, appts)
		return nil

	case "book":
		typ := fs.String("type", booking.DefaultType, "appointment type: "+strings.Join(booking.SuggestedTypes, ", "))
		notes := fs.String("notes", "", "optional notes")
		if err := fs.Parse(args); err != nil || fs.NArg() != 3 {
			return errUsage
		}
		a, err := c.Book(ctx, booking.Request{
			DoctorID: fs.Arg(0),
			Date:     fs.Arg(1),
			Time:     fs.Arg(2),
			Type:     *typ,
			Notes:    *notes,
		})
		if err != nil {
			return rpcErr(err)
		}
		fmt.Fprintf(out, "booked %s: %s, %s %s\n", a.ID, a.DoctorName, a.Date, a.Time)
		return nil

	case "complete", "cancel":
		if len(args) != 1 {
			return errUsage
		}
		next := model.StatusCompleted
		if cmd == "cancel" {
			next = model.StatusCancelled
		}
		err = c.UpdateAppointment(ctx, args[0], model.AppointmentPatch{Status: &next})

	case "delete":
		if len(args) != 1 {
			return errUsage
		}
		err = c.DeleteAppointment(ctx, args[0])

	case "dates":
		days := fs.Int("days", booking.DefaultDateWindow, "number of days")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		dates, err := c.AvailableDates(ctx, *days)
		if err != nil {
			return rpcErr(err)
		}
		for _, d := range dates {
			fmt.Fprintf(out, "%-12s %s\n", d.Display, d.Value)
		}
		return nil

	case "stats":
		n, err := c.Stats(ctx)
		if err != nil {
			return rpcErr(err)
		}
		fmt.Fprintf(out, "total %d · upcoming %d · completed %d · cancelled %d\n", n.Total, n.Upcoming, n.Completed, n.Cancelled)
		return nil

	case "watch":
		w, err := c.Watch(ctx)
		if err != nil {
			return rpcErr(err)
		}
		for {
			ev, err := w.Recv()
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			if err != nil {
				return rpcErr(err)
			}
			fmt.Fprintf(out, "%s %s\n", ev.Kind, ev.AppointmentID)
		}

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		return rpcErr(err)
	}
	fmt.Fprintln(out, "ok")
	return nil
}

// rpcErr strips the gRPC wrapping for display.
func rpcErr(err error) error {
	if s, ok := status.FromError(err); ok {
		return fmt.Errorf("%s: %s", s.Code(), s.Message())
	}
	return err
}

func printDoctors(out io.Writer, docs []model.Doctor) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSPECIALTY\tRATING\tPRICE")
	for _, d := range docs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Specialty, strconv.FormatFloat(d.Rating, 'f', 1, 64), d.Price)
	}
	tw.Flush()
}

func printAppointments(out io.Writer, appts []model.Appointment) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDOCTOR\tDATE\tTIME\tTYPE\tSTATUS\tNOTES")
	for _, a := range appts {
		notes := ""
		if a.Notes != nil {
			notes = *a.Notes
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", a.ID, a.DoctorName, a.Date, a.Time, a.Type, a.Status, notes)
	}
	tw.Flush()
}
