package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"doctor-booking-api/internal/client"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: bookingctl [-addr HOST:PORT] COMMAND [ARGS]

Commands:
  session                                open a session and print its token
  doctors [-specialty S] [QUERY]         list or search doctors
  doctor ID                              show one doctor
  specialties                            list specialties
  appointments [-status S]               list appointments (all|upcoming|completed|cancelled)
  book [-type T] [-notes N] DOCTOR DATE TIME
  complete ID | cancel ID | delete ID
  dates [-days N]                        bookable dates starting tomorrow
  stats                                  appointment counts by status
  watch                                  stream appointment changes

Environment Variables:
  BOOKING_ADDR    server address (default: localhost:50051)
  BOOKING_TOKEN   session token printed by "bookingctl session"
`)
}

func main() {
	addr := flag.String("addr", envOr("BOOKING_ADDR", "localhost:50051"), "gRPC server address")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	c, err := client.Dial(*addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()
	c.SetToken(os.Getenv("BOOKING_TOKEN"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
