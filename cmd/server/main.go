package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"doctor-booking-api/internal/config"
	gweb "doctor-booking-api/internal/grpcweb"
	"doctor-booking-api/internal/handler"
	"doctor-booking-api/internal/logger"
	"doctor-booking-api/internal/metrics"
	"doctor-booking-api/internal/middleware"
	"doctor-booking-api/internal/seed"
	"doctor-booking-api/internal/session"
	"doctor-booking-api/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "json").WithError(err).Fatal("config")
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	data, err := loadSeed(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("seed")
	}
	log.WithField("doctors", len(data.Doctors)).WithField("appointments", len(data.Appointments)).Info("seed loaded")

	var storeOpts []store.Option
	if cfg.StrictTransitions {
		storeOpts = append(storeOpts, store.WithTransitionPolicy(store.ForwardOnly))
	}
	sessions := session.NewManager(session.Config{
		Secret:       cfg.SessionSecret,
		TokenTTL:     cfg.SessionTokenTTL,
		IdleTimeout:  cfg.SessionIdleTimeout,
		Seed:         data,
		StoreOptions: storeOpts,
		Logger:       log,
		Metrics:      m,
	})
	go sessions.Run(ctx, time.Minute)

	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rl.Run(ctx)

	h := handler.New(sessions, handler.WithLogger(log), handler.WithMetrics(m))
	srv := handler.NewServer(h, sessions, rl, m, log)

	// start grpc on TCP
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.WithError(err).Fatal("listen")
	}
	go func() {
		log.Infof("grpc on :%s", cfg.GRPCPort)
		if err := srv.Serve(lis); err != nil {
			log.WithError(err).Error("grpc")
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.GRPCPort, log, m)
	if err != nil {
		log.WithError(err).Fatal("bridge")
	}
	defer bridge.Close()

	httpSrv := &http.Server{
		Addr: ":" + cfg.WebPort,
		Handler: gweb.NewRouter(gweb.RouterConfig{
			Bridge:         bridge,
			MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infof("grpc-web on :%s", cfg.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http")
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpSrv.Shutdown(shutdownCtx)
	srv.GracefulStop()
	sessions.Shutdown()
}

// loadSeed builds the dataset every session starts from. With
// DOCTORS_DATABASE_URL set, the directory is read once from Postgres.
func loadSeed(ctx context.Context, cfg config.Config, log *logger.Logger) (seed.Dataset, error) {
	data, err := seed.Embedded()
	if err != nil {
		return seed.Dataset{}, err
	}
	if !cfg.SeedSampleAppointments {
		data = data.WithoutAppointments()
	}
	if cfg.DoctorsDatabaseURL == "" {
		return data, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DoctorsDatabaseURL)
	if err != nil {
		return seed.Dataset{}, err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return seed.Dataset{}, err
	}
	log.Info("connected to postgres")

	if err := seed.Migrate(ctx, pool); err != nil {
		return seed.Dataset{}, err
	}
	return seed.FromPostgres(ctx, pool, data)
}
