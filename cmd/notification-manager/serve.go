package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"synctask-notifications/internal/api"
	"synctask-notifications/internal/common/auth"
	"synctask-notifications/internal/common/camunda"
	"synctask-notifications/internal/common/config"
	"synctask-notifications/internal/common/database"
	"synctask-notifications/internal/common/logger"
	"synctask-notifications/internal/common/mail"
	"synctask-notifications/internal/common/observability"
	"synctask-notifications/internal/records"
	"synctask-notifications/internal/triggers"

	frae "synctask-notifications/internal/workers/friends/friend-request-accepted-email"
	fre "synctask-notifications/internal/workers/friends/friend-request-email"
	gie "synctask-notifications/internal/workers/groups/group-invitation-email"
	dre "synctask-notifications/internal/workers/tasks/deadline-reminder-email"
	we "synctask-notifications/internal/workers/users/welcome-email"
)

// reactiveBinding ties a change handler to its Zeebe task type and to the
// collection/operation it reacts to on the Postgres channel.
type reactiveBinding struct {
	taskType   string
	collection string
	operation  triggers.Operation
	handler    triggers.Handler
}

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the reactive workers and the callable API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}

	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting notification manager...",
		zap.String("triggerSource", cfg.Triggers.Source),
		zap.String("mailProvider", cfg.Mail.Provider),
	)

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err := retryWithBackoff(ctx, func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err = pg.Ping(ctx); err != nil {
			pg.Close()
		}
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return err
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry (revocation list only) ---
	var rdb *database.RedisClient
	var revocation auth.RevocationChecker
	if cfg.Auth.RevocationCheck {
		rdb = database.NewRedis(cfg.Database.Redis)
		err = retryWithBackoff(ctx, func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return err
		}
		defer rdb.Close()
		revocation = auth.NewRedisRevocationList(rdb.Client)
		zapLog.Info("Redis connected successfully")
	}

	// --- Mail transport ---
	mailer, err := mail.NewFromConfig(ctx, cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("mail transport init failed: %w", err)
	}
	zapLog.Info("Mail transport ready", zap.String("provider", cfg.Mail.Provider))

	users := records.NewUserStore(pg.DB)

	bindings, err := buildReactiveHandlers(cfg, mailer, users, obs, log)
	if err != nil {
		return err
	}
	callables, err := buildCallables(cfg, mailer, obs, log)
	if err != nil {
		return err
	}

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	var workers []*camunda.Worker
	if cfg.Triggers.UsesZeebe() {
		err = retryWithBackoff(ctx, func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			return err
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		for _, b := range bindings {
			wcfg := config.GetWorkerConfig(cfg, b.taskType)
			if !wcfg.Enabled {
				zapLog.Info("worker disabled", zap.String("taskType", b.taskType))
				continue
			}
			timeout := config.GetDuration(wcfg.Timeout)
			jobHandler := camunda.NewChangeJobHandler(b.taskType, b.handler, timeout, log)
			workers = append(workers, camunda.NewWorker(zeebe.GetClient(), b.taskType, wcfg.MaxJobsActive, timeout, jobHandler, log))
		}
	}

	var wg sync.WaitGroup

	// --- Postgres LISTEN/NOTIFY ---
	if cfg.Triggers.UsesPostgres() {
		listener, err := database.NewListener(cfg.Database.Postgres, cfg.Triggers, log)
		if err != nil {
			return err
		}
		defer listener.Close()

		router := triggers.NewRouter(log)
		for _, b := range bindings {
			if !config.IsWorkerEnabled(cfg, b.taskType) {
				continue
			}
			router.Register(b.collection, b.operation, b.handler)
		}

		source := triggers.NewPostgresSource(listener, router, database.PingInterval, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := source.Run(ctx); err != nil {
				zapLog.Error("Postgres trigger source stopped", zap.Error(err))
			}
		}()
		zapLog.Info("Listening for record changes", zap.String("channel", cfg.Triggers.Channel))
	}

	// --- Callable API ---
	server := api.NewServer(api.Options{
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, revocation),
		Observability:  obs,
		Logger:         log,
		ZapLogger:      zapLog,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
	}, callables...)
	go func() {
		if err := server.Run(cfg.Server.Address); err != nil {
			zapLog.Error("callable API failed", zap.Error(err))
			stop()
		}
	}()

	// --- Health/Metrics ---
	ops := &http.Server{
		Addr:              cfg.Server.MetricsAddress,
		Handler:           opsMux(pg, rdb, zeebe),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.MetricsAddress))
		if err := ops.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("callable API shutdown", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}
	wg.Wait()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("Health/Metrics server shutdown", zap.Error(err))
	}

	zapLog.Info("Notification manager stopped")
	return nil
}

func buildReactiveHandlers(cfg *config.Config, mailer mail.Sender, users records.UserLookup, obs *observability.Observability, log logger.Logger) ([]reactiveBinding, error) {
	welcomeCfg := config.GetWorkerConfig(cfg, we.TaskType)
	welcome, err := we.NewHandler(we.HandlerOptions{
		CustomConfig: &we.Config{
			Enabled:       welcomeCfg.Enabled,
			MaxJobsActive: welcomeCfg.MaxJobsActive,
			Timeout:       config.GetDuration(welcomeCfg.Timeout),
		},
		Mailer:        mailer,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", we.TaskType, err)
	}

	requestCfg := config.GetWorkerConfig(cfg, fre.TaskType)
	request, err := fre.NewHandler(fre.HandlerOptions{
		CustomConfig: &fre.Config{
			Enabled:       requestCfg.Enabled,
			MaxJobsActive: requestCfg.MaxJobsActive,
			Timeout:       config.GetDuration(requestCfg.Timeout),
		},
		Mailer:        mailer,
		Users:         users,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fre.TaskType, err)
	}

	acceptedCfg := config.GetWorkerConfig(cfg, frae.TaskType)
	accepted, err := frae.NewHandler(frae.HandlerOptions{
		CustomConfig: &frae.Config{
			Enabled:       acceptedCfg.Enabled,
			MaxJobsActive: acceptedCfg.MaxJobsActive,
			Timeout:       config.GetDuration(acceptedCfg.Timeout),
		},
		Mailer:        mailer,
		Users:         users,
		Observability: obs,
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", frae.TaskType, err)
	}

	return []reactiveBinding{
		{taskType: we.TaskType, collection: triggers.CollectionUsers, operation: triggers.OperationCreate, handler: welcome},
		{taskType: fre.TaskType, collection: triggers.CollectionFriendRequests, operation: triggers.OperationCreate, handler: request},
		{taskType: frae.TaskType, collection: triggers.CollectionFriendRequests, operation: triggers.OperationUpdate, handler: accepted},
	}, nil
}

func buildCallables(cfg *config.Config, mailer mail.Sender, obs *observability.Observability, log logger.Logger) ([]api.Callable, error) {
	timeout := config.GetDuration(cfg.Server.RequestTimeout)
	var callables []api.Callable

	if config.IsWorkerEnabled(cfg, gie.FunctionName) {
		h, err := gie.NewHandler(gie.HandlerOptions{
			CustomConfig:  &gie.Config{Enabled: true, Timeout: timeout},
			Mailer:        mailer,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", gie.FunctionName, err)
		}
		callables = append(callables, h)
	}

	if config.IsWorkerEnabled(cfg, dre.FunctionName) {
		h, err := dre.NewHandler(dre.HandlerOptions{
			CustomConfig:  &dre.Config{Enabled: true, Timeout: timeout},
			Mailer:        mailer,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", dre.FunctionName, err)
		}
		callables = append(callables, h)
	}

	return callables, nil
}

func opsMux(pg *database.PostgresClient, rdb *database.RedisClient, zeebe *camunda.Client) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]string{}
		ready := true
		check := func(name string, fn func(context.Context) error) {
			if err := fn(ctx); err != nil {
				checks[name] = err.Error()
				ready = false
				return
			}
			checks[name] = "ok"
		}

		check("postgres", pg.Ping)
		if rdb != nil {
			check("redis", rdb.Ping)
		}
		if zeebe != nil {
			check("zeebe", zeebe.HealthCheck)
		}

		status, code := "ready", http.StatusOK
		if !ready {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		writeStatus(w, code, map[string]interface{}{
			"status": status,
			"checks": checks,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
