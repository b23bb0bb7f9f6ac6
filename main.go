package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/brainwave-labs/bci-shell-api/accounts"
	"github.com/brainwave-labs/bci-shell-api/apps"
	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/datastore/gorm"
	"github.com/brainwave-labs/bci-shell-api/events"
	"github.com/brainwave-labs/bci-shell-api/handlers"
	"github.com/brainwave-labs/bci-shell-api/jobs"
	"github.com/brainwave-labs/bci-shell-api/market"
	"github.com/brainwave-labs/bci-shell-api/sessions"
	"github.com/brainwave-labs/bci-shell-api/settings"
	"github.com/brainwave-labs/bci-shell-api/system"
)

const version = "0.1.0"

var (
	sha1ver   string // sha1 revision used to build the program
	buildTime string // when the executable was built
)

func main() {
	var printVersion bool

	// If we should just print the version number and exit
	flag.BoolVar(&printVersion, "version", false, "if true, print version and exit")
	flag.Parse()

	if printVersion {
		fmt.Printf("v%s build on %s from sha1 %s\n", version, buildTime, sha1ver)
		os.Exit(0)
	}

	cfg, err := configs.Parse()
	if err != nil {
		panic(err)
	}

	runServer(cfg)

	os.Exit(0)
}

func runServer(cfg *configs.Config) {
	configs.ConfigureLogger(cfg.LogLevel)

	log.Info("Starting server")

	// Database
	db, err := gorm.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer gorm.Close(db)

	systemService := system.NewService(
		system.NewGormStore(db),
		system.WithPauseDuration(cfg.PauseDuration),
	)

	// Create a worker pool
	wp := jobs.NewWorkerPool(
		jobs.NewGormStore(db),
		cfg.WorkerQueueCapacity,
		cfg.WorkerCount,
		jobs.WithJobStatusWebhook(cfg.JobStatusWebhookUrl, cfg.JobStatusWebhookTimeout),
		jobs.WithSystemService(systemService),
		jobs.WithMaxJobErrorCount(cfg.MaxJobErrorCount),
		jobs.WithDbJobPollInterval(cfg.DBJobPollInterval),
		jobs.WithAcceptedGracePeriod(cfg.AcceptedGracePeriod),
		jobs.WithReSchedulableGracePeriod(cfg.ReSchedulableGracePeriod),
	)

	defer func() {
		wp.Stop()
		log.Info("Stopped workerpool")
	}()

	// Event feed for the GUI front end
	bus := events.NewBus()
	wsHub := events.NewWSHub(bus)

	// Market API client
	marketClient := market.NewClient(cfg)

	// Services
	jobsService := jobs.NewService(jobs.NewGormStore(db))
	settingsService := settings.NewService(cfg, settings.NewGormStore(db))
	appsService := apps.NewService(cfg, apps.NewGormStore(db), wp,
		apps.WithVersionSource(marketClient),
		apps.WithEventSink(bus),
	)
	sessionsService := sessions.NewService(cfg, sessions.NewGormStore(db), appsService, settingsService,
		sessions.WithSystemService(systemService),
		sessions.WithEventSink(bus),
	)
	accountsService := accounts.NewService(cfg, accounts.NewGormStore(db), marketClient)

	// HTTP handling
	systemHandler := handlers.NewSystem(systemService)
	jobsHandler := handlers.NewJobs(jobsService)
	settingsHandler := handlers.NewSettings(settingsService)
	appsHandler := handlers.NewApps(appsService)
	sessionsHandler := handlers.NewSessions(sessionsService)
	accountsHandler := handlers.NewAccounts(accountsService)

	r := mux.NewRouter()

	// Catch the api version
	rv := r.PathPrefix("/{apiVersion}").Subrouter()

	// Debug
	rv.Handle("/debug", handlers.Debug("https://github.com/brainwave-labs/bci-shell-api", sha1ver, buildTime)).Methods(http.MethodGet)

	// Health
	rv.HandleFunc("/health/ready", handlers.HandleHealthReady).Methods(http.MethodGet)
	rv.Handle("/health/liveness", handlers.Liveness(func() (interface{}, error) {
		return wp.Status()
	})).Methods(http.MethodGet)

	// System
	rv.Handle("/system/settings", systemHandler.GetSettings()).Methods(http.MethodGet)
	rv.Handle("/system/settings", systemHandler.SetSettings()).Methods(http.MethodPost)

	// Jobs
	rv.Handle("/jobs", jobsHandler.List()).Methods(http.MethodGet)            // list
	rv.Handle("/jobs/{jobId}", jobsHandler.Details()).Methods(http.MethodGet) // details

	// Apps
	rv.Handle("/apps", appsHandler.List()).Methods(http.MethodGet)
	rv.Handle("/apps", appsHandler.Install()).Methods(http.MethodPost)
	rv.Handle("/apps/template", appsHandler.InstallTemplate()).Methods(http.MethodPost)
	rv.Handle("/apps/check-updates", appsHandler.CheckUpdates()).Methods(http.MethodPost)
	rv.Handle("/apps/{appId}", appsHandler.Details()).Methods(http.MethodGet)
	rv.Handle("/apps/{appId}", appsHandler.Uninstall()).Methods(http.MethodDelete)
	rv.Handle("/apps/{appId}/settings", settingsHandler.GetSettings()).Methods(http.MethodGet)
	rv.Handle("/apps/{appId}/settings", settingsHandler.SaveSettings()).Methods(http.MethodPost)

	// Sessions
	rv.Handle("/sessions", sessionsHandler.List()).Methods(http.MethodGet)
	rv.Handle("/sessions", sessionsHandler.Start()).Methods(http.MethodPost)
	rv.Handle("/sessions/{sessionId}", sessionsHandler.Details()).Methods(http.MethodGet)
	rv.Handle("/sessions/{sessionId}/play", sessionsHandler.Play()).Methods(http.MethodPost)
	rv.Handle("/sessions/{sessionId}/pause", sessionsHandler.Pause()).Methods(http.MethodPost)
	rv.Handle("/sessions/{sessionId}/resume", sessionsHandler.Resume()).Methods(http.MethodPost)
	rv.Handle("/sessions/{sessionId}/stop", sessionsHandler.Stop()).Methods(http.MethodPost)

	// Accounts
	rv.Handle("/accounts/login", accountsHandler.Login()).Methods(http.MethodPost)
	rv.Handle("/accounts/logout", accountsHandler.Logout()).Methods(http.MethodPost)
	rv.Handle("/accounts/current", accountsHandler.Current()).Methods(http.MethodGet)
	rv.Handle("/accounts/current", accountsHandler.Delete()).Methods(http.MethodDelete)

	h := http.TimeoutHandler(r, cfg.ServerRequestTimeout, "request timed out")
	h = handlers.UseCors(h)
	h = handlers.UseLogging(h)
	h = handlers.UseCompress(h)

	// Setup idempotency key middleware if it's enabled
	if !cfg.DisableIdempotencyMiddleware {
		var is handlers.IdempotencyStore
		switch cfg.IdempotencyMiddlewareDatabaseType {
		// Shared SQL/Gorm store (same as for main app)
		case handlers.IdempotencyStoreTypeShared.String():
			is = handlers.NewIdempotencyStoreGorm(db)
		// Redis, separate from app db
		case handlers.IdempotencyStoreTypeRedis.String():
			if cfg.IdempotencyMiddlewareRedisURL == "" {
				log.Fatal("idempotency middleware db set to redis but Redis URL is empty")
			}
			pool := &redis.Pool{
				MaxIdle:   80,
				MaxActive: 12000,
				Dial: func() (redis.Conn, error) {
					c, err := redis.DialURL(cfg.IdempotencyMiddlewareRedisURL)
					if err != nil {
						panic(err.Error())
					}
					return c, err
				},
			}

			client := pool.Get()

			defer func() {
				log.Info("Closing Redis client..")
				if err := client.Close(); err != nil {
					log.Warn(err)
				}
			}()

			is = handlers.NewIdempotencyStoreRedis(client)
		case handlers.IdempotencyStoreTypeLocal.String():
			is = handlers.NewIdempotencyStoreLocal()
		}

		h = handlers.UseIdempotency(h, handlers.IdempotencyHandlerOptions{
			Expiry: 1 * time.Hour,
			// Session commands are state machine guarded already
			IgnorePaths: []string{"/v1/sessions"},
		}, is)
	}

	// The websocket event feed cannot go through the timeout handler
	// chain, it holds connections open indefinitely.
	outer := mux.NewRouter()
	outer.Handle("/{apiVersion}/ws/events", wsHub).Methods(http.MethodGet)
	outer.PathPrefix("/").Handler(h)

	// Server boilerplate
	srv := &http.Server{
		Handler:      outer,
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		WriteTimeout: 0, // Disabled, set cfg.ServerRequestTimeout instead
		ReadTimeout:  0, // Disabled, set cfg.ServerRequestTimeout instead
	}

	// Run our server in a goroutine so that it doesn't block.
	go func() {
		log.
			WithFields(log.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
			}).
			Info("Server listening")
		if err := srv.ListenAndServe(); err != nil {
			log.Warn(err)
		}
	}()

	// Trap interupt or sigterm and gracefully shutdown the server
	c := make(chan os.Signal, 1)
	// We'll accept graceful shutdowns when quit via SIGINT (Ctrl+C)
	// SIGKILL, SIGQUIT or SIGTERM (Ctrl+/) will not be caught.
	signal.Notify(c, os.Interrupt)

	// Block until we receive our signal.
	sig := <-c

	log.Infof("Got signal: %s. Shutting down..", sig)

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("Error in server shutdown: %s", err)
	}
}
