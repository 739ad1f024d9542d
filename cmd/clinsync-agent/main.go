package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinsync/clinsync/internal/config"
	"github.com/clinsync/clinsync/internal/domain/auditevent"
	"github.com/clinsync/clinsync/internal/domain/careplan"
	"github.com/clinsync/clinsync/internal/domain/diagnosis"
	"github.com/clinsync/clinsync/internal/domain/event"
	"github.com/clinsync/clinsync/internal/domain/medication"
	"github.com/clinsync/clinsync/internal/domain/patient"
	"github.com/clinsync/clinsync/internal/netmon"
	"github.com/clinsync/clinsync/internal/offline"
	"github.com/clinsync/clinsync/internal/platform/api"
	"github.com/clinsync/clinsync/internal/platform/db"
	"github.com/clinsync/clinsync/internal/platform/middleware"
	"github.com/clinsync/clinsync/internal/platform/session"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinsync-agent",
		Short: "Offline-first clinical record sync agent",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(syncCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the agent: local API, connectivity watcher, sync manager",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAgent()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the local database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("migrations applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()

			return db.MigrationStatus(database)
		},
	})

	return cmd
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger = logger.Level(logLevel(cfg))

			database, err := db.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer database.Close()
			if err := db.Migrate(database); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			sess, err := session.New(cfg.ServerBaseURL, cfg.AuthToken, cfg.DeviceID)
			if err != nil {
				return err
			}
			client := api.NewClient(sess, cfg.HTTPTimeout, logger)

			probe := netmon.NewProbe(cfg.HealthURL(), cfg.ProbeInterval, logger)
			if !probe.CheckNow() {
				return fmt.Errorf("backend unreachable: %s", cfg.HealthURL())
			}

			set := buildRepos(database, client, probe, logger)
			mgr := offline.NewManager(probe, logger, offline.WithMinInterval(cfg.SyncMinInterval))
			set.register(mgr)

			report, ok := mgr.RunOnce(cmd.Context())
			if !ok {
				return fmt.Errorf("synchronization did not start")
			}
			for _, res := range report.Results {
				state := "ok"
				if !res.OK {
					state = "failed"
				}
				fmt.Printf("%-14s %s\n", res.Kind, state)
			}
			if !report.OK {
				return fmt.Errorf("synchronization finished with failures")
			}
			fmt.Println("synchronization complete")
			return nil
		},
	}
}

func newLogger() zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func logLevel(cfg *config.Config) zerolog.Level {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// repoSet bundles the per-entity repositories with the stores their resolver
// hooks rewrite, so serve and sync share one wiring path.
type repoSet struct {
	patients    *offline.Repository[*patient.Patient, patient.Request]
	diagnoses   *offline.Repository[*diagnosis.Diagnosis, diagnosis.Request]
	medications *offline.Repository[*medication.Medication, medication.Request]
	plans       *offline.Repository[*careplan.CarePlan, careplan.CarePlanRequest]
	goals       *offline.Repository[*careplan.Goal, careplan.GoalRequest]
	measures    *offline.Repository[*careplan.Measure, careplan.MeasureRequest]
	events      *offline.Repository[*event.Event, event.Request]
	audits      *offline.Repository[*auditevent.AuditEvent, auditevent.Request]

	auditStore *auditevent.SQLiteStore
}

func buildRepos(database *sql.DB, client *api.Client, net offline.Connectivity, logger zerolog.Logger) *repoSet {
	tempIDs := &offline.TempIDs{}

	patientStore := patient.NewSQLiteStore(database)
	diagStore := diagnosis.NewSQLiteStore(database)
	medStore := medication.NewSQLiteStore(database)
	eventStore := event.NewSQLiteStore(database)
	planStore := careplan.NewCarePlanStore(database)
	goalStore := careplan.NewGoalStore(database)
	measureStore := careplan.NewMeasureStore(database)
	auditStore := auditevent.NewSQLiteStore(database)

	set := &repoSet{auditStore: auditStore}

	set.patients = offline.NewRepository(offline.Config[*patient.Patient, patient.Request]{
		Kind:        "patients",
		Store:       patientStore,
		Remote:      patient.NewRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: patient.Materialize,
		RequestOf:   patient.RequestOf,
		OnResolved: func(ctx context.Context, tempID, serverID int64) error {
			if err := diagStore.ReassignPatient(ctx, tempID, serverID); err != nil {
				return err
			}
			if err := medStore.ReassignPatient(ctx, tempID, serverID); err != nil {
				return err
			}
			if err := planStore.ReassignPatient(ctx, tempID, serverID); err != nil {
				return err
			}
			if err := eventStore.ReassignPatient(ctx, tempID, serverID); err != nil {
				return err
			}
			return auditStore.ReassignEntity(ctx, "patients", tempID, serverID)
		},
	})

	set.diagnoses = offline.NewRepository(offline.Config[*diagnosis.Diagnosis, diagnosis.Request]{
		Kind:        "diagnoses",
		Store:       diagStore,
		Remote:      diagnosis.NewRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: diagnosis.Materialize,
		RequestOf:   diagnosis.RequestOf,
		OnResolved: func(ctx context.Context, tempID, serverID int64) error {
			return auditStore.ReassignEntity(ctx, "diagnoses", tempID, serverID)
		},
	})

	set.medications = offline.NewRepository(offline.Config[*medication.Medication, medication.Request]{
		Kind:        "medications",
		Store:       medStore,
		Remote:      medication.NewRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: medication.Materialize,
		RequestOf:   medication.RequestOf,
		OnResolved: func(ctx context.Context, tempID, serverID int64) error {
			return auditStore.ReassignEntity(ctx, "medications", tempID, serverID)
		},
	})

	set.plans = offline.NewRepository(offline.Config[*careplan.CarePlan, careplan.CarePlanRequest]{
		Kind:        "care_plans",
		Store:       planStore,
		Remote:      careplan.NewCarePlanRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: careplan.MaterializeCarePlan,
		RequestOf:   careplan.CarePlanRequestOf,
		OnResolved: func(ctx context.Context, tempID, serverID int64) error {
			if err := goalStore.ReassignCarePlan(ctx, tempID, serverID); err != nil {
				return err
			}
			return auditStore.ReassignEntity(ctx, "care_plans", tempID, serverID)
		},
	})

	set.goals = offline.NewRepository(offline.Config[*careplan.Goal, careplan.GoalRequest]{
		Kind:        "goals",
		Store:       goalStore,
		Remote:      careplan.NewGoalRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: careplan.MaterializeGoal,
		RequestOf:   careplan.GoalRequestOf,
		OnResolved: func(ctx context.Context, tempID, serverID int64) error {
			if err := measureStore.ReassignGoal(ctx, tempID, serverID); err != nil {
				return err
			}
			return auditStore.ReassignEntity(ctx, "goals", tempID, serverID)
		},
	})

	set.measures = offline.NewRepository(offline.Config[*careplan.Measure, careplan.MeasureRequest]{
		Kind:        "measures",
		Store:       measureStore,
		Remote:      careplan.NewMeasureRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: careplan.MaterializeMeasure,
		RequestOf:   careplan.MeasureRequestOf,
		OnResolved: func(ctx context.Context, tempID, serverID int64) error {
			return auditStore.ReassignEntity(ctx, "measures", tempID, serverID)
		},
	})

	set.events = offline.NewRepository(offline.Config[*event.Event, event.Request]{
		Kind:        "events",
		Store:       eventStore,
		Remote:      event.NewRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: event.Materialize,
		RequestOf:   event.RequestOf,
		OnResolved: func(ctx context.Context, tempID, serverID int64) error {
			return auditStore.ReassignEntity(ctx, "events", tempID, serverID)
		},
	})

	set.audits = offline.NewRepository(offline.Config[*auditevent.AuditEvent, auditevent.Request]{
		Kind:        "audit_events",
		Store:       auditStore,
		Remote:      auditevent.NewRemote(client),
		Net:         net,
		TempIDs:     tempIDs,
		Logger:      logger,
		Materialize: auditevent.Materialize,
		RequestOf:   auditevent.RequestOf,
	})

	return set
}

// register adds every repository in dependency order: parents first, so a
// run that confirms a parent's create unlocks its dependents in the same
// pass, and the audit log last so reassigned entity ids have settled.
func (s *repoSet) register(mgr *offline.Manager) {
	mgr.Register(s.patients, s.diagnoses, s.medications, s.plans, s.goals, s.measures, s.events, s.audits)
}

func (s *repoSet) routes(g *echo.Group, rec *auditevent.Recorder, mgr *offline.Manager) {
	patient.NewHandler(s.patients, rec).RegisterRoutes(g)
	diagnosis.NewHandler(s.diagnoses, rec).RegisterRoutes(g)
	medication.NewHandler(s.medications, rec).RegisterRoutes(g)
	event.NewHandler(s.events, rec).RegisterRoutes(g)
	careplan.NewHandler(s.plans, s.goals, s.measures, rec).RegisterRoutes(g)
	auditevent.NewHandler(s.audits).RegisterRoutes(g)
	offline.NewHandler(mgr).RegisterRoutes(g)
}

func runAgent() error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger = logger.Level(logLevel(cfg))

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("path", cfg.DBPath).Msg("database ready")

	sess, err := session.New(cfg.ServerBaseURL, cfg.AuthToken, cfg.DeviceID)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid backend session")
	}
	client := api.NewClient(sess, cfg.HTTPTimeout, logger)

	probe := netmon.NewProbe(cfg.HealthURL(), cfg.ProbeInterval, logger)
	probe.Start()
	defer probe.Stop()

	set := buildRepos(database, client, probe, logger)
	mgr := offline.NewManager(probe, logger, offline.WithMinInterval(cfg.SyncMinInterval))
	set.register(mgr)
	mgr.Start(context.Background())
	defer mgr.Stop()

	recorder := auditevent.NewRecorder(set.audits, set.auditStore, sess.Actor(), logger)
	defer recorder.Close()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(30 * time.Second))

	apiV1 := e.Group("/api/v1")
	set.routes(apiV1, recorder, mgr)

	e.GET("/healthz", db.HealthHandler(database))

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("starting agent")
		if err := e.Start(cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down agent")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("agent stopped")
	return nil
}
