// Command navrig serves the GPS/navigation rig simulator: the HTTP API and
// websocket telemetry feed over a playback manager that drives the RF
// transmitter and the speed/bearing rig.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/routecast/navrig/internal/api"
	"github.com/routecast/navrig/internal/config"
	"github.com/routecast/navrig/internal/db"
	"github.com/routecast/navrig/internal/devices"
	"github.com/routecast/navrig/internal/gen"
	"github.com/routecast/navrig/internal/hub"
	"github.com/routecast/navrig/internal/monitoring"
	"github.com/routecast/navrig/internal/motion"
	"github.com/routecast/navrig/internal/observability"
	"github.com/routecast/navrig/internal/route"
	"github.com/routecast/navrig/internal/settings"
	"github.com/routecast/navrig/internal/sim"
	"github.com/routecast/navrig/internal/version"
)

var (
	devMode       = flag.Bool("dev", false, "Run in dev mode: dry-run devices regardless of config")
	listen        = flag.String("listen", "", "Listen address (overrides config)")
	configPath    = flag.String("config", "navrig.yaml", "Path to the YAML config file")
	dbFile        = flag.String("db", "", "Path to the SQLite database file (overrides config)")
	artifactsDir  = flag.String("artifacts", "", "Directory for generated playback artifacts (overrides config)")
	migrationsDir = flag.String("migrations", "", "Path to migration files (overrides config)")
	enableTracing = flag.Bool("trace", false, "Enable OpenTelemetry tracing to stdout")
	showVersion   = flag.Bool("version", false, "Print version information and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("navrig %s (%s) built %s\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyOverrides(cfg)

	if args := flag.Args(); len(args) > 0 {
		if args[0] == "migrate" {
			db.RunMigrateCommand(args[1:], cfg.DatabasePath, cfg.MigrationsDir)
			return
		}
		log.Fatalf("Unknown command: %s", args[0])
	}

	if cfg.ListenAddr == "" {
		log.Fatal("Listen address is required")
	}

	monitoring.Logf("Starting navrig %s (%s)", version.Version, version.GitSHA)

	database := openDatabase(cfg)
	defer database.Close()

	store, err := settings.NewStore(database, cfg.Settings)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	collector, err := observability.NewCollector(nil)
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, *enableTracing)
	if err != nil {
		log.Fatalf("Failed to initialise tracing: %v", err)
	}
	defer observability.ShutdownTracing(context.Background(), shutdownTracing)

	telemetry := hub.New(collector)
	planner := motion.NewGenerator(cfg.Profile)

	factory := devices.NewFactory(deviceConfig(store), &settingsPipeline{
		store:     store,
		planner:   planner,
		outputDir: cfg.ArtifactsDir,
	}, planner, nil)
	defer func() {
		if err := factory.Close(); err != nil {
			monitoring.Logf("Error closing device factory: %v", err)
		}
	}()

	manager := sim.NewManager(cfg.Playback.ManagerConfig(), sim.ManagerDeps{
		Hub:      telemetry,
		Events:   hub.NewSink(telemetry),
		Factory:  factory,
		Recorder: observability.NewRunRecorder(db.NewRecorder(database, nil), collector, nil),
		Tracer:   otel.Tracer("navrig"),
	})

	server := api.NewServer(manager, api.NewRouteHolder(), store, database, telemetry, collector, planner, cfg.Playback.DemoDtS)
	mux := server.ServeMux()
	if err := database.AttachAdminRoutes(mux); err != nil {
		log.Fatalf("Failed to attach admin routes: %v", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		monitoring.Logf("Listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		if err := httpServer.Close(); err != nil {
			monitoring.Logf("HTTP server force close error: %v", err)
		}
	}

	if err := manager.Stop(context.Background()); err != nil {
		monitoring.Logf("Error stopping simulation during shutdown: %v", err)
	}
	monitoring.Logf("Graceful shutdown complete")
}

// applyOverrides folds explicitly set command line flags over the loaded
// config.
func applyOverrides(cfg *config.Config) {
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *dbFile != "" {
		cfg.DatabasePath = *dbFile
	}
	if *artifactsDir != "" {
		cfg.ArtifactsDir = *artifactsDir
	}
	if *migrationsDir != "" {
		cfg.MigrationsDir = *migrationsDir
	}
	if *devMode {
		cfg.Playback.DryRunDefault = true
	}
}

// openDatabase opens the run database. A fresh file gets the inline schema
// and is baselined at the latest migration version; an existing file must be
// up to date before the server starts.
func openDatabase(cfg *config.Config) *db.DB {
	_, statErr := os.Stat(cfg.DatabasePath)
	fresh := os.IsNotExist(statErr)

	database, err := db.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if _, err := os.Stat(cfg.MigrationsDir); os.IsNotExist(err) {
		monitoring.Logf("Migrations directory %s not found, skipping schema checks", cfg.MigrationsDir)
		return database
	}

	if fresh {
		version, err := db.GetLatestMigrationVersion(cfg.MigrationsDir)
		if err != nil {
			log.Fatalf("Failed to read migrations: %v", err)
		}
		if err := database.BaselineAtVersion(version); err != nil {
			log.Fatalf("Failed to baseline fresh database: %v", err)
		}
		monitoring.Logf("Created %s at schema version %d", cfg.DatabasePath, version)
		return database
	}

	if _, err := database.CheckAndPromptMigrations(cfg.MigrationsDir); err != nil {
		log.Fatalf("Migration check failed: %v", err)
	}
	return database
}

// deviceConfig maps the current settings document onto the device layer.
// The factory consults it before each live run, so settings edits apply
// without a restart.
func deviceConfig(store *settings.Store) func() devices.Config {
	return func() devices.Config {
		doc := store.Current()
		hackrf := devices.DefaultHackrfConfig()
		hackrf.FrequencyHz = doc.Transmitter.CenterFreqHz
		hackrf.SampleRateHz = doc.Transmitter.SampleRateHz
		hackrf.TxvgaGain = doc.Transmitter.TxvgaGain
		hackrf.AmpEnabled = doc.Transmitter.AmpEnabled
		return devices.Config{
			SerialPort:    doc.Controller.Port,
			SerialOptions: doc.Controller.PortOptions,
			Hackrf:        hackrf,
		}
	}
}

// settingsPipeline rebuilds the artifact pipeline from the current settings
// before each live run, for the same reason.
type settingsPipeline struct {
	store     *settings.Store
	planner   *motion.Generator
	outputDir string
}

var _ sim.Pipeline = (*settingsPipeline)(nil)

func (p *settingsPipeline) Generate(ctx context.Context, r *route.Route, segRange route.SegmentRange, dtS, fixedDurationS float64) (*sim.PlaybackPlan, error) {
	doc := p.store.Current()
	iq := gen.NewGpsSdrSim(gen.GpsSdrSimConfig{
		EphemerisPath: doc.Generator.EphemerisPath,
		ToolPath:      doc.Generator.ToolPath,
		SampleRateHz:  doc.Generator.IQSampleRateHz,
		IQBits:        doc.Generator.IQBits,
	})
	nmea := gen.NewNmeaGenerator(gen.DefaultNmeaConfig(), nil)
	return gen.NewPipeline(p.planner, nmea, iq, p.outputDir).Generate(ctx, r, segRange, dtS, fixedDurationS)
}
