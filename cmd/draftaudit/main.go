package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/scriptureforge/draft-audit/internal/api"
	"github.com/scriptureforge/draft-audit/internal/config"
	"github.com/scriptureforge/draft-audit/internal/cron"
	"github.com/scriptureforge/draft-audit/internal/metrics"
	"github.com/scriptureforge/draft-audit/internal/monitor"
	"github.com/scriptureforge/draft-audit/internal/notify"
	"github.com/scriptureforge/draft-audit/internal/projects"
	"github.com/scriptureforge/draft-audit/internal/report"
	"github.com/scriptureforge/draft-audit/internal/service"
	"github.com/scriptureforge/draft-audit/internal/store/postgres"

	_ "github.com/lib/pq"
)

// Build-time variables set via -ldflags
var (
	version = "dev"
	commit  = "unknown"
)

const (
	exitSuccess       = 0
	exitRuntimeError  = 1
	exitInvalidConfig = 2
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitRuntimeError)
	}

	cmd := os.Args[1]

	switch cmd {
	case "serve":
		os.Exit(runServe())
	case "export":
		os.Exit(runExport(os.Args[2:]))
	case "validate":
		os.Exit(runValidate())
	case "config":
		os.Exit(runConfig())
	case "version":
		os.Exit(runVersion())
	case "--help", "-h", "help":
		printUsage()
		os.Exit(exitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(exitRuntimeError)
	}
}

func printUsage() {
	fmt.Println(`draftaudit - draft generation job audit service

Usage:
  draftaudit <command>

Commands:
  serve      Start the HTTP API and the monitor
  export     Run one reconstruction pass and write a CSV/RSV export
  validate   Validate configuration (no connections made)
  config     Print effective configuration as JSON (secrets masked)
  version    Print version information

Environment Variables:
  DATABASE_URL              PostgreSQL connection string (required)
  REDIS_ADDR                Redis address for the project-name cache (optional)
  HTTP_ADDR                 HTTP server address (default: ":8080")

  DB_OP_TIMEOUT             Database operation timeout (default: "5s")
  DB_MAX_OPEN_CONNS         Max open database connections (default: "25")
  DB_MAX_IDLE_CONNS         Max idle database connections (default: "5")
  DB_CONN_MAX_LIFETIME      Max connection lifetime (default: "30m")
  DB_CONN_MAX_IDLE_TIME     Max connection idle time (default: "5m")

  HTTP_SHUTDOWN_TIMEOUT     Graceful HTTP shutdown timeout (default: "10s")
  EVENT_FETCH_LIMIT         Max events fetched per pass (default: "10000")
  NAME_CACHE_TTL            Project-name cache TTL (default: "10m")

  METRICS_ENABLED           Enable Prometheus metrics (default: "false")
  METRICS_PATH              Metrics endpoint path (default: "/metrics")

  MONITOR_ENABLED           Enable the scheduled monitor pass (default: "false")
  MONITOR_SCHEDULE          Monitor cron schedule, UTC (default: "*/15 * * * *")
  MONITOR_WINDOW            Trailing window per monitor pass (default: "24h")

  ALERT_WEBHOOK_URL         Failure-alert webhook URL (optional)
  ALERT_WEBHOOK_SECRET      HMAC secret for alert signatures
  ALERT_WEBHOOK_TIMEOUT     Alert delivery timeout (default: "30s")`)
}

// buildService wires the store, resolver, and service from config.
// The returned cleanup closes the database and Redis connections.
func buildService(cfg config.Config, sink metrics.Sink) (*service.Service, *sql.DB, func(), error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	store := postgres.New(db, cfg.DBOpTimeout)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Printf("draftaudit: project-name cache enabled (redis=%s)", cfg.RedisAddr)
	} else {
		log.Println("draftaudit: REDIS_ADDR not set; project-name cache disabled")
	}

	resolver := projects.NewResolver(store, redisClient, cfg.NameCacheTTL)
	svc := service.New(store, resolver, cfg.EventFetchLimit, sink)

	cleanup := func() {
		if redisClient != nil {
			redisClient.Close()
		}
		db.Close()
	}
	return svc, db, cleanup, nil
}

func runServe() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	var sink metrics.Sink
	if cfg.MetricsEnabled {
		sink = metrics.NewPrometheusSink(prometheus.DefaultRegisterer)
		log.Printf("draftaudit: metrics enabled (path=%s)", cfg.MetricsPath)
	} else {
		sink = metrics.NewNoopSink()
		log.Println("draftaudit: METRICS_ENABLED not set; metrics disabled")
	}

	svc, db, cleanup, err := buildService(cfg, sink)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitRuntimeError
	}
	defer cleanup()

	log.Printf("draftaudit: db pool configured (max_open=%d, max_idle=%d, max_lifetime=%s, max_idle_time=%s)",
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)

	apiHandler := api.NewHandler(svc, sink).WithHealthChecker(db)

	mux := http.NewServeMux()
	if cfg.MetricsEnabled {
		mux.Handle(cfg.MetricsPath, promhttp.Handler())
	}
	mux.Handle("/", apiHandler)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Printf("draftaudit: http server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("draftaudit: http server error: %v", err)
		}
	}()

	var monitorWg sync.WaitGroup
	var cancelMonitor context.CancelFunc

	if cfg.MonitorEnabled {
		sched, err := cron.NewParser().Parse(cfg.MonitorSchedule)
		if err != nil {
			fmt.Fprintf(os.Stderr, "monitor schedule: %v\n", err)
			return exitInvalidConfig
		}

		var sender monitor.AlertSender
		if cfg.AlertWebhookURL != "" {
			sender = notify.NewSender(cfg.AlertWebhookURL, cfg.AlertWebhookSecret, cfg.AlertWebhookTimeout)
			log.Printf("draftaudit: failure alerts enabled (url=%s)", cfg.AlertWebhookURL)
		} else {
			log.Println("draftaudit: ALERT_WEBHOOK_URL not set; failure alerts disabled")
		}

		mon := monitor.New(
			monitor.Config{Schedule: sched, Window: cfg.MonitorWindow},
			svc,
			sender,
			sink,
		)

		var monitorCtx context.Context
		monitorCtx, cancelMonitor = context.WithCancel(context.Background())
		monitorWg.Add(1)
		go func() {
			defer monitorWg.Done()
			mon.Run(monitorCtx)
		}()
		log.Printf("draftaudit: monitor enabled (schedule=%q, window=%s)", cfg.MonitorSchedule, cfg.MonitorWindow)
	} else {
		log.Println("draftaudit: MONITOR_ENABLED not set; monitor disabled")
	}

	log.Printf("draftaudit: started (http=%s)", cfg.HTTPAddr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	received := <-sig

	log.Printf("draftaudit: received signal %v, shutting down", received)

	if cancelMonitor != nil {
		log.Println("draftaudit: stopping monitor...")
		cancelMonitor()
		monitorWg.Wait()
		log.Println("draftaudit: monitor stopped")
	}

	log.Println("draftaudit: stopping http server...")
	httpShutdownCtx, httpShutdownCancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer httpShutdownCancel()
	if err := httpServer.Shutdown(httpShutdownCtx); err != nil {
		log.Printf("draftaudit: http server shutdown error: %v", err)
	}
	log.Println("draftaudit: http server stopped")

	log.Println("draftaudit: stopped")
	return exitSuccess
}

func runExport(args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	startStr := fs.String("start", "", "window start date, YYYY-MM-DD (required)")
	endStr := fs.String("end", "", "window end date, YYYY-MM-DD, inclusive (required)")
	projectID := fs.String("project", "", "limit to one project id")
	format := fs.String("format", report.FormatCSV, "export format: csv or rsv")
	outDir := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return exitRuntimeError
	}

	// Exporting without a date range is a caller error, rejected up
	// front rather than defaulted.
	if *startStr == "" || *endStr == "" {
		fmt.Fprintln(os.Stderr, "export: -start and -end are required")
		fs.Usage()
		return exitRuntimeError
	}
	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: invalid -start: %v\n", err)
		return exitRuntimeError
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: invalid -end: %v\n", err)
		return exitRuntimeError
	}
	if *format != report.FormatCSV && *format != report.FormatRSV {
		fmt.Fprintf(os.Stderr, "export: invalid -format %q\n", *format)
		return exitRuntimeError
	}

	cfg := config.Load()
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitInvalidConfig
	}

	svc, _, cleanup, err := buildService(cfg, metrics.NewNoopSink())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitRuntimeError
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := svc.Run(ctx, service.Window{Start: start, End: end, ProjectID: *projectID})
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: %v\n", err)
		return exitRuntimeError
	}

	path := filepath.Join(*outDir, report.ExportFilename(start, end, *format))
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: create %s: %v\n", path, err)
		return exitRuntimeError
	}
	defer f.Close()

	switch *format {
	case report.FormatCSV:
		err = report.WriteCSV(f, result.Rows, result.Stats)
	case report.FormatRSV:
		err = report.WriteRSV(f, result.Rows, result.Stats)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export: write %s: %v\n", path, err)
		return exitRuntimeError
	}

	fmt.Printf("wrote %d jobs to %s\n", len(result.Rows), path)
	return exitSuccess
}

func runValidate() int {
	cfg := config.Load()

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return exitInvalidConfig
	}

	fmt.Println("configuration valid")
	return exitSuccess
}

func runConfig() int {
	cfg := config.Load()

	data, err := cfg.MaskedJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal config: %v\n", err)
		return exitRuntimeError
	}

	fmt.Println(string(data))
	return exitSuccess
}

func runVersion() int {
	fmt.Printf("draftaudit version %s (commit: %s)\n", version, commit)
	return exitSuccess
}
