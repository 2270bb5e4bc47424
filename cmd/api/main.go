package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/bounty-platform/internal/application"
	appai "github.com/bryanwahyu/bounty-platform/internal/application/ai"
	appjobs "github.com/bryanwahyu/bounty-platform/internal/application/jobs"
	"github.com/bryanwahyu/bounty-platform/internal/config"
	"github.com/bryanwahyu/bounty-platform/internal/domain/analysis"
	"github.com/bryanwahyu/bounty-platform/internal/domain/history"
	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
	openaiClient "github.com/bryanwahyu/bounty-platform/internal/infra/ai/openai"
	"github.com/bryanwahyu/bounty-platform/internal/infra/archive"
	mysqlp "github.com/bryanwahyu/bounty-platform/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/bounty-platform/internal/infra/db/postgres"
	"github.com/bryanwahyu/bounty-platform/internal/infra/executor/tools"
	"github.com/bryanwahyu/bounty-platform/internal/infra/httpserver"
	"github.com/bryanwahyu/bounty-platform/internal/infra/notify"
	"github.com/bryanwahyu/bounty-platform/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database, driver dipilih dari config
	var (
		db           *sql.DB
		jobRepo      domain.Repository
		historyRepo  history.Repository
		analysisRepo analysis.Repository
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		jobRepo = mysqlp.NewJobRepository(db)
		historyRepo = mysqlp.NewHistoryRepository(db)
		analysisRepo = mysqlp.NewAnalysisRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		jobRepo = postgresp.NewJobRepository(db)
		historyRepo = postgresp.NewHistoryRepository(db)
		analysisRepo = postgresp.NewAnalysisRepository(db)
	default:
		log.Fatalf("unknown database driver: %s", cfg.Database.Driver)
	}
	defer db.Close()

	// init result archive
	var store domain.Archive
	switch cfg.Archive.Backend {
	case "fs":
		store, err = archive.NewFS(cfg.Archive.Dir)
		if err != nil {
			log.Fatalf("archive init error: %v", err)
		}
	case "minio":
		store, err = archive.NewMinio(ctx,
			cfg.Archive.Minio.Endpoint,
			cfg.Archive.Minio.Region,
			cfg.Archive.Minio.BucketName,
			cfg.Archive.Minio.AccessKey,
			cfg.Archive.Minio.SecretKey,
			cfg.Archive.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
	default:
		log.Fatalf("unknown archive backend: %s", cfg.Archive.Backend)
	}

	toolTimeout := time.Duration(cfg.Scanner.ToolTimeoutSeconds) * time.Second

	// init service
	svc := &appjobs.Service{
		Repo:            jobRepo,
		Archive:         store,
		Notifier:        notify.NewSlack(cfg.Notify.SlackWebhookURL),
		History:         historyRepo,
		Metrics:         middleware.JobMetrics{},
		Clock:           application.SystemClock{},
		WebScanner:      &tools.ZAPScanner{Timeout: toolTimeout},
		TemplateScanner: &tools.NucleiScanner{Timeout: toolTimeout},
		DepScanner:      &tools.OSVScanner{Timeout: toolTimeout},
		ContractScanner: &tools.MythrilAnalyzer{Timeout: toolTimeout},
	}

	// init dispatcher, lalu sambungkan dua arah dengan service
	dispatcher := appjobs.NewDispatcher(svc, cfg.Scanner.Workers, cfg.Scanner.QueueSize)
	svc.Queue = dispatcher

	runCtx, stopWorkers := context.WithCancel(ctx)
	dispatcher.Start(runCtx)

	// sweep pending rows: leftovers from a previous run at boot, then
	// periodically for jobs that hit a full queue
	recoveryInterval := time.Duration(cfg.Scanner.RecoverySeconds) * time.Second
	dispatcher.StartRecovery(runCtx, jobRepo, recoveryInterval)

	// init AI service kalau API key tersedia
	var aiSvc *appai.Service
	if cfg.AI.APIKey != "" {
		aiSvc = appai.NewService(openaiClient.NewClient(cfg.AI.APIKey, cfg.AI.Model), analysisRepo)
	}

	handler := httpserver.NewRouter(svc, aiSvc, httpserver.Config{
		APIKey:      cfg.Auth.APIKey,
		Tokens:      cfg.Auth.Tokens,
		CORSOrigins: cfg.Server.CORSOrigins,
		RateLimit:   cfg.Server.RateLimit,
		Health: map[string]middleware.HealthChecker{
			"database": &middleware.DatabaseHealthChecker{DB: db},
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	// stop pulling new jobs, let in-flight scans finish their transition
	stopWorkers()
	dispatcher.Wait()
}
