package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"claimintake/internal/auth"
	"claimintake/internal/config"
	"claimintake/internal/handler"
	"claimintake/internal/inference"
	"claimintake/internal/inference/classifier"
	"claimintake/internal/inference/extractor"
	"claimintake/internal/intake"
	"claimintake/internal/port"
	"claimintake/internal/reconcile"
	"claimintake/internal/repository/postgres"
	"claimintake/internal/router"
	"claimintake/internal/service"
	s3storage "claimintake/internal/storage/s3"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	profiles, err := config.LoadProfiles(cfg.Intake.ProfilesPath)
	if err != nil {
		return fmt.Errorf("failed to load claim type profiles: %w", err)
	}

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	claimRepo := postgres.NewClaimRepo(db)
	var repository port.ClaimRepository = claimRepo

	// Initialize storage
	var storage port.ObjectStorage
	var storagePinger handler.Pinger
	if cfg.Intake.ArchiveArtifacts {
		s3Client, err := s3storage.NewClient(ctx, &cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		storage = s3Client
		storagePinger = s3Client
		repository = service.NewArchivingClaimRepository(claimRepo, s3Client, cfg.S3.Bucket)
	} else {
		log.Println("artifact archiving disabled")
	}

	// Initialize inference clients
	classifierClient := inference.NewRetryingClassifier(
		classifier.NewClient(&cfg.Classifier),
		inference.PolicyFromConfig(&cfg.Classifier),
	)
	extractorClient := inference.NewRetryingExtractor(
		extractor.NewClient(&cfg.Extractor, profiles),
		inference.PolicyFromConfig(&cfg.Extractor),
	)

	// Initialize services
	engine := reconcile.NewEngine(profiles, reconcile.Policy{ConfidenceFloor: cfg.Intake.ConfidenceFloor})
	intakeSvc := service.NewIntakeService(intake.Deps{
		Classifier:       classifierClient,
		Extractor:        extractorClient,
		Engine:           engine,
		Repository:       repository,
		MaxArtifactBytes: cfg.Intake.MaxArtifactBytes(),
	}, cfg.Intake.DraftTTL)
	if cfg.Intake.DraftTTL > 0 {
		go service.NewDraftSweeper(intakeSvc, cfg.Intake.SweepInterval()).Start(ctx)
	}
	claimSvc := service.NewClaimService(claimRepo, storage, cfg.S3.Bucket)

	// Initialize handlers
	intakeH := handler.NewIntakeHandler(intakeSvc, cfg.Intake.MaxArtifactBytes())
	claimH := handler.NewClaimHandler(claimSvc)
	profileH := handler.NewProfileHandler(profiles)
	healthH := handler.NewHealthHandler(db, storagePinger)

	// Setup router
	r := router.Setup(auth.NewVerifier(cfg.JWT), cfg.CORS.AllowedOrigins, intakeH, claimH, profileH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (%s)", cfg.Server.Port, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
