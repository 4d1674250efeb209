package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dosetrack/dosetrack/internal/config"
	"github.com/dosetrack/dosetrack/internal/database"
	"github.com/dosetrack/dosetrack/internal/logger"
	"github.com/dosetrack/dosetrack/internal/middleware"
	"github.com/dosetrack/dosetrack/internal/queue"
	"github.com/dosetrack/dosetrack/internal/workers"
	"go.uber.org/zap"
)

// reminderScheduleInterval is how often the scheduler re-enqueues the next
// morning/evening reminder scans. Half a day keeps exactly one upcoming pair
// scheduled per user; the jobs' NotAfter expiry drops any stale duplicates.
const reminderScheduleInterval = 12 * time.Hour

func main() {
	// Parse command-line flags
	debugFlag := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override debug mode if flag is set
	debugMode := cfg.WorkerDebugMode || *debugFlag

	// Initialize logger
	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		if syncErr := zapLogger.Sync(); syncErr != nil {
			// Ignore sync errors in production
			_ = syncErr
		}
	}()

	zapLogger.Info("Starting worker",
		zap.Bool("debug_mode", debugMode),
		zap.Int("summary_window_days", cfg.SummaryWindowDays),
	)

	// Initialize database connection
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Warn("Failed to close database connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to database")

	// Initialize repositories
	medicationRepo := database.NewMedicationRepository(db)
	doseLogRepo := database.NewDoseLogRepository(db)
	snapshotRepo := database.NewAdherenceSnapshotRepository(db)
	activityRepo := database.NewUserActivityRepository(db)

	// Initialize RabbitMQ queue
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("Failed to close RabbitMQ connection", zap.Error(err))
		}
	}()

	zapLogger.Info("Connected to RabbitMQ",
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Snapshot worker owns the processor registry; the reminder scanner
	// registers its own job type into it
	snapshotWorker := workers.NewSnapshotWorker(
		medicationRepo,
		doseLogRepo,
		snapshotRepo,
		cfg.SummaryWindowDays,
		zapLogger,
	)
	scanner := workers.NewReminderScanner(medicationRepo, activityRepo, zapLogger)
	snapshotWorker.RegisterProcessor(queue.JobTypeReminderScan, scanner.ProcessReminderScanJob)

	scheduler := workers.NewReminderScheduler(jobQueue, activityRepo, zapLogger)
	activityTracker := middleware.NewActivityTracker(activityRepo)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start consuming messages
	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("Failed to start consuming messages", zap.Error(err))
	}

	zapLogger.Info("Worker started, consuming messages from queue")

	// Process messages
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("Message channel closed")
					return
				}

				if err := snapshotWorker.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("Failed to process job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	// Handle errors
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("Queue error", zap.Error(err))
			}
		}
	}()

	// Schedule morning/evening reminder scans, now and twice a day
	go func() {
		if err := scheduler.ScheduleReminderScans(ctx); err != nil {
			zapLogger.Error("Failed to schedule reminder scans", zap.Error(err))
		}

		ticker := time.NewTicker(reminderScheduleInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := scheduler.ScheduleReminderScans(ctx); err != nil {
					zapLogger.Error("Failed to schedule reminder scans", zap.Error(err))
				}
			}
		}
	}()

	// Pause reminders for users who have gone inactive
	go activityTracker.Start(ctx)

	// Purge old dead-lettered messages
	dlqGC := queue.NewGarbageCollector(jobQueue, 1*time.Hour, 24*time.Hour)
	go func() {
		if err := dlqGC.Start(ctx); err != nil && err != context.Canceled {
			zapLogger.Error("DLQ garbage collector stopped with error", zap.Error(err))
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	zapLogger.Info("Shutdown signal received, stopping worker...")

	// Cancel context to stop processing
	cancel()

	zapLogger.Info("Worker stopped")
}
