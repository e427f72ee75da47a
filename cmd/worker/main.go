package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sameerbhagtani/rfid-school-system/internal/attendance"
	"github.com/sameerbhagtani/rfid-school-system/internal/config"
	"github.com/sameerbhagtani/rfid-school-system/internal/queue"
	"github.com/sameerbhagtani/rfid-school-system/internal/store"
)

// Worker consumes mark/reset messages and keeps the Redis analytics
// report cache warm so the scanner display reads fresh numbers right
// after a scan.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:marks")
	}

	repo := attendance.NewRepository(db.Client)
	svc := attendance.NewService(repo)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		switch msg.Type {
		case queue.TypeMark:
			studentID := string(msg.Body)
			report, err := svc.Analytics(ctx, studentID, time.Time{})
			if err != nil {
				log.Printf("analytics for %s failed: %v", studentID, err)
				continue
			}
			data, err := json.Marshal(report)
			if err != nil {
				log.Printf("marshal report for %s failed: %v", studentID, err)
				continue
			}
			if err := redisClient.SetReport(ctx, studentID, data, cfg.AnalyticsCacheTTL); err != nil {
				log.Printf("cache write for %s failed: %v", studentID, err)
				continue
			}
			log.Printf("warmed report cache for %s (streak %d)", studentID, report.Streak)

		case queue.TypeReset:
			removed, err := redisClient.PurgeReports(ctx)
			if err != nil {
				log.Printf("cache purge failed after %d keys: %v", removed, err)
				continue
			}
			log.Printf("day reset: purged %d cached reports", removed)
		}
	}

	log.Println("worker stopped")
}
