package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"campustrack/internal/config"
	"campustrack/internal/notify"
	"campustrack/internal/queue"
	"campustrack/internal/store"
)

// Worker drains the notification queue and delivers each message through
// the configured SMS channel. The API only enqueues; all carrier latency
// lives here.
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

	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory delivers inline in the API process; the worker needs redis")
	}

	redisClient := store.NewRedis(cfg.RedisAddr)
	q := queue.NewRedisQueue(redisClient.Client, "campustrack:notifications")

	var channel notify.Notifier
	if cfg.SMSBackend == "carrier" {
		log.Println("SMS channel: carrier gateway", cfg.SMSGatewayURL)
		channel = notify.NewCarrier(cfg.SMSGatewayURL, cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFromNumber, false)
	} else {
		log.Println("SMS channel: console simulator")
		channel = notify.NewConsole()
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	delivered, failed := 0, 0
	for msg := range messages {
		if notify.Deliver(ctx, channel, msg) {
			delivered++
		} else {
			failed++
			log.Printf("delivery failed for %s message", msg.Type)
		}
	}

	log.Printf("worker stopped: %d delivered, %d failed", delivered, failed)
}
