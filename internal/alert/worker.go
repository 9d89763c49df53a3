package alert

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"gorm.io/gorm"

	"station-billing-backend/internal/model"
)

// Sender defines the interface for sending a web push notification.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of Sender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Job identifies the station whose session expired.
type Job struct {
	StationID   int64
	StationName string
}

// WorkerPool fans expiry alerts out to subscribed browsers. Dispatch never
// blocks the session engine: a full queue drops the job with a log line, and
// every delivery failure is swallowed here.
type WorkerPool struct {
	size    int
	jobs    chan Job
	db      *gorm.DB
	webpush *webpush.Options
	sender  Sender
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, db *gorm.DB, webpushOptions *webpush.Options) *WorkerPool {
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*4),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("alert worker %d started", id)
	for {
		select {
		case job := <-wp.jobs:
			wp.sendAlertsForStation(ctx, job)
		case <-ctx.Done():
			log.Printf("alert worker %d shutting down", id)
			return
		}
	}
}

// SessionExpired queues an expiry alert for a station. Implements the session
// engine's notifier contract.
func (wp *WorkerPool) SessionExpired(stationID int64, stationName string) {
	select {
	case wp.jobs <- Job{StationID: stationID, StationName: stationName}:
	default:
		log.Printf("alert queue full, dropping expiry alert for station %d", stationID)
	}
}

// SessionStarted is the best-effort start cue. The audible cue plays in the
// UI layer; here it is only an operator log line.
func (wp *WorkerPool) SessionStarted(stationID int64, stationName string) {
	log.Printf("session started on %s (station %d)", stationName, stationID)
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan Job {
	return wp.jobs
}

// sendAlertsForStation fetches subscriptions and sends alerts for one station.
func (wp *WorkerPool) sendAlertsForStation(ctx context.Context, job Job) {
	var subscriptions []model.PushSubscription
	err := wp.db.WithContext(ctx).
		Joins("JOIN subscription_station_mapping ssm ON ssm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("ssm.station_id = ?", job.StationID).
		Find(&subscriptions).Error
	if err != nil {
		log.Printf("error fetching subscriptions for station %d: %v", job.StationID, err)
		return
	}

	if len(subscriptions) == 0 {
		return
	}

	label := job.StationName
	if label == "" {
		label = fmt.Sprintf("%d", job.StationID)
	}

	log.Printf("sending %d expiry alerts for station %d", len(subscriptions), job.StationID)
	message := fmt.Sprintf("Session on %s has reached its time limit", label)
	for _, sub := range subscriptions {
		wp.sendAlert(ctx, sub, []byte(message))
	}
}

// sendAlert sends a single web push notification.
func (wp *WorkerPool) sendAlert(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		log.Printf("error sending alert to %s: %v", sub.Endpoint, err)
		return
	}
	defer resp.Body.Close()

	// Handle expired subscriptions
	if resp.StatusCode == http.StatusGone {
		log.Printf("subscription for endpoint %s is expired, deleting", sub.Endpoint)
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			log.Printf("failed to delete expired subscription %s: %v", sub.Endpoint, err)
		}
	}
}
