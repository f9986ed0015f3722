package services

import (
	"context"
	"sync"
	"time"

	"github.com/curiofm/curio-backend/internal/clients/notify"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/logger"
)

// NotificationDispatcher sends push notifications off the request path.
// Failures are logged and never reach the caller.
type NotificationDispatcher interface {
	Dispatch(n notify.Notification)
	// Wait blocks until in-flight sends finish; used on shutdown and in tests.
	Wait()
}

type notificationDispatcher struct {
	log     *logger.Logger
	client  notify.Client
	timeout time.Duration
	metrics *observability.Metrics
	wg      sync.WaitGroup
}

func NewNotificationDispatcher(log *logger.Logger, client notify.Client, timeout time.Duration, metrics *observability.Metrics) NotificationDispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &notificationDispatcher{
		log:     log.With("service", "NotificationDispatcher"),
		client:  client,
		timeout: timeout,
		metrics: metrics,
	}
}

func (d *notificationDispatcher) Dispatch(n notify.Notification) {
	if d == nil || d.client == nil || !d.client.Enabled() {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.client.Send(ctx, n); err != nil {
			d.metrics.IncNotification("failed")
			d.log.Warn("push notification failed", "notification_id", n.NotificationID, "target_fids", n.TargetFIDs, "error", err)
			return
		}
		d.metrics.IncNotification("sent")
	}()
}

func (d *notificationDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
