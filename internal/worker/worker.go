package worker

import (
	"context"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/cache"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// InvalidationWorker extends cache coherence across replicas: it consumes
// mutation events published by peers and applies their invalidation sets to
// this process's cache. Events from this instance are skipped because the
// coordinator already invalidated locally before the mutation returned.
type InvalidationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	cache        *cache.Cache
	redis        *redisclient.Client
	instanceID   string
	logger       *zap.Logger
}

func NewInvalidationWorker(consumer *broker.Consumer, c *cache.Cache, redis *redisclient.Client, instanceID string) *InvalidationWorker {
	w := &InvalidationWorker{
		consumer:   consumer,
		cache:      c,
		redis:      redis,
		instanceID: instanceID,
		logger:     util.NamedLogger("invalidation-worker"),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnMutation(w.handleMutation)
	w.eventHandler = eventHandler
	return w
}

func (w *InvalidationWorker) handleMutation(ctx context.Context, event *models.MutationEvent) error {
	if event.InstanceID == w.instanceID {
		util.InvalidationEventsTotal.WithLabelValues("self").Inc()
		return nil
	}

	first, err := w.redis.MarkEventSeen(ctx, event.EventID, time.Hour)
	if err != nil {
		// Marking stale twice is harmless, so apply anyway.
		w.logger.Warn("Event dedupe check failed, applying invalidation",
			zap.String("event_id", event.EventID),
			zap.Error(err))
	} else if !first {
		util.InvalidationEventsTotal.WithLabelValues("duplicate").Inc()
		return nil
	}

	tags := cache.FromRefs(event.Tags)
	w.cache.Invalidate(tags)
	util.InvalidationEventsTotal.WithLabelValues("applied").Inc()

	w.logger.Debug("Applied peer invalidation",
		zap.String("mutation", event.Mutation),
		zap.Int("tags", len(tags)))
	return nil
}

// Start starts the worker
func (w *InvalidationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting invalidation worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *InvalidationWorker) Stop() error {
	w.logger.Info("Stopping invalidation worker")
	return w.consumer.Close()
}
