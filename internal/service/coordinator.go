package service

import (
	"context"
	"time"

	"storefront-service/internal/cache"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MutationPublisher publishes mutation events for peer replicas.
type MutationPublisher interface {
	PublishMutation(ctx context.Context, event *models.MutationEvent) error
}

// Coordinator sequences mutations against the entity cache. Each invocation
// dispatches exactly one network call; on success the invalidation set is
// applied to the cache before the call returns, so no reader can observe a
// confirmed mutation alongside fresh pre-mutation entries. On failure the
// cache is left untouched: the displayed state always reflects the last
// confirmed server truth, so there is nothing to roll back.
//
// Mutations are not serialized against each other; concurrent mutations on
// different items race independently, each with its own outcome.
type Coordinator struct {
	cache      *cache.Cache
	publisher  MutationPublisher
	instanceID string
	logger     *zap.Logger
}

func NewCoordinator(c *cache.Cache, publisher MutationPublisher, instanceID string) *Coordinator {
	return &Coordinator{
		cache:      c,
		publisher:  publisher,
		instanceID: instanceID,
		logger:     util.NamedLogger("coordinator"),
	}
}

// Run executes one mutation round trip. entityID scopes the invalidation for
// entity mutations; eventType names the event published for peer replicas.
func (co *Coordinator) Run(ctx context.Context, m cache.Mutation, entityID, eventType string, call func(context.Context) error) error {
	ctx, span := util.StartSpan(ctx, "Coordinator."+string(m))
	defer span.End()

	start := time.Now()
	err := call(ctx)
	util.MutationLatency.WithLabelValues(string(m)).Observe(time.Since(start).Seconds())

	if err != nil {
		util.MutationsTotal.WithLabelValues(string(m), "failed").Inc()
		co.logger.Warn("Mutation failed, cache left untouched",
			zap.String("mutation", string(m)),
			zap.Error(err))
		return err
	}

	tags := cache.InvalidationFor(m, entityID)
	co.cache.Invalidate(tags)
	util.MutationsTotal.WithLabelValues(string(m), "success").Inc()

	event := &models.MutationEvent{
		BaseEvent: models.BaseEvent{
			EventID:    uuid.New().String(),
			EventType:  eventType,
			InstanceID: co.instanceID,
			Timestamp:  time.Now(),
		},
		Mutation: string(m),
		Tags:     cache.Refs(tags),
	}
	if err := co.publisher.PublishMutation(ctx, event); err != nil {
		// Peer replicas fall behind until their entries age out; local
		// coherence is already guaranteed by the Invalidate above.
		co.logger.Error("Failed to publish mutation event", zap.Error(err))
	}
	return nil
}
