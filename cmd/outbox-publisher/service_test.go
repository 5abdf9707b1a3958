package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/stockroute-backend/pkg/config"
	"github.com/angelmondragon/stockroute-backend/pkg/db/models"
	"github.com/angelmondragon/stockroute-backend/pkg/enums"
	"github.com/angelmondragon/stockroute-backend/pkg/logger"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockroute-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestServiceProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			{
				ID:            uuid.New(),
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateSKU,
				AggregateID:   uuid.New(),
				Payload:       mustEnvelopePayload(t, "event-one"),
			},
			{
				ID:            uuid.New(),
				EventType:     enums.EventStockAdjusted,
				AggregateType: enums.AggregateSKU,
				AggregateID:   uuid.New(),
				Payload:       mustEnvelopePayload(t, "event-two"),
			},
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "domain-topic",
			AggregateType: enums.AggregateSKU,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    uuid.NewString(),
			OccurredAt: time.Now(),
		},
		Payload: &payloads.StockAdjustedEvent{},
	}
	eventRegistry := &fakeRegistry{resolved: resolved}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, pub, eventRegistry, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.failed[0] != repo.events[0].ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if repo.published[0] != repo.events[1].ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestPublishResolvedRoutesToDescriptorTopic(t *testing.T) {
	pub := &fakePublisher{
		results: []publishResult{fakePublishResult{}},
	}
	tenantID := uuid.New()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		TenantID:      tenantID,
		EventType:     enums.EventAlertRaised,
		AggregateType: enums.AggregateAlert,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, "alert"),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "alerts-topic",
			AggregateType: enums.AggregateAlert,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    event.ID.String(),
			OccurredAt: time.Now(),
		},
		Payload: &payloads.AlertRaisedEvent{},
	}
	registry := &fakeRegistry{resolved: resolved}
	service := newTestService(t, repo, pub, registry, &fakeDLQRepo{}, nil)
	var topics []string
	service.publisherFactory = func(topic string) publisher {
		topics = append(topics, topic)
		return pub
	}

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(topics) != 1 || topics[0] != "alerts-topic" {
		t.Fatalf("expected alerts topic, got %v", topics)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected one message, got %d", len(pub.messages))
	}
	attrs := pub.messages[0].Attributes
	if attrs["event_type"] != string(enums.EventAlertRaised) {
		t.Fatalf("unexpected event_type attribute %q", attrs["event_type"])
	}
	if attrs["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute %q", attrs["aggregate_id"])
	}
	if len(repo.published) != 1 {
		t.Fatalf("expected published row recorded once, got %d", len(repo.published))
	}
}

func TestServiceProcessBatchWritesDLQOnUnroutable(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateSKU,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, "nonretryable"),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	registry := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, &fakePublisher{}, registry, dlqRepo, nil)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %s", entry.EventID)
	}
	if entry.TenantID != event.TenantID {
		t.Fatalf("dlq tenant_id mismatch: %s", entry.TenantID)
	}
	if entry.Payload == nil || !bytes.Equal(entry.Payload, event.Payload) {
		t.Fatalf("dlq payload mismatch")
	}
	if entry.ErrorReason != enums.OutboxDLQReasonUnroutable {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
}

func TestServiceProcessBatchWritesDLQWhenTopicHasNoPublisher(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		TenantID:      uuid.New(),
		EventType:     enums.EventDispatchOrderStateChanged,
		AggregateType: enums.AggregateDispatchOrder,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, "no-topic"),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "missing-topic"},
		Envelope:   outbox.PayloadEnvelope{Version: 1},
		Payload:    &payloads.DispatchOrderStateChangedEvent{},
	}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, &fakePublisher{}, &fakeRegistry{resolved: resolved}, dlqRepo, nil)
	service.publisherFactory = func(string) publisher { return nil }

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	if dlqRepo.entries[0].ErrorReason != enums.OutboxDLQReasonNonRetryable {
		t.Fatalf("unexpected error reason: %s", dlqRepo.entries[0].ErrorReason)
	}
	if len(repo.published) != 0 {
		t.Fatalf("row must not be marked published")
	}
}

func TestPublishResolvedOrdersByAggregateAndHoldsLaterRows(t *testing.T) {
	tenantID := uuid.New()
	skuID := uuid.New()
	otherSKU := uuid.New()
	events := []models.OutboxEvent{
		{
			ID:            uuid.New(),
			TenantID:      tenantID,
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateSKU,
			AggregateID:   skuID,
			Payload:       mustEnvelopePayload(t, "first"),
		},
		{
			ID:            uuid.New(),
			TenantID:      tenantID,
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateSKU,
			AggregateID:   skuID,
			Payload:       mustEnvelopePayload(t, "second"),
		},
		{
			ID:            uuid.New(),
			TenantID:      tenantID,
			EventType:     enums.EventStockAdjusted,
			AggregateType: enums.AggregateSKU,
			AggregateID:   otherSKU,
			Payload:       mustEnvelopePayload(t, "other"),
		},
	}
	repo := &fakeRepo{events: events}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("unavailable")},
			fakePublishResult{},
		},
	}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{Topic: "inventory-topic"},
		Envelope:   outbox.PayloadEnvelope{Version: 2},
		Payload:    &payloads.StockAdjustedEvent{},
	}
	service := newTestService(t, repo, pub, &fakeRegistry{resolved: resolved}, &fakeDLQRepo{}, nil)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	wantKey := tenantID.String() + "/" + string(enums.AggregateSKU) + "/" + skuID.String()
	otherKey := tenantID.String() + "/" + string(enums.AggregateSKU) + "/" + otherSKU.String()
	if len(pub.messages) != 2 {
		t.Fatalf("expected two messages, got %d", len(pub.messages))
	}
	if pub.messages[0].OrderingKey != wantKey || pub.messages[1].OrderingKey != otherKey {
		t.Fatalf("unexpected ordering keys %q, %q", pub.messages[0].OrderingKey, pub.messages[1].OrderingKey)
	}
	for i, msg := range pub.messages {
		if msg.Attributes["payload_version"] != "2" {
			t.Fatalf("message %d payload_version %q", i, msg.Attributes["payload_version"])
		}
	}
	if len(pub.resumed) != 1 || pub.resumed[0] != wantKey {
		t.Fatalf("expected one resume for %q, got %v", wantKey, pub.resumed)
	}
	if len(repo.failed) != 1 || repo.failed[0] != events[0].ID {
		t.Fatalf("expected first row marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != events[2].ID {
		t.Fatalf("expected only the other aggregate published, got %v", repo.published)
	}
}

func TestServiceProcessBatchWritesDLQOnMaxAttempts(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventStockAdjusted,
		AggregateType: enums.AggregateSKU,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelopePayload(t, "max-attempts"),
		AttemptCount:  1,
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
		},
	}
	resolved := &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			Topic:         "domain-topic",
			AggregateType: enums.AggregateSKU,
		},
		Envelope: outbox.PayloadEnvelope{
			EventID:    event.ID.String(),
			OccurredAt: time.Now(),
		},
		Payload: &payloads.StockAdjustedEvent{},
	}
	registry := &fakeRegistry{resolved: resolved}
	dlqRepo := &fakeDLQRepo{}
	service := newTestService(t, repo, pub, registry, dlqRepo, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(dlqRepo.entries); got != 1 {
		t.Fatalf("expected dlq entry, got %d", got)
	}
	entry := dlqRepo.entries[0]
	if entry.EventID != event.ID {
		t.Fatalf("dlq event_id mismatch: %s", entry.EventID)
	}
	if entry.ErrorReason != enums.OutboxDLQReasonMaxAttempts {
		t.Fatalf("unexpected error reason: %s", entry.ErrorReason)
	}
}

func newTestService(t *testing.T, repo outboxRepository, pub publisher, registry registryResolver, dlq dlqRepository, outboxCfgOverride *config.OutboxConfig) *Service {
	outboxCfg := config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}
	if outboxCfgOverride != nil {
		outboxCfg = *outboxCfgOverride
	}
	cfg := &config.Config{
		Outbox: outboxCfg,
	}
	logg := logger.New(logger.Options{
		ServiceName: "outbox-publisher-test",
		Output:      io.Discard,
	})
	service, err := NewService(ServiceParams{
		Config:           cfg,
		Logger:           logg,
		DB:               &fakeDB{},
		PubSub:           &fakePubSubClient{},
		Repository:       repo,
		Registry:         registry,
		PublisherFactory: func(_ string) publisher { return pub },
		DLQRepository:    dlq,
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func mustEnvelopePayload(tb testing.TB, eventID string) json.RawMessage {
	tb.Helper()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		tb.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeDB struct{}

func (f *fakeDB) Ping(context.Context) error {
	return nil
}

func (f *fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error {
	return fn(nil)
}

type fakePubSubClient struct{}

func (f *fakePubSubClient) Ping(context.Context) error {
	return nil
}

func (f *fakePubSubClient) DomainPublisher() *gcppubsub.Publisher {
	return nil
}

func (f *fakePubSubClient) Publisher(name string) *gcppubsub.Publisher {
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
	resumed  []string
}

func (f *fakePublisher) ResumePublish(orderingKey string) {
	f.resumed = append(f.resumed, orderingKey)
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	f.messages = append(f.messages, msg)
	if len(f.results) == 0 {
		return nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result
}

type fakePublishResult struct {
	err error
}

func (f fakePublishResult) Get(context.Context) (string, error) {
	return "", f.err
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.resolved == nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Descriptor.AggregateType = event.AggregateType
	resolved.Envelope.EventID = event.ID.String()
	resolved.Envelope.OccurredAt = time.Now()
	return &resolved, f.err
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
