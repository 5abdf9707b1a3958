package cron

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/angelmondragon/stockroute-backend/pkg/logger"
)

type namedJob struct {
	name string
}

func (s *namedJob) Name() string              { return s.name }
func (s *namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsSweepOrder(t *testing.T) {
	source := &fakeBatchSource{batches: batchesFor(3)}
	alerter := &fakeExpiryAlerter{cutoff: time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)}
	expiry := newBatchExpiryJob(t, source, fakeSKUReader{}, alerter)
	retention := &namedJob{name: "outbox-retention"}

	registry, err := NewRegistry(expiry, retention)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got, want := registry.Names(), []string{"batch-expiry-sweep", "outbox-retention"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}

	jobs := registry.Jobs()
	if err := jobs[0].Run(logger.Nop().WithField(context.Background(), "sweep_job", jobs[0].Name())); err != nil {
		t.Fatalf("run batch expiry sweep: %v", err)
	}
	if len(alerter.seen) != 3 {
		t.Fatalf("expected the registered sweep to visit 3 batches, got %d", len(alerter.seen))
	}

	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryRejectsDuplicateAndNilSweeps(t *testing.T) {
	source := &fakeBatchSource{}
	first := newBatchExpiryJob(t, source, fakeSKUReader{}, &fakeExpiryAlerter{})
	second := newBatchExpiryJob(t, source, fakeSKUReader{}, &fakeExpiryAlerter{})

	if _, err := NewRegistry(first, second); err == nil {
		t.Fatal("expected duplicate batch-expiry-sweep to be rejected")
	}
	registry, err := NewRegistry()
	if err != nil {
		t.Fatalf("empty registry: %v", err)
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected nil sweep to be rejected")
	}
	if err := registry.Register(&namedJob{name: "  "}); err == nil {
		t.Fatal("expected blank name to be rejected")
	}
	if len(registry.Jobs()) != 0 {
		t.Fatalf("rejected sweeps must not be registered")
	}
}
