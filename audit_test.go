package portalflow

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/manishturtle/portalflow/gateway/gatewaytest"
	"github.com/manishturtle/portalflow/session"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, AuditEvent) {
	s.count.Add(1)
}

func (s *countingSink) Count() int64 {
	return s.count.Load()
}

type captureSink struct {
	events chan AuditEvent
}

func newCaptureSink(buffer int) *captureSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &captureSink{
		events: make(chan AuditEvent, buffer),
	}
}

func (s *captureSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

type gateSink struct {
	gate chan struct{}
}

func newGateSink() *gateSink {
	return &gateSink{
		gate: make(chan struct{}),
	}
}

func (s *gateSink) Emit(context.Context, AuditEvent) {
	<-s.gate
}

func TestAuditDisabledNoSinkCalls(t *testing.T) {
	fg := gatewaytest.New()
	seedPasswordless(fg, "carol@example.com")

	cfg := DefaultConfig()
	cfg.Audit.Enabled = false

	sink := &countingSink{}
	f, err := New().
		WithConfig(cfg).
		WithGateway(fg).
		WithSessionStore(session.NewMemStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer f.Close()

	flowID := startFlow(t, f)
	if _, err := f.SubmitEmail(context.Background(), flowID, "carol@example.com"); err != nil {
		t.Fatalf("SubmitEmail failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	if sink.Count() != 0 {
		t.Fatalf("expected no audit sink calls when disabled, got %d", sink.Count())
	}
}

func TestAuditEnabledSinkReceivesEventWithFields(t *testing.T) {
	fg := gatewaytest.New()
	fg.Seed(gatewaytest.Account{
		Email:             "alice@example.com",
		Password:          "super-secret-password",
		AllowPortalAccess: true,
		HasPassword:       true,
		EmailVerified:     true,
	})

	cfg := DefaultConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 16
	cfg.Audit.DropIfFull = true

	sink := newCaptureSink(16)
	f, err := New().
		WithConfig(cfg).
		WithGateway(fg).
		WithSessionStore(session.NewMemStore()).
		WithAuditSink(sink).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer f.Close()

	ctx := WithTenantID(WithClientIP(context.Background(), "198.51.100.33"), "44")
	state, err := f.Start(ctx)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := f.SubmitEmail(ctx, state.FlowID, "alice@example.com"); err != nil {
		t.Fatalf("SubmitEmail failed: %v", err)
	}
	_, _ = f.SubmitPassword(ctx, state.FlowID, "wrong-password")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-sink.events:
			if ev.EventType == "" {
				t.Fatal("expected event type to be populated")
			}
			if ev.IP != "198.51.100.33" {
				t.Fatalf("expected IP 198.51.100.33, got %q", ev.IP)
			}
			if ev.TenantID != "44" {
				t.Fatalf("expected tenant 44, got %q", ev.TenantID)
			}
			if stringContains(ev.Error, "wrong-password") {
				t.Fatal("sensitive password leaked in error field")
			}
			for _, v := range ev.Metadata {
				if stringContains(v, "wrong-password") {
					t.Fatal("sensitive password leaked in metadata")
				}
			}
			if ev.EventType == "login.failure" {
				return
			}
		case <-deadline:
			t.Fatal("expected login.failure audit event")
		}
	}
}

func TestAuditBufferFullDropIfFullTrueDoesNotBlock(t *testing.T) {
	sink := newGateSink()
	metrics := NewMetrics(MetricsConfig{Enabled: true})
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: true,
	}, sink, metrics)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	start := time.Now()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking emit when DropIfFull is true")
	}
	if dispatcher.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
	if metrics.Value(MetricAuditDropped) != dispatcher.Dropped() {
		t.Fatalf("expected drop metric %d to match dropped counter %d",
			metrics.Value(MetricAuditDropped), dispatcher.Dropped())
	}
}

func TestAuditBufferFullDropIfFullFalseBlocksUntilSpace(t *testing.T) {
	sink := newGateSink()
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 1,
		DropIfFull: false,
	}, sink, nil)
	defer func() {
		close(sink.gate)
		dispatcher.Close()
	}()

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})

	done := make(chan struct{})
	go func() {
		dispatcher.Emit(context.Background(), AuditEvent{EventType: "e3"})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected emit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	sink.gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked emit to proceed after space is available")
	}
}

func TestAuditJSONWriterSinkWritesJSONLines(t *testing.T) {
	var buf syncBuffer
	sink := NewJSONWriterSink(&buf)
	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "login.success",
		FlowID:    "f1",
		TenantID:  "0",
		IP:        "127.0.0.1",
		Success:   true,
	}
	sink.Emit(context.Background(), event)

	if !buf.Contains("login.success") {
		t.Fatal("expected JSON log line to contain event type")
	}
	if !buf.Contains("\"flow_id\":\"f1\"") {
		t.Fatal("expected JSON log line to contain flow id")
	}
}

func TestAuditDispatcherCloseIdempotentAndEmitAfterCloseSafe(t *testing.T) {
	dispatcher := newAuditDispatcher(AuditConfig{
		Enabled:    true,
		BufferSize: 4,
		DropIfFull: true,
	}, &countingSink{}, nil)

	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e1"})
	dispatcher.Close()
	dispatcher.Close()
	dispatcher.Emit(context.Background(), AuditEvent{EventType: "e2"})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) Contains(v string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return stringContains(string(b.buf), v)
}

func stringContains(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	if len(sub) > len(s) {
		return false
	}
	for i := 0; i <= len(s)-len(sub); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
