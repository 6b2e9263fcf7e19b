package observability

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"

	"github.com/geocoder89/contactkeeper/internal/actorctx"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestObserveDB_CountsErrorsButNotMisses(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("contacts.get_by_id", func() error { return sql.ErrNoRows })
	_ = p.ObserveDB("users.create", func() error { return &pgconn.PgError{Code: "23505"} })
	_ = p.ObserveDB("contacts.list_by_owner", func() error { return errors.New("connection refused") })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("contacts.get_by_id", "unknown")); got != 0 {
		t.Fatalf("no-rows should not count as an error, got %v", got)
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.create", "unique_violation")); got != 1 {
		t.Fatalf("got %v unique violations, want 1", got)
	}
	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("contacts.list_by_owner", "connection")); got != 1 {
		t.Fatalf("got %v connection errors, want 1", got)
	}
}

func TestObserveCacheLookup(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.ObserveCacheLookup(true)
	p.ObserveCacheLookup(false)
	p.ObserveCacheLookup(false)

	if got := testutil.ToFloat64(p.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("got %v misses, want 2", got)
	}

	var nilProm *Prom
	nilProm.ObserveCacheLookup(true)
	nilProm.ObserveCacheError("get")
}

func TestLogger_AddsContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("expected trace_id on log record, got %v", rec["trace_id"])
	}

	buf.Reset()
	log.InfoContext(actorctx.WithUserID(context.Background(), "user-7"), "with user")

	rec = map[string]any{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if rec["user_id"] != "user-7" {
		t.Fatalf("expected user_id on log record, got %v", rec["user_id"])
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("no span in context, trace_id should be absent")
	}

	buf.Reset()
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logs should be filtered outside dev")
	}
}
