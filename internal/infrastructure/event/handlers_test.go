package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/kouden/backend/internal/domain/kouden"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogHandler(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(nil)
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	ledger := uuid.New()
	actor := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	require.NoError(t, bus.Publish(context.Background(),
		kouden.NewReturnRecordsDeletedEvent(ledger, ids, actor)))

	entries := recorded.FilterMessage("return record audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, kouden.EventTypeReturnRecordsDeleted, fields["event_type"])
	assert.Equal(t, ledger.String(), fields["kouden_id"])
	assert.Equal(t, actor.String(), fields["actor"])
	assert.Equal(t, int64(3), fields["records"])
	assert.Contains(t, fields, "payload")
}

func TestAuditLogHandler_IgnoresForeignEvents(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	bus := NewInMemoryEventBus(nil)
	bus.Subscribe(NewAuditLogHandler(zap.New(core)))

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("SomethingElse", uuid.New())))
	assert.Zero(t, recorded.Len())
}

func sumByEventType(t *testing.T, rm metricdata.ResourceMetrics, name string) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value("event_type")
				out[v.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestMetricsHandler(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	handler, err := NewMetricsHandler(provider.Meter("test"))
	require.NoError(t, err)
	bus := NewInMemoryEventBus(nil)
	bus.Subscribe(handler)

	ctx := context.Background()
	ledger := uuid.New()
	entry := &kouden.GiftEntry{ID: uuid.New(), KoudenID: ledger}
	record, err := kouden.NewReturnEntryRecord(entry, uuid.New(), kouden.InitialFields{})
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, record.GetDomainEvents()...))
	require.NoError(t, bus.Publish(ctx,
		kouden.NewReturnRecordsBulkUpdatedEvent(ledger, []uuid.UUID{uuid.New(), uuid.New()}, []string{"remarks"}, uuid.New())))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	events := sumByEventType(t, rm, "kouden.return_record.events")
	assert.Equal(t, int64(1), events[kouden.EventTypeReturnRecordCreated])
	assert.Equal(t, int64(1), events[kouden.EventTypeReturnRecordsBulkUpdated])

	records := sumByEventType(t, rm, "kouden.return_record.records_changed")
	assert.Equal(t, int64(2), records[kouden.EventTypeReturnRecordsBulkUpdated])
}
