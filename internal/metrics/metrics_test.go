package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestParseHeaders(t *testing.T) {
	assert.Empty(t, parseHeaders(""))
	assert.Equal(t,
		map[string]string{"ingestion-key": "abc", "x": "y=z"},
		parseHeaders(" ingestion-key = abc ,x=y=z, broken"),
	)
}

func TestRecordDBQueryExportsCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewAppMetrics(provider.Meter("test"), "bazaar-test")
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordDBQuery(ctx, "SELECT", "shops", "SELECT 1", time.Now(), true)
	m.Add(ctx, m.ShopsCreated, attribute.String("category", "Grocery"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			names[md.Name] = true
		}
	}
	assert.True(t, names["db.client.queries.count"])
	assert.True(t, names["shops_created_total"])
}

func TestNewNoop(t *testing.T) {
	m := NewNoop()
	assert.NotPanics(t, func() {
		m.Add(context.Background(), m.CheckoutDispatches)
	})
}
