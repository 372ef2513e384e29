package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditflow/internal/credit/models"
	"creditflow/internal/credit/store"
	id "creditflow/pkg/domain"
)

func TestWriter_Record(t *testing.T) {
	ctx := context.Background()

	t.Run("appends transition with metadata", func(t *testing.T) {
		transitions := store.NewInMemoryTransitionStore()
		metrics := NewMetrics(prometheus.NewRegistry())
		w := New(transitions, WithMetrics(metrics))

		requestID := id.NewCreditRequestID()
		from := id.NewStatusID()
		to := id.NewStatusID()

		record := w.Record(ctx, Entry{
			CreditRequestID: requestID,
			From:            &from,
			To:              to,
			TriggeredBy:     models.TriggerSystem,
			Reason:          "bank data requested",
			Metadata:        map[string]any{"provider": "buro_de_credito"},
		})
		require.NotNil(t, record)
		assert.False(t, record.ID.IsNil())

		stored, err := transitions.ListByCreditRequestID(ctx, requestID)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, record.ID, stored[0].ID)
		assert.Equal(t, &from, stored[0].FromStatusID)
		assert.Equal(t, "buro_de_credito", stored[0].Metadata["provider"])
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Written.WithLabelValues("system")))
	})

	t.Run("store failure is logged and swallowed", func(t *testing.T) {
		transitions := store.NewInMemoryTransitionStore()
		transitions.FailWith(errors.New("connection reset"))
		metrics := NewMetrics(prometheus.NewRegistry())

		var logs bytes.Buffer
		w := New(transitions,
			WithMetrics(metrics),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		)

		record := w.Record(ctx, Entry{
			CreditRequestID: id.NewCreditRequestID(),
			To:              id.NewStatusID(),
			TriggeredBy:     models.TriggerProvider,
		})
		assert.Nil(t, record)
		assert.Contains(t, logs.String(), "audit transition write failed")
		assert.Contains(t, logs.String(), "connection reset")
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WriteFailures))
	})
}
