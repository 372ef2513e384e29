package notify_test

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks Publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/mock/gomock"

	"creditflow/internal/credit/models"
	"creditflow/internal/notify"
	"creditflow/internal/notify/mocks"
	id "creditflow/pkg/domain"
	"creditflow/pkg/platform/circuit"
)

func sampleUpdate() notify.LiveUpdate {
	tid := id.NewTransitionID()
	return notify.LiveUpdate{
		StatusChangeEvent: models.StatusChangeEvent{
			CreditRequestID: id.NewCreditRequestID(),
			ToStatusID:      id.NewStatusID(),
			StatusCode:      models.StatusApproved,
			StatusName:      "Approved",
		},
		TransitionID: &tid,
	}
}

func TestFanout_JoinsFailures(t *testing.T) {
	ctrl := gomock.NewController(t)
	ok := mocks.NewMockPublisher(ctrl)
	broken := mocks.NewMockPublisher(ctrl)
	update := sampleUpdate()

	ok.EXPECT().Publish(gomock.Any(), update).Return(nil)
	broken.EXPECT().Publish(gomock.Any(), update).Return(errors.New("boom"))

	err := notify.Fanout{broken, ok}.Publish(context.Background(), update)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestGuard_TracksCircuit(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockPublisher(ctrl)
	logs := &bytes.Buffer{}
	metrics := notify.NewMetrics(prometheus.NewRegistry())
	guard := notify.Guard("redis", next,
		notify.WithBreaker(circuit.New("redis", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))),
		notify.WithGuardLogger(slog.New(slog.NewTextHandler(logs, nil))),
		notify.WithGuardMetrics(metrics),
	)
	ctx := context.Background()

	next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("down")).Times(3)
	for range 3 {
		assert.Error(t, guard.Publish(ctx, sampleUpdate()))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.PublishFailures.WithLabelValues("redis")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CircuitState.WithLabelValues("redis")))
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("circuit opened")))
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("live update publish failed")), "failures while open are not logged")

	next.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, guard.Publish(ctx, sampleUpdate()))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.CircuitState.WithLabelValues("redis")))
	assert.Contains(t, logs.String(), "circuit closed")
}

type fakeRedis struct {
	channel string
	message []byte
	err     error
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func TestRedisLiveUpdates(t *testing.T) {
	client := &fakeRedis{}
	update := sampleUpdate()

	require.NoError(t, notify.NewRedisLiveUpdates(client, "credit-requests:status").Publish(context.Background(), update))
	assert.Equal(t, "credit-requests:status", client.channel)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(client.message, &decoded))
	assert.Equal(t, update.CreditRequestID.String(), decoded["creditRequestId"])
	assert.Equal(t, "APPROVED", decoded["statusCode"])
	assert.Equal(t, update.TransitionID.String(), decoded["transitionId"])

	client.err = errors.New("connection reset")
	err := notify.NewRedisLiveUpdates(client, "ch").Publish(context.Background(), update)
	assert.ErrorContains(t, err, "redis publish to ch")
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestKafkaLiveUpdates(t *testing.T) {
	producer := &fakeProducer{}
	update := sampleUpdate()

	require.NoError(t, notify.NewKafkaLiveUpdates(producer, "credit-request-status").Publish(context.Background(), update))
	require.Len(t, producer.records, 1)
	record := producer.records[0]
	assert.Equal(t, "credit-request-status", record.Topic)
	assert.Equal(t, update.CreditRequestID.String(), string(record.Key))
	assert.Equal(t, "APPROVED", string(record.Headers[0].Value))

	producer.err = errors.New("not leader")
	err := notify.NewKafkaLiveUpdates(producer, "t").Publish(context.Background(), update)
	assert.ErrorContains(t, err, "kafka produce to t")
}
