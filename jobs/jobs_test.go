package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoamai/storefront/internal/checkout"
	jobmetrics "github.com/hoamai/storefront/internal/jobs"
	"github.com/hoamai/storefront/internal/notify"
	"github.com/hoamai/storefront/internal/shipping"
)

func sampleOrder() checkout.Order {
	return checkout.Order{
		ID:        "ord-1",
		Status:    checkout.StatusPending,
		Item:      checkout.Item{ProductID: "bo-hong", ProductTitle: "Bó hồng Ecuador", VariantName: "Lớn", SKU: "BH-001-L"},
		Purchaser: checkout.Person{Name: "Lan", Phone: "0901234567"},
		Recipient: checkout.Recipient{Name: "Mai", Phone: "0907654321", Address: "12 Lê Lợi"},
		Address:   shipping.Address{InCity: true, District: "Quận 1"},
		Delivery:  checkout.Delivery{Date: "2026-10-20", Session: "morning"},
		Pricing: checkout.Pricing{
			SalePrice:       500000,
			ShippingFee:     25000,
			CouponCode:      "GIAM10",
			DiscountPercent: 10,
			DiscountAmount:  50000,
			TotalPrice:      475000,
		},
		PaymentMethod: checkout.PaymentCOD,
		CreatedAt:     time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC),
	}
}

func TestNewOrderNotifyPayload(t *testing.T) {
	p := NewOrderNotifyPayload(sampleOrder())
	assert.Equal(t, "ord-1", p.OrderID)
	assert.Equal(t, "Bó hồng Ecuador", p.Product)
	assert.Equal(t, "2026-10-20 morning", p.Delivery)
	assert.Equal(t, "Quận 1", p.District)
	assert.Equal(t, int64(50000), p.Discount)
	assert.Equal(t, int64(475000), p.TotalPrice)
	assert.Equal(t, "cod", p.PaymentMethod)

	now := sampleOrder()
	now.Delivery = checkout.Delivery{DeliverNow: true}
	assert.Equal(t, "now", NewOrderNotifyPayload(now).Delivery)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	f.opts = append(f.opts, opts)
	return &asynq.TaskInfo{Queue: QueueCritical}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestClientNotifyOrderEnqueues(t *testing.T) {
	enq := &fakeEnqueuer{}
	client := &Client{client: enq}

	require.NoError(t, client.NotifyOrder(context.Background(), sampleOrder()))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskOrderNotify, enq.tasks[0].Type())

	var payload OrderNotifyPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "ord-1", payload.OrderID)

	var taskID string
	for _, opt := range enq.opts[0] {
		if opt.Type() == asynq.TaskIDOpt {
			taskID = opt.Value().(string)
		}
	}
	assert.Equal(t, "order-notify:ord-1", taskID)
}

func TestClientNotifyOrderIgnoresDuplicate(t *testing.T) {
	client := &Client{client: &fakeEnqueuer{err: asynq.ErrTaskIDConflict}}
	assert.NoError(t, client.NotifyOrder(context.Background(), sampleOrder()))

	broken := &Client{client: &fakeEnqueuer{err: errors.New("redis down")}}
	assert.Error(t, broken.NotifyOrder(context.Background(), sampleOrder()))
}

func notifyTask(t *testing.T) *asynq.Task {
	t.Helper()
	task, err := NewOrderNotifyTask(NewOrderNotifyPayload(sampleOrder()))
	require.NoError(t, err)
	return task
}

func TestOrderNotifyJobDelivers(t *testing.T) {
	var received OrderNotifyPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	metrics := jobmetrics.NewMetrics(prometheus.NewRegistry())
	job := NewOrderNotifyJob(notify.NewClient(srv.URL, time.Second), nil, metrics)

	require.NoError(t, job.Handle(context.Background(), notifyTask(t)))
	assert.Equal(t, "ord-1", received.OrderID)
	assert.Equal(t, int64(475000), received.TotalPrice)
}

func TestOrderNotifyJobSkipsRetryOnRejection(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	job := NewOrderNotifyJob(notify.NewClient(srv.URL, time.Second), nil, jobmetrics.NewMetrics(reg))
	err := job.Handle(context.Background(), notifyTask(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, int32(1), calls.Load())

	count, err := testutil.GatherAndCount(reg, "storefront_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOrderNotifyJobRetriesServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	job := NewOrderNotifyJob(notify.NewClient(srv.URL, time.Second), nil, nil)
	err := job.Handle(context.Background(), notifyTask(t))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestOrderNotifyJobWithoutWebhook(t *testing.T) {
	job := NewOrderNotifyJob(notify.NewClient("", 0), nil, nil)
	assert.NoError(t, job.Handle(context.Background(), notifyTask(t)))
}

func TestOrderNotifyJobBadPayload(t *testing.T) {
	job := NewOrderNotifyJob(notify.NewClient("http://example.invalid", 0), nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskOrderNotify, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type purger struct {
	got time.Duration
	err error
}

func (p *purger) Cleanup(_ context.Context, olderThan time.Duration) (int64, error) {
	p.got = olderThan
	return 3, p.err
}

func TestIdempotencyCleanupJob(t *testing.T) {
	store := &purger{}
	job := NewIdempotencyCleanupJob(store, nil, nil)

	task, err := NewIdempotencyCleanupTask(72 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 72*time.Hour, store.got)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	assert.Equal(t, defaultKeyRetention, store.got)

	store.err = errors.New("db down")
	assert.Error(t, job.Handle(context.Background(), task))
}

type stubInspector struct {
	infos map[string]*asynq.QueueInfo
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	info, ok := s.infos[queue]
	if !ok {
		return nil, errors.New("queue not found")
	}
	return info, nil
}

func TestHealthHandler(t *testing.T) {
	h := NewHandler(stubInspector{infos: map[string]*asynq.QueueInfo{
		QueueCritical: {Queue: QueueCritical, Pending: 2, Retry: 1},
	}}, nil)
	rec := httptest.NewRecorder()
	h.health(rec, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Queues []queueHealth `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Queues, 2)
	assert.Equal(t, queueHealth{Queue: QueueCritical, Pending: 2, Retry: 1, Available: true}, body.Queues[0])
	assert.Equal(t, queueHealth{Queue: QueueDefault}, body.Queues[1])
}
