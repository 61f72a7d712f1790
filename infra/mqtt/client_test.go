package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kverlo/fieldday/core/jobs"
	"github.com/kverlo/fieldday/internal/eventbus"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type fakePaho struct {
	published [][]byte
	topics    []string
	failures  int // next n publishes fail
}

func (f *fakePaho) IsConnected() bool       { return true }
func (f *fakePaho) Connect() paho.Token     { return fakeToken{} }
func (f *fakePaho) Disconnect(quiesce uint) {}

func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	if f.failures > 0 {
		f.failures--
		return fakeToken{err: errors.New("broker unavailable")}
	}
	f.published = append(f.published, payload.([]byte))
	f.topics = append(f.topics, topic)
	return fakeToken{}
}

func (f *fakePaho) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	return fakeToken{}
}

type fakeMessage struct{ payload []byte }

func (fakeMessage) Duplicate() bool   { return false }
func (fakeMessage) Qos() byte         { return 0 }
func (fakeMessage) Retained() bool    { return false }
func (fakeMessage) Topic() string     { return "fieldday/jobs/status/x" }
func (fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte { return m.payload }
func (fakeMessage) Ack()              {}

func newTestClient(t *testing.T, fake *fakePaho, bus *eventbus.JobStatusBus) *JobClient {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(opts *paho.ClientOptions) pahoClient { return fake }
	t.Cleanup(func() { newMQTTClient = orig })

	c, err := NewJobClient(Config{Broker: "tcp://localhost:1883", BackoffMS: 1}, bus)
	require.NoError(t, err)
	return c
}

func TestSubmitPublishesRequest(t *testing.T) {
	fake := &fakePaho{}
	c := newTestClient(t, fake, eventbus.NewJobStatus())

	routeID := uuid.New()
	id, err := c.Submit(context.Background(), jobs.Request{Kind: jobs.KindRecalculate, RouteID: routeID})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	require.Len(t, fake.published, 1)
	assert.Equal(t, "fieldday/jobs/submit", fake.topics[0])

	var req jobs.Request
	require.NoError(t, json.Unmarshal(fake.published[0], &req))
	assert.Equal(t, jobs.KindRecalculate, req.Kind)
	assert.Equal(t, routeID, req.RouteID)
	assert.Equal(t, id, req.ID)
}

func TestSubmitRetriesTransientFailures(t *testing.T) {
	fake := &fakePaho{failures: 2}
	c := newTestClient(t, fake, eventbus.NewJobStatus())

	_, err := c.Submit(context.Background(), jobs.Request{Kind: jobs.KindExport})
	require.NoError(t, err)
	require.Len(t, fake.published, 1)
}

func TestSubmitExhaustsRetries(t *testing.T) {
	fake := &fakePaho{failures: 10}
	c := newTestClient(t, fake, eventbus.NewJobStatus())

	_, err := c.Submit(context.Background(), jobs.Request{Kind: jobs.KindImport})
	require.Error(t, err)
}

func TestSubmitHonorsContext(t *testing.T) {
	fake := &fakePaho{failures: 10}
	c := newTestClient(t, fake, eventbus.NewJobStatus())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Submit(ctx, jobs.Request{Kind: jobs.KindGeocode})
	assert.ErrorIs(t, err, jobs.ErrSubmitTimeout)
}

func TestStatusFansOutOnBus(t *testing.T) {
	bus := eventbus.NewJobStatus()
	c := newTestClient(t, &fakePaho{}, bus)
	sub := bus.Subscribe()

	ev := jobs.StatusEvent{JobID: uuid.New(), Kind: jobs.KindRecalculate, State: jobs.StateCompleted}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	c.onStatus(nil, fakeMessage{payload: payload})

	select {
	case got := <-sub:
		assert.Equal(t, ev.JobID, got.JobID)
		assert.True(t, got.State.Terminal())
	case <-time.After(time.Second):
		t.Fatalf("no status event on bus")
	}
}

func TestStatusIgnoresMalformedPayload(t *testing.T) {
	bus := eventbus.NewJobStatus()
	c := newTestClient(t, &fakePaho{}, bus)
	sub := bus.Subscribe()

	c.onStatus(nil, fakeMessage{payload: []byte("not json")})

	select {
	case ev := <-sub:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}
