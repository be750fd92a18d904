package bus

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testObserver struct {
	publishCount   int
	deliveredCount int
	lastErr        error
}

func (o *testObserver) OnPublish(_ string, _ Event) {
	o.publishCount++
}

func (o *testObserver) OnDelivered(_ string, handlers int, err error, _ int64) {
	o.deliveredCount += handlers
	o.lastErr = err
}

func TestBasicPublishSubscribe(t *testing.T) {
	b := New()
	var got []any
	_, err := b.Subscribe("slide.navigated", func(e Event) error {
		got = append(got, e.Data())
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, b.Publish(NewEvent("slide.navigated", "tester", "intro")))
	require.NoError(t, b.Publish(NewEvent("slide.settled", "tester", "ignored")))
	assert.Equal(t, []any{"intro"}, got)
}

func TestDeliveryFollowsSubscriptionOrder(t *testing.T) {
	b := New()
	var order []int
	for i := 0; i < 5; i++ {
		_, err := b.Subscribe("e", func(Event) error { order = append(order, i); return nil })
		require.NoError(t, err)
	}
	require.NoError(t, b.Publish(NewEvent("e", "src", nil)))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestUnsubscribe(t *testing.T) {
	b := New()
	calls := 0
	sub, err := b.Subscribe("e", func(Event) error { calls++; return nil })
	require.NoError(t, err)
	assert.True(t, sub.IsActive())
	assert.NotEmpty(t, sub.ID())
	assert.Equal(t, "e", sub.EventType())

	require.NoError(t, b.Unsubscribe(sub))
	require.NoError(t, sub.Cancel())
	assert.False(t, sub.IsActive())
	require.NoError(t, b.Publish(NewEvent("e", "src", nil)))
	assert.Equal(t, 0, calls)

	assert.NoError(t, b.Unsubscribe(nil))
}

func TestHandlerErrorsAreJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	_, _ = b.Subscribe("e", func(Event) error { return errA })
	_, _ = b.Subscribe("e", func(Event) error { return errB })

	err := b.Publish(NewEvent("e", "src", nil))
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestInvalidArguments(t *testing.T) {
	b := New()
	_, err := b.Subscribe("e", nil)
	assert.ErrorIs(t, err, ErrNilHandler)
	assert.ErrorIs(t, b.Publish(nil), ErrNilEvent)
}

func TestMetricsAndObservers(t *testing.T) {
	b := New()
	_, _ = b.Subscribe("e", func(Event) error { return nil })
	_, _ = b.Subscribe("f", func(Event) error { return errors.New("boom") })

	require.NoError(t, b.Publish(NewEvent("e", "s", nil)))
	m := b.GetMetrics()
	assert.Equal(t, uint64(1), m.Published)
	assert.Equal(t, uint64(1), m.DeliveredHandlers)
	assert.Equal(t, uint64(2), m.SubscribersActive)

	obs := &testObserver{}
	b.AddObserver(obs)
	assert.Error(t, b.Publish(NewEvent("f", "s", nil)))
	m = b.GetMetrics()
	assert.Equal(t, uint64(2), m.Published)
	assert.Equal(t, uint64(1), m.Errors)
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, 1, obs.deliveredCount)
	assert.EqualError(t, obs.lastErr, "boom")

	b.RemoveObserver(obs)
	require.NoError(t, b.Publish(NewEvent("e", "s", nil)))
	assert.Equal(t, 1, obs.publishCount)
	assert.Equal(t, uint64(3), b.GetMetrics().Published)
}
