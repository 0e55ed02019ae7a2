package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Kerhoff/cookbook/internal/models"
	"github.com/Kerhoff/cookbook/pkg/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingListener struct {
	name string
	err  error

	mu     sync.Mutex
	events []models.Event
}

func (l *recordingListener) Name() string { return l.name }

func (l *recordingListener) Handle(_ context.Context, event models.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return l.err
}

func (l *recordingListener) received() []models.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Event(nil), l.events...)
}

type panickingListener struct{}

func (panickingListener) Name() string { return "panics" }

func (panickingListener) Handle(context.Context, models.Event) error { panic("boom") }

// blockingListener holds the worker until release is closed
type blockingListener struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (l *blockingListener) Name() string { return "blocking" }

func (l *blockingListener) Handle(context.Context, models.Event) error {
	l.once.Do(func() { close(l.started) })
	<-l.release
	return nil
}

func TestBusDeliversInOrder(t *testing.T) {
	rec := &recordingListener{name: "rec"}
	bus := NewBus(logger.Discard(), nil, 8, rec)

	groupID := uuid.New()
	bus.Publish(models.EventShoppingListCreated, groupID, nil, "first")
	bus.Publish(models.EventShoppingListUpdated, groupID, nil, "second")
	bus.Publish(models.EventShoppingListDeleted, groupID, nil, "third")
	bus.Close()

	events := rec.received()
	require.Len(t, events, 3)
	assert.Equal(t, "first", events[0].Message)
	assert.Equal(t, models.EventShoppingListDeleted, events[2].Type)
	assert.Equal(t, groupID, events[1].GroupID)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestBusListenerFailuresAreIsolated(t *testing.T) {
	metrics := NewMetrics(nil)
	failing := &recordingListener{name: "failing", err: errors.New("telegram down")}
	rec := &recordingListener{name: "rec"}
	bus := NewBus(logger.Discard(), metrics, 8, failing, panickingListener{}, rec)

	bus.Publish(models.EventLabelCreated, uuid.New(), nil, "")
	bus.Publish(models.EventLabelDeleted, uuid.New(), nil, "")
	bus.Close()

	assert.Len(t, rec.received(), 2)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Failed.WithLabelValues("failing")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Failed.WithLabelValues("panics")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Published.WithLabelValues(string(models.EventLabelCreated))))
}

func TestBusDropsWhenFull(t *testing.T) {
	metrics := NewMetrics(nil)
	blocker := &blockingListener{started: make(chan struct{}), release: make(chan struct{})}
	bus := NewBus(logger.Discard(), metrics, 1, blocker)

	bus.Publish(models.EventRecipeCreated, uuid.New(), nil, "")
	<-blocker.started

	bus.Publish(models.EventRecipeCreated, uuid.New(), nil, "")
	bus.Publish(models.EventRecipeCreated, uuid.New(), nil, "")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Dropped))

	close(blocker.release)
	bus.Close()
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Published.WithLabelValues(string(models.EventRecipeCreated))))
}

func TestBusPublishAfterClose(t *testing.T) {
	metrics := NewMetrics(nil)
	rec := &recordingListener{name: "rec"}
	bus := NewBus(logger.Discard(), metrics, 4, rec)
	bus.Close()
	bus.Close()

	bus.Publish(models.EventLabelUpdated, uuid.New(), nil, "")
	assert.Empty(t, rec.received())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Dropped))
}

func TestBusSubscribe(t *testing.T) {
	bus := NewBus(logger.Discard(), nil, 4)
	rec := &recordingListener{name: "late"}
	bus.Subscribe(rec)

	PublishItemEvents(bus, uuid.New(), &models.ShoppingListItemsCollection{
		CreatedItems: []models.ShoppingListItem{item(uuid.New()), item(uuid.New())},
	})
	bus.Close()

	assert.Len(t, rec.received(), 2)
}

func TestLogListener(t *testing.T) {
	l := NewLogListener(logger.Discard())
	assert.Equal(t, "log", l.Name())
	assert.NoError(t, l.Handle(context.Background(), models.Event{
		Type: models.EventShoppingListUpdated,
		Document: models.ShoppingListItemBulkEventData{
			Operation:      models.OperationCreate,
			ShoppingListID: uuid.New(),
		},
	}))
}
