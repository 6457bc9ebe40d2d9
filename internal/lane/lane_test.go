package lane

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivethru/internal/conversation"
	"drivethru/internal/intent"
	"drivethru/internal/menu"
	"drivethru/internal/models"
	"drivethru/internal/monitoring"
	"drivethru/internal/recovery"
	"drivethru/internal/sessionlog"
)

func newTestLane(t *testing.T, store sessionlog.Store, monitor *monitoring.Monitor) (*Lane, *sessionlog.Recorder) {
	t.Helper()
	engine, err := menu.NewEngine(context.Background(), menu.DefaultCatalog(), menu.Options{})
	require.NoError(t, err)

	manager, err := conversation.NewManager(conversation.Options{
		Menu:       engine,
		Classifier: intent.NewRuleClassifier(engine),
		Recovery: recovery.NewHandler(recovery.Options{
			Sleep: func(context.Context, time.Duration) error { return nil },
		}),
		Repair: recovery.NewRepairWithPicker(func(int) int { return 0 }),
	})
	require.NoError(t, err)

	recorder := sessionlog.NewRecorder(store)
	l, err := New(Options{Manager: manager, Recorder: recorder, Monitor: monitor})
	require.NoError(t, err)
	return l, recorder
}

func TestNewRequiresManager(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestTurnCompletesConversation(t *testing.T) {
	ctx := context.Background()
	store, err := sessionlog.NewJSONFileStore(t.TempDir())
	require.NoError(t, err)
	monitor := monitoring.NewMonitor()
	l, recorder := newTestLane(t, store, monitor)

	for _, text := range []string{"Hi", "I want two crunchy tacos", "That's all", "Yes"} {
		result := l.Turn(ctx, text, 1.0)
		assert.False(t, result.Complete, text)
	}

	result := l.Turn(ctx, "Thanks", 1.0)
	assert.True(t, result.Complete)
	assert.Equal(t, conversation.Goodbye, result.State)
	assert.Equal(t, models.OrderStatusPaid, result.Order.Status)
	assert.InDelta(t, 2.98, result.Order.Total, 1e-9)
	require.Len(t, result.Order.Items, 1)
	assert.Equal(t, "Crunchy Taco", result.Order.Items[0].Name)

	// the lane is ready for the next car
	assert.Empty(t, l.Order().Items)
	assert.Equal(t, conversation.Greeting, l.Diagnostics().State)

	saved, err := store.Load(ctx, recorder.SessionID())
	require.NoError(t, err)
	require.Len(t, saved.Conversations, 1)
	conv := saved.Conversations[0]
	assert.True(t, conv.Success)
	assert.Equal(t, 5, conv.TurnCount)
	assert.InDelta(t, 2.98, conv.Total, 1e-9)

	stats := monitor.Snapshot()
	assert.Equal(t, 1, stats.Conversations)
	assert.Equal(t, 1, stats.SuccessfulOrders)
}

func TestResetAbandonsConversation(t *testing.T) {
	ctx := context.Background()
	monitor := monitoring.NewMonitor()
	l, recorder := newTestLane(t, nil, monitor)

	l.Turn(ctx, "Hi", 1.0)
	l.Turn(ctx, "a bean burrito", 1.0)
	require.Len(t, l.Order().Items, 1)

	l.Reset(ctx)

	assert.Empty(t, l.Order().Items)
	session := recorder.Session()
	require.Len(t, session.Conversations, 1)
	assert.False(t, session.Conversations[0].Success)
	assert.Nil(t, session.Conversations[0].FinalOrder)
	assert.Equal(t, 0, monitor.Snapshot().SuccessfulOrders)

	// nothing open, so a second reset records nothing
	l.Reset(ctx)
	l.Close(ctx)
	assert.Len(t, recorder.Session().Conversations, 1)
}

func TestCloseFlushesOpenConversation(t *testing.T) {
	ctx := context.Background()
	l, recorder := newTestLane(t, nil, nil)

	l.Turn(ctx, "Hi", 1.0)
	l.Close(ctx)

	require.Len(t, recorder.Session().Conversations, 1)
	assert.Equal(t, recorder.SessionID(), l.SessionLogID())
}

func TestNewOrderViewEmpty(t *testing.T) {
	view := NewOrderView(*models.NewOrder())
	assert.NotNil(t, view.Items)
	assert.Zero(t, view.Total)
	assert.Equal(t, models.OrderStatusActive, view.Status)
}

func TestOpenRecordsGreeting(t *testing.T) {
	ctx := context.Background()
	l, recorder := newTestLane(t, nil, nil)
	assert.Empty(t, l.Open())

	l.greeter = func() string { return "Welcome to Taco Bell!" }
	assert.Equal(t, "Welcome to Taco Bell!", l.Open())

	// the greeting state takes an order directly
	result := l.Turn(ctx, "two crunchy tacos", 1.0)
	assert.Equal(t, conversation.TakingOrder, result.State)
	l.Close(ctx)

	session := recorder.Session()
	require.Len(t, session.Conversations, 1)
	turns := session.Conversations[0].Turns
	require.Len(t, turns, 2)
	assert.Equal(t, "Welcome to Taco Bell!", turns[0].Agent)
	assert.Empty(t, turns[0].Customer)
	assert.Equal(t, "two crunchy tacos", turns[1].Customer)
}

func TestTurnLimitEndsConversation(t *testing.T) {
	ctx := context.Background()
	monitor := monitoring.NewMonitor()
	l, recorder := newTestLane(t, nil, monitor)
	l.maxTurns = 3

	assert.False(t, l.Turn(ctx, "Hi", 1.0).Complete)
	assert.False(t, l.Turn(ctx, "a bean burrito", 1.0).Complete)
	result := l.Turn(ctx, "what do you have", 1.0)

	assert.True(t, result.Complete)
	assert.Contains(t, result.Response, TurnLimitMessage)
	assert.Empty(t, l.Order().Items)
	require.Len(t, recorder.Session().Conversations, 1)
	assert.False(t, recorder.Session().Conversations[0].Success)
	assert.Equal(t, 1, monitor.Snapshot().Conversations)

	// the counter starts over for the next car
	assert.False(t, l.Turn(ctx, "Hi", 1.0).Complete)
}
