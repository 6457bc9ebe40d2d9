package sessionlog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"drivethru/internal/database"
	"drivethru/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(2 * time.Second)
	return c.t
}

func newTestRecorder(store Store) *Recorder {
	r := NewRecorder(store)
	clock := &stepClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	r.now = clock.now
	return r
}

func sampleOrder(t *testing.T) models.Order {
	t.Helper()
	order := models.NewOrder()
	require.NoError(t, order.Add(models.LineItem{Name: "Crunchy Taco", Quantity: 2, Price: 1.49, Confidence: 1}))
	return *order
}

func recordVisit(t *testing.T, r *Recorder, success bool) Conversation {
	t.Helper()
	r.Begin("Hey! Welcome to Taco Bell.")
	r.Record("two crunchy tacos", 1.0, "I've added 2 Crunchy Taco to your order.", "taking_order")
	r.Record("that's all", 0.9, "Is that correct?", "order_complete")
	conv, err := r.End(context.Background(), sampleOrder(t), success)
	require.NoError(t, err)
	return conv
}

func TestRecorder_SessionID(t *testing.T) {
	r := NewRecorder(nil)
	_, err := uuid.Parse(r.SessionID())
	assert.NoError(t, err)
	assert.NotEqual(t, r.SessionID(), NewRecorder(nil).SessionID())
}

func TestRecorder_Conversation(t *testing.T) {
	r := newTestRecorder(nil)
	conv := recordVisit(t, r, true)

	require.Len(t, conv.Turns, 3)
	assert.Equal(t, Turn{Agent: "Hey! Welcome to Taco Bell."}, conv.Turns[0])
	assert.Equal(t, "two crunchy tacos", conv.Turns[1].Customer)
	assert.Equal(t, "order_complete", conv.Turns[2].State)
	assert.Equal(t, 2, conv.TurnCount)
	assert.True(t, conv.Success)
	assert.Equal(t, 2.0, conv.DurationSeconds)

	require.NotNil(t, conv.FinalOrder)
	assert.InDelta(t, 2.98, conv.FinalOrder.Total, 1e-9)
	assert.InDelta(t, 2.98, conv.Total, 1e-9)
	assert.Len(t, r.Session().Conversations, 1)
}

func TestRecorder_FailedConversationHasNoOrder(t *testing.T) {
	r := newTestRecorder(nil)
	conv := recordVisit(t, r, false)

	assert.False(t, conv.Success)
	assert.Nil(t, conv.FinalOrder)
	assert.Zero(t, conv.Total)
}

func TestRecorder_RecordWithoutBegin(t *testing.T) {
	r := newTestRecorder(nil)
	r.Record("hi", 1.0, "Hello!", "taking_order")

	conv, err := r.End(context.Background(), models.Order{}, false)
	require.NoError(t, err)
	assert.Len(t, conv.Turns, 1)
	assert.Equal(t, 1, conv.TurnCount)
}

func TestJSONFileStore_RoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	store, err := NewJSONFileStore(dir)
	require.NoError(t, err)

	r := newTestRecorder(store)
	recordVisit(t, r, true)
	recordVisit(t, r, false)

	data, err := os.ReadFile(store.Path(r.SessionID()))
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, r.SessionID(), raw["session_id"])
	assert.Len(t, raw["conversations"], 2)

	loaded, err := store.Load(context.Background(), r.SessionID())
	require.NoError(t, err)
	require.Len(t, loaded.Conversations, 2)
	assert.Equal(t, "Crunchy Taco", loaded.Conversations[0].FinalOrder.Items[0].Name)
	assert.Nil(t, loaded.Conversations[1].FinalOrder)
}

func TestJSONFileStore_NotFound(t *testing.T) {
	store, err := NewJSONFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_RoundTrip(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewGormStore(db)
	require.NoError(t, err)

	r := newTestRecorder(store)
	recordVisit(t, r, true)
	recordVisit(t, r, false)

	loaded, err := store.Load(context.Background(), r.SessionID())
	require.NoError(t, err)
	assert.Equal(t, r.SessionID(), loaded.ID)
	require.Len(t, loaded.Conversations, 2)

	first := loaded.Conversations[0]
	assert.True(t, first.Success)
	assert.Equal(t, 2, first.TurnCount)
	require.Len(t, first.Turns, 3)
	assert.Equal(t, "that's all", first.Turns[2].Customer)
	require.NotNil(t, first.FinalOrder)
	assert.Equal(t, 2, first.FinalOrder.Items[0].Quantity)
	assert.Nil(t, loaded.Conversations[1].FinalOrder)

	var count int
	require.NoError(t, db.Model(&ConversationRecord{}).Unscoped().Count(&count).Error)
	assert.Equal(t, 2, count, "saving again replaces earlier rows")
}

func TestGormStore_NotFound(t *testing.T) {
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "sessions.db"), Tables()...)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := NewGormStore(db)
	require.NoError(t, err)

	_, err = store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDatabaseOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := database.Open("mysql", "dsn")
	assert.Error(t, err)

	_, err = database.Open(database.DriverSQLite, "")
	assert.Error(t, err)
}
