package sessionlog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jinzhu/gorm"
)

// JSONFileStore writes each session as an indented JSON document named
// session_<id>.json under Dir
type JSONFileStore struct {
	Dir string
}

// NewJSONFileStore creates the log directory if needed
func NewJSONFileStore(dir string) (*JSONFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &JSONFileStore{Dir: dir}, nil
}

// Path returns the file a session is written to
func (s *JSONFileStore) Path(id string) string {
	return filepath.Join(s.Dir, "session_"+id+".json")
}

// Save implements Store
func (s *JSONFileStore) Save(_ context.Context, session Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(s.Path(session.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write session log: %w", err)
	}
	return nil
}

// Load implements Store
func (s *JSONFileStore) Load(_ context.Context, id string) (Session, error) {
	data, err := os.ReadFile(s.Path(id))
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("failed to read session log: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, fmt.Errorf("failed to decode session log: %w", err)
	}
	return session, nil
}

// SessionRecord is the sessions table row
type SessionRecord struct {
	ID        string `gorm:"primary_key"`
	StartTime time.Time
}

// TableName sets the sessions table name
func (SessionRecord) TableName() string { return "sessions" }

// ConversationRecord is the conversations table row. Turns and the final
// order are stored as JSON text.
type ConversationRecord struct {
	gorm.Model
	SessionID  string `gorm:"index"`
	Position   int
	Timestamp  time.Time
	Success    bool
	Total      float64
	Duration   float64
	TurnCount  int
	Turns      string `gorm:"type:text"`
	FinalOrder string `gorm:"type:text"`
}

// TableName sets the conversations table name
func (ConversationRecord) TableName() string { return "conversations" }

// Tables lists the models GormStore needs migrated
func Tables() []interface{} {
	return []interface{}{&SessionRecord{}, &ConversationRecord{}}
}

// GormStore keeps sessions in a SQL database through gorm
type GormStore struct {
	db *gorm.DB
}

// NewGormStore migrates the session tables on db
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(Tables()...).Error; err != nil {
		return nil, fmt.Errorf("failed to migrate session tables: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Save implements Store. The session's conversations replace any stored
// ones.
func (s *GormStore) Save(ctx context.Context, session Session) error {
	records := make([]ConversationRecord, 0, len(session.Conversations))
	for i, conv := range session.Conversations {
		turns, err := json.Marshal(conv.Turns)
		if err != nil {
			return fmt.Errorf("failed to encode turns: %w", err)
		}
		order, err := json.Marshal(conv.FinalOrder)
		if err != nil {
			return fmt.Errorf("failed to encode final order: %w", err)
		}
		records = append(records, ConversationRecord{
			SessionID:  session.ID,
			Position:   i,
			Timestamp:  conv.Timestamp,
			Success:    conv.Success,
			Total:      conv.Total,
			Duration:   conv.DurationSeconds,
			TurnCount:  conv.TurnCount,
			Turns:      string(turns),
			FinalOrder: string(order),
		})
	}

	tx := s.db.BeginTx(ctx, nil)
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	if err := tx.Save(&SessionRecord{ID: session.ID, StartTime: session.StartTime}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := tx.Unscoped().Where("session_id = ?", session.ID).Delete(&ConversationRecord{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to replace conversations: %w", err)
	}
	for i := range records {
		if err := tx.Create(&records[i]).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to save conversation: %w", err)
		}
	}
	return tx.Commit().Error
}

// Load implements Store
func (s *GormStore) Load(_ context.Context, id string) (Session, error) {
	var rec SessionRecord
	if err := s.db.Where("id = ?", id).First(&rec).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	var rows []ConversationRecord
	if err := s.db.Where("session_id = ?", id).Order("position").Find(&rows).Error; err != nil {
		return Session{}, fmt.Errorf("failed to load conversations: %w", err)
	}

	session := Session{ID: rec.ID, StartTime: rec.StartTime, Conversations: make([]Conversation, 0, len(rows))}
	for _, row := range rows {
		conv := Conversation{
			Timestamp:       row.Timestamp,
			Success:         row.Success,
			Total:           row.Total,
			DurationSeconds: row.Duration,
			TurnCount:       row.TurnCount,
		}
		if err := json.Unmarshal([]byte(row.Turns), &conv.Turns); err != nil {
			return Session{}, fmt.Errorf("failed to decode turns: %w", err)
		}
		if err := json.Unmarshal([]byte(row.FinalOrder), &conv.FinalOrder); err != nil {
			return Session{}, fmt.Errorf("failed to decode final order: %w", err)
		}
		session.Conversations = append(session.Conversations, conv)
	}
	return session, nil
}
