package chat

import (
	"context"

	"gorm.io/gorm"
)

// messageRow is the relational row (CHAT_STORE=sql). Seq records arrival order.
type messageRow struct {
	Seq        uint   `gorm:"primaryKey;autoIncrement"`
	ID         string `gorm:"column:message_id;type:varchar(64);uniqueIndex;not null"`
	Text       string `gorm:"type:text;not null"`
	Sender     string `gorm:"type:varchar(20);not null"`
	Timestamp  int64  `gorm:"not null"`
	Subject    string `gorm:"type:varchar(80)"`
	SubjectKey string `gorm:"type:varchar(80);index"`
	SenderID   string `gorm:"type:varchar(128)"`
	SenderName string `gorm:"type:varchar(200)"`
}

func (messageRow) TableName() string { return "community_messages" }

// Models returns the relational models owned by this package, for migration.
func Models() []interface{} {
	return []interface{}{&messageRow{}}
}

type gormStore struct {
	db *gorm.DB
}

// NewGORMStore keeps messages in the community_messages table.
func NewGORMStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Append(ctx context.Context, m *Message) error {
	row := messageRow{
		ID:         m.ID,
		Text:       m.Text,
		Sender:     m.Sender,
		Timestamp:  m.Timestamp,
		Subject:    m.Subject,
		SubjectKey: m.SubjectKey,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

// List returns messages in arrival order.
func (s *gormStore) List(ctx context.Context) ([]Message, error) {
	var rows []messageRow
	if err := s.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, Message{
			ID:         r.ID,
			Text:       r.Text,
			Sender:     r.Sender,
			Timestamp:  r.Timestamp,
			Subject:    r.Subject,
			SubjectKey: r.SubjectKey,
			SenderID:   r.SenderID,
			SenderName: r.SenderName,
		})
	}
	return out, nil
}
