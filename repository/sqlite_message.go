package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/akinalp/quickchat/database"
	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
)

// sqliteMessageRepo, MessageRepository'nin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db database.TxQuerier
}

// NewSQLiteMessageRepo, yeni bir SQLite message repository oluşturur.
func NewSQLiteMessageRepo(db database.TxQuerier) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

func (r *sqliteMessageRepo) Create(ctx context.Context, senderID, receiverID string, text, imageURL *string, seen bool, createdAt time.Time) (*models.Message, error) {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, text, image_url, seen, created_at)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		ImageURL:   imageURL,
		Seen:       seen,
		CreatedAt:  createdAt,
	}

	err := r.db.QueryRowContext(ctx, query,
		senderID, receiverID, text, imageURL, seen, createdAt).Scan(&msg.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return msg, nil
}

func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	query := `
		SELECT id, sender_id, receiver_id, text, image_url, seen, created_at
		FROM messages WHERE id = ?
	`
	return r.scanMessage(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteMessageRepo) History(ctx context.Context, userA, userB string) ([]*models.Message, error) {
	// Her iki yön tek sorguda; created_at eşitliğinde rowid tiebreak
	// (insert sırası) çift içi total order garantisi verir.
	query := `
		SELECT id, sender_id, receiver_id, text, image_url, seen, created_at
		FROM messages
		WHERE (sender_id = ? AND receiver_id = ?)
		   OR (sender_id = ? AND receiver_id = ?)
		ORDER BY created_at ASC, rowid ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userA, userB, userB, userA)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		msg, err := r.scanMessageRows(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func (r *sqliteMessageRepo) MarkSeen(ctx context.Context, messageID, receiverID string) (*models.Message, error) {
	// Tek UPDATE ile hem varlık hem alıcı kontrolü — etkilenen satır
	// yoksa ayrım için mesajı ayrıca okuruz.
	result, err := r.db.ExecContext(ctx,
		"UPDATE messages SET seen = 1 WHERE id = ? AND receiver_id = ?",
		messageID, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark message seen: %w", err)
	}

	if n, _ := result.RowsAffected(); n == 0 {
		msg, err := r.GetByID(ctx, messageID)
		if err != nil {
			return nil, err // ErrNotFound
		}
		if msg.ReceiverID != receiverID {
			return nil, pkg.ErrForbidden
		}
		// Zaten seen=1 idi — idempotent, mevcut halini dön
		return msg, nil
	}

	return r.GetByID(ctx, messageID)
}

func (r *sqliteMessageRepo) MarkAllSeenFrom(ctx context.Context, senderID, receiverID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE messages SET seen = 1 WHERE sender_id = ? AND receiver_id = ? AND seen = 0",
		senderID, receiverID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages seen: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

func (r *sqliteMessageRepo) CountUnseen(ctx context.Context, receiverID string) (map[string]int, error) {
	query := `
		SELECT sender_id, COUNT(*)
		FROM messages
		WHERE receiver_id = ? AND seen = 0
		GROUP BY sender_id
	`

	rows, err := r.db.QueryContext(ctx, query, receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unseen: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var senderID string
		var count int
		if err := rows.Scan(&senderID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan unseen count: %w", err)
		}
		counts[senderID] = count
	}

	return counts, rows.Err()
}

func (r *sqliteMessageRepo) scanMessage(row *sql.Row) (*models.Message, error) {
	msg := &models.Message{}
	var text, imageURL sql.NullString

	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &text, &imageURL,
		&msg.Seen, &msg.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	if text.Valid {
		msg.Text = &text.String
	}
	if imageURL.Valid {
		msg.ImageURL = &imageURL.String
	}
	return msg, nil
}

func (r *sqliteMessageRepo) scanMessageRows(rows *sql.Rows) (*models.Message, error) {
	msg := &models.Message{}
	var text, imageURL sql.NullString

	err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &text, &imageURL,
		&msg.Seen, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}

	if text.Valid {
		msg.Text = &text.String
	}
	if imageURL.Valid {
		msg.ImageURL = &imageURL.String
	}
	return msg, nil
}
