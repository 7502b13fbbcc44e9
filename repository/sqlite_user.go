package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/akinalp/quickchat/database"
	"github.com/akinalp/quickchat/models"
	"github.com/akinalp/quickchat/pkg"
)

// sqliteUserRepo, UserRepository'nin SQLite implementasyonu.
type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo, yeni bir SQLite user repository oluşturur.
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

func (r *sqliteUserRepo) Create(ctx context.Context, username, passwordHash string, displayName, bio *string) (*models.User, error) {
	// lower(hex(randomblob(8))): 16 karakterlik rastgele hex ID
	query := `
		INSERT INTO users (id, username, display_name, bio, password_hash)
		VALUES (lower(hex(randomblob(8))), ?, ?, ?, ?)
		RETURNING id, created_at
	`

	user := &models.User{
		Username:    username,
		DisplayName: displayName,
		Bio:         bio,
	}

	err := r.db.QueryRowContext(ctx, query, username, displayName, bio, passwordHash).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, fmt.Errorf("username %q taken: %w", username, pkg.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = passwordHash
	return user, nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, username, display_name, bio, avatar_url, password_hash, created_at
		FROM users WHERE id = ?
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, display_name, bio, avatar_url, password_hash, created_at
		FROM users WHERE username = ? COLLATE NOCASE
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *sqliteUserRepo) GetAllExcept(ctx context.Context, userID string) ([]*models.User, error) {
	query := `
		SELECT id, username, display_name, bio, avatar_url, password_hash, created_at
		FROM users WHERE id != ?
		ORDER BY username
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	// nil yerine boş slice — JSON'da [] olarak serialize edilsin
	users := []*models.User{}
	for rows.Next() {
		user, err := r.scanUserRows(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *sqliteUserRepo) UpdateProfile(ctx context.Context, userID string, displayName, bio *string) (*models.User, error) {
	// Partial update: nil olan alan değiştirilmez (COALESCE değil,
	// alan bazlı SET listesi — nil "dokunma" demek, boş string "temizle")
	sets := []string{}
	args := []any{}

	if displayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, nullable(*displayName))
	}
	if bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, nullable(*bio))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, userID)
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = ?", strings.Join(sets, ", "))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, pkg.ErrNotFound
	}

	return r.GetByID(ctx, userID)
}

func (r *sqliteUserRepo) UpdateAvatar(ctx context.Context, userID, avatarURL string) (*models.User, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET avatar_url = ? WHERE id = ?", avatarURL, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update avatar: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, pkg.ErrNotFound
	}

	return r.GetByID(ctx, userID)
}

// scanUser, tek satırlık sorgu sonucunu User'a çevirir.
func (r *sqliteUserRepo) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var displayName, bio, avatarURL sql.NullString

	err := row.Scan(&user.ID, &user.Username, &displayName, &bio, &avatarURL,
		&user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	applyNullFields(user, displayName, bio, avatarURL)
	return user, nil
}

func (r *sqliteUserRepo) scanUserRows(rows *sql.Rows) (*models.User, error) {
	user := &models.User{}
	var displayName, bio, avatarURL sql.NullString

	err := rows.Scan(&user.ID, &user.Username, &displayName, &bio, &avatarURL,
		&user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	applyNullFields(user, displayName, bio, avatarURL)
	return user, nil
}

func applyNullFields(user *models.User, displayName, bio, avatarURL sql.NullString) {
	if displayName.Valid {
		user.DisplayName = &displayName.String
	}
	if bio.Valid {
		user.Bio = &bio.String
	}
	if avatarURL.Valid {
		user.AvatarURL = &avatarURL.String
	}
}

// nullable, boş string'i SQL NULL'a çevirir.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
