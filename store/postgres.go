package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"checkin-backend/models"
)

const pgUniqueViolation = "23505"

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	db *pgxpool.Pool
}

// Connect opens a pool against databaseURL and pings it.
func Connect(ctx context.Context, databaseURL string, maxConns int32) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("connected to database", "max_conns", cfg.MaxConns)
	return &Postgres{db: pool}, nil
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{db: pool}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *Postgres) Close() {
	p.db.Close()
}

func (p *Postgres) GetEvent(ctx context.Context, eventID int64) (*models.Event, error) {
	var event models.Event
	err := p.db.QueryRow(ctx, "SELECT id, name, created_at FROM events WHERE id = $1", eventID).
		Scan(&event.ID, &event.Name, &event.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d: %w", eventID, err)
	}
	return &event, nil
}

func (p *Postgres) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := p.db.Query(ctx, "SELECT id, name, created_at FROM events ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var event models.Event
		if err := rows.Scan(&event.ID, &event.Name, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (p *Postgres) LatestActiveCredential(ctx context.Context, eventID int64, now time.Time) (*models.Credential, error) {
	query := `
		SELECT id, event_id, token, issued_at, expires_at
		FROM event_credentials
		WHERE event_id = $1 AND expires_at > $2
		ORDER BY issued_at DESC
		LIMIT 1
	`

	var cred models.Credential
	err := p.db.QueryRow(ctx, query, eventID, now).Scan(
		&cred.ID,
		&cred.EventID,
		&cred.Value,
		&cred.IssuedAt,
		&cred.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest credential for event %d: %w", eventID, err)
	}
	return &cred, nil
}

func (p *Postgres) InsertCredential(ctx context.Context, cred *models.Credential) error {
	query := `
		INSERT INTO event_credentials (id, event_id, token, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := p.db.Exec(ctx, query, cred.ID, cred.EventID, cred.Value, cred.IssuedAt, cred.ExpiresAt)
	if isUniqueViolation(err) {
		return ErrDuplicateToken
	}
	if err != nil {
		return fmt.Errorf("insert credential for event %d: %w", cred.EventID, err)
	}
	return nil
}

func (p *Postgres) CredentialByToken(ctx context.Context, token string) (*models.Credential, error) {
	query := `
		SELECT id, event_id, token, issued_at, expires_at
		FROM event_credentials
		WHERE token = $1
	`

	var cred models.Credential
	err := p.db.QueryRow(ctx, query, token).Scan(
		&cred.ID,
		&cred.EventID,
		&cred.Value,
		&cred.IssuedAt,
		&cred.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("credential by token: %w", err)
	}
	return &cred, nil
}

func (p *Postgres) CheckinExists(ctx context.Context, userID string, eventID int64) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM checkins WHERE user_id = $1 AND event_id = $2)",
		userID, eventID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check existing check-in: %w", err)
	}
	return exists, nil
}

// InsertCheckin relies on the (user_id, event_id) unique constraint; a losing
// concurrent insert gets no row back from ON CONFLICT DO NOTHING.
func (p *Postgres) InsertCheckin(ctx context.Context, rec *models.CheckinRecord) error {
	query := `
		INSERT INTO checkins (id, user_id, event_id, checked_in_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING id
	`

	var id uuid.UUID
	err := p.db.QueryRow(ctx, query, rec.ID, rec.UserID, rec.EventID, rec.CheckedInAt).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) || isUniqueViolation(err) {
		return ErrDuplicateCheckin
	}
	if err != nil {
		return fmt.Errorf("insert check-in for event %d: %w", rec.EventID, err)
	}
	return nil
}

func (p *Postgres) CheckinHistory(ctx context.Context, userID string) ([]models.CheckinHistoryItem, error) {
	query := `
		SELECT c.event_id, COALESCE(e.name, 'Unknown Event'), c.checked_in_at
		FROM checkins c
		LEFT JOIN events e ON e.id = c.event_id
		WHERE c.user_id = $1
		ORDER BY c.checked_in_at DESC
	`

	rows, err := p.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("check-in history: %w", err)
	}
	defer rows.Close()

	var items []models.CheckinHistoryItem
	for rows.Next() {
		var item models.CheckinHistoryItem
		if err := rows.Scan(&item.EventID, &item.EventName, &item.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan check-in history: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (p *Postgres) EventCheckins(ctx context.Context, eventID int64) ([]models.CheckinRecord, error) {
	query := `
		SELECT id, user_id, event_id, checked_in_at
		FROM checkins
		WHERE event_id = $1
		ORDER BY checked_in_at DESC
	`

	rows, err := p.db.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("event check-ins: %w", err)
	}
	defer rows.Close()

	var records []models.CheckinRecord
	for rows.Next() {
		var rec models.CheckinRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.EventID, &rec.CheckedInAt); err != nil {
			return nil, fmt.Errorf("scan check-in: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
