package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"pokerhand/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS hands (
	id          UUID PRIMARY KEY,
	hand        JSONB NOT NULL,
	hand_type   TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS applications (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	gpa        DOUBLE PRECISION NOT NULL,
	background TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS applications_email_idx ON applications (lower(email));
`

type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &Postgres{db: db, now: time.Now}, nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, schema)
	return err
}

func (p *Postgres) Save(ctx context.Context, rec domain.HandRecord) (domain.HandRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = p.now().UTC()
	}

	hand, err := json.Marshal(rec.Hand)
	if err != nil {
		return domain.HandRecord{}, fmt.Errorf("encode hand: %w", err)
	}

	query := `
		INSERT INTO hands (id, hand, hand_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING
	`

	res, err := p.db.ExecContext(ctx, query,
		rec.ID,
		hand,
		rec.HandType,
		rec.Description,
		rec.CreatedAt,
	)
	if err != nil {
		return domain.HandRecord{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.HandRecord{}, err
	}
	if n == 0 {
		return rec, fmt.Errorf("hand %s: %w", rec.ID, domain.ErrDuplicate)
	}

	return rec, nil
}

func (p *Postgres) FindAll(ctx context.Context, limit, offset int) ([]domain.HandRecord, error) {
	query := `
		SELECT id, hand, hand_type, description, created_at
		FROM hands ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`

	rows, err := p.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.HandRecord
	for rows.Next() {
		var (
			rec  domain.HandRecord
			hand []byte
		)
		if err := rows.Scan(
			&rec.ID,
			&hand,
			&rec.HandType,
			&rec.Description,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(hand, &rec.Hand); err != nil {
			return nil, fmt.Errorf("decode hand %s: %w", rec.ID, err)
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (p *Postgres) Count(ctx context.Context) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hands`).Scan(&n)
	return n, err
}

func (p *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM hands`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (p *Postgres) SaveApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.CreatedAt.IsZero() {
		app.CreatedAt = p.now().UTC()
	}
	app.Email = strings.TrimSpace(app.Email)

	query := `
		INSERT INTO applications (id, name, email, gpa, background, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if _, err := p.db.ExecContext(ctx, query,
		app.ID,
		app.Name,
		app.Email,
		app.GPA,
		app.Background,
		app.CreatedAt,
	); err != nil {
		return domain.Application{}, err
	}

	return app, nil
}

func (p *Postgres) FindByEmail(ctx context.Context, email string) (*domain.Application, error) {
	query := `
		SELECT id, name, email, gpa, background, created_at
		FROM applications WHERE lower(email) = lower($1)
		ORDER BY created_at DESC LIMIT 1
	`

	var app domain.Application
	err := p.db.QueryRowContext(ctx, query, strings.TrimSpace(email)).Scan(
		&app.ID,
		&app.Name,
		&app.Email,
		&app.GPA,
		&app.Background,
		&app.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("application %s: %w", email, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return &app, nil
}

func (p *Postgres) FindByMinGPA(ctx context.Context, gpa float64) ([]domain.Application, error) {
	query := `
		SELECT id, name, email, gpa, background, created_at
		FROM applications WHERE gpa >= $1 ORDER BY gpa DESC, created_at ASC
	`

	rows, err := p.db.QueryContext(ctx, query, gpa)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []domain.Application
	for rows.Next() {
		var app domain.Application
		if err := rows.Scan(
			&app.ID,
			&app.Name,
			&app.Email,
			&app.GPA,
			&app.Background,
			&app.CreatedAt,
		); err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}

	return apps, rows.Err()
}

func (p *Postgres) DeleteAllApplications(ctx context.Context) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM applications`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
