package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/chainfolio/foliogate/internal/model"
	"github.com/jmoiron/sqlx"
)

var ErrOrgNotFound = errors.New("organization not found")

type PostgresOrgRepo struct {
	db *sqlx.DB
}

func NewPostgresOrgRepo(db *sqlx.DB) *PostgresOrgRepo {
	repo := &PostgresOrgRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

type orgDB struct {
	ID            string `db:"id"`
	Name          string `db:"name"`
	ChainsJSON    []byte `db:"allowed_chains"`
	RateLimitJSON []byte `db:"rate_limit_config"`
}

func (r *PostgresOrgRepo) GetByID(ctx context.Context, id string) (*model.Organization, error) {
	var od orgDB
	query := `SELECT id, name, allowed_chains, rate_limit_config FROM organizations WHERE id = $1 LIMIT 1`

	err := r.db.GetContext(ctx, &od, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrgNotFound
		}
		return nil, err
	}

	org := &model.Organization{ID: od.ID, Name: od.Name}
	if len(od.ChainsJSON) > 0 {
		_ = json.Unmarshal(od.ChainsJSON, &org.AllowedChains)
	}
	if len(od.RateLimitJSON) > 0 {
		_ = json.Unmarshal(od.RateLimitJSON, &org.Rate)
	}
	return org, nil
}

func (r *PostgresOrgRepo) Upsert(ctx context.Context, org *model.Organization) error {
	if org == nil {
		return nil
	}
	chainsJSON, _ := json.Marshal(org.AllowedChains)
	rateJSON, _ := json.Marshal(org.Rate)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, allowed_chains, rate_limit_config)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			allowed_chains = EXCLUDED.allowed_chains,
			rate_limit_config = EXCLUDED.rate_limit_config
	`, org.ID, org.Name, chainsJSON, rateJSON)
	return err
}

func (r *PostgresOrgRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS organizations (
			id TEXT PRIMARY KEY,
			name TEXT,
			allowed_chains JSONB,
			rate_limit_config JSONB,
			created_at TIMESTAMPTZ DEFAULT now()
		)
	`)
	return err
}
