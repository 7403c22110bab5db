package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	landing "github.com/phbpx/landing"
)

type leadRow struct {
	ID             string    `db:"id"`
	Name           string    `db:"name"`
	WhatsApp       string    `db:"whatsapp"`
	Email          string    `db:"email"`
	RevenueBracket string    `db:"revenue_bracket"`
	CreatedAt      time.Time `db:"created_at"`
}

type LeadStore struct {
	db *sqlx.DB
}

func NewLeadStore(db *sqlx.DB) *LeadStore {
	return &LeadStore{
		db: db,
	}
}

// Insert writes lead as a new row. Errors reported by the server are
// wrapped with landing.ErrWriteRejected.
func (ls *LeadStore) Insert(ctx context.Context, lead landing.Lead) error {
	row := leadRow{
		ID:             uuid.NewString(),
		Name:           lead.Name,
		WhatsApp:       lead.WhatsApp,
		Email:          lead.Email,
		RevenueBracket: lead.RevenueBracket,
		CreatedAt:      time.Now().UTC(),
	}

	const query = `
	INSERT INTO aplicacoes_mentoria (
		id, name, whatsapp, email, revenue_bracket, created_at
	) VALUES (
		:id, :name, :whatsapp, :email, :revenue_bracket, :created_at
	)`

	if _, err := ls.db.NamedExecContext(ctx, query, row); err != nil {
		return insertErr(err)
	}

	return nil
}

// insertErr marks errors reported by the server as rejections. Anything
// else, such as a dropped connection, is wrapped as is.
func insertErr(err error) error {
	var pqerr *pq.Error
	if errors.As(err, &pqerr) {
		return fmt.Errorf("insert lead: %s: %w", pqerr.Code.Name(), landing.ErrWriteRejected)
	}
	return fmt.Errorf("insert lead: %w", err)
}
