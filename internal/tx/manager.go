package tx

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// Transactor runs fn inside a transaction boundary. The sql.Tx is nil for
// stores without transactions (in-memory).
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error
}

type Manager struct {
	DB *sql.DB
}

const maxRetries = 5

func (m *Manager) WithTx(
	ctx context.Context,
	fn func(ctx context.Context, tx *sql.Tx) error,
) error {

	for i := 0; i < maxRetries; i++ {

		tx, err := m.DB.BeginTx(ctx, &sql.TxOptions{
			Isolation: sql.LevelReadCommitted,
		})
		if err != nil {
			return err
		}

		err = fn(ctx, tx)
		if err != nil {
			tx.Rollback()
			if isSerializationError(err) {
				continue
			}
			return err
		}

		if err := tx.Commit(); err != nil {
			if isSerializationError(err) {
				continue
			}
			return err
		}

		return nil
	}

	return errors.New("transaction retry exhausted")
}

func isSerializationError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "could not serialize")
}

// Passthrough satisfies Transactor for repositories that manage their own
// locking. fn receives a nil tx.
type Passthrough struct{}

func (Passthrough) WithTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return fn(ctx, nil)
}
