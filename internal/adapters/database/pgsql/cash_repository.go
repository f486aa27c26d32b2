package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hisabat/pos_backend/internal/core/domain"
	portsrepo "github.com/hisabat/pos_backend/internal/core/ports/repositories"
)

type PgxCashRepository struct {
	pool *pgxpool.Pool
}

// NewPgxCashRepository creates a new repository for drawer cash movements.
func NewPgxCashRepository(pool *pgxpool.Pool) portsrepo.CashRepositoryFacade {
	return &PgxCashRepository{pool: pool}
}

// SaveCashMovement inserts a movement and returns the store-assigned id.
func (r *PgxCashRepository) SaveCashMovement(ctx context.Context, movement domain.CashMovement) (int64, error) {
	query := `
		INSERT INTO cash_movements (cash_name, amount, movement_type, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING movement_id;
	`
	var movementID int64
	if err := r.pool.QueryRow(ctx, query,
		movement.CashName,
		movement.Amount,
		string(movement.Type),
	).Scan(&movementID); err != nil {
		return 0, fmt.Errorf("failed to save cash movement %s: %w", movement.CashName, err)
	}
	return movementID, nil
}
