package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/class_scheduler/internal/repository/base"
	"github.com/Freeeeeet/class_scheduler/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store - хранилище на PostgreSQL. Вне транзакции работает через пул,
// внутри InTx все репозитории привязаны к одной pgx.Tx.
type Store struct {
	*ClassRepository
	*AvailabilityRepository
	*RescheduleRepository
	*UserRepository

	pool *pgxpool.Pool
	inTx bool
}

var _ storage.Store = (*Store)(nil)

// NewStore создаёт хранилище поверх пула соединений
func NewStore(pool *pgxpool.Pool) *Store {
	return newStore(pool, pool, false)
}

func newStore(pool *pgxpool.Pool, db base.DBTX, inTx bool) *Store {
	return &Store{
		ClassRepository:        NewClassRepository(db),
		AvailabilityRepository: NewAvailabilityRepository(db),
		RescheduleRepository:   NewRescheduleRepository(db),
		UserRepository:         NewUserRepository(db),
		pool:                   pool,
		inTx:                   inTx,
	}
}

// InTx выполняет fn в транзакции READ COMMITTED.
// Гонки закрываются блокировками строк (FOR UPDATE) и уникальными индексами;
// конфликты конкурентных транзакций возвращаются как storage.ErrConflict.
func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	// Начинаем транзакцию
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(newStore(s.pool, tx, true)); err != nil {
		if base.IsConflict(err) && !errors.Is(err, storage.ErrConflict) {
			return fmt.Errorf("%w: %v", storage.ErrConflict, err)
		}
		return err
	}

	// Коммитим транзакцию
	if err := tx.Commit(ctx); err != nil {
		if base.IsConflict(err) {
			return fmt.Errorf("commit transaction: %w", storage.ErrConflict)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
