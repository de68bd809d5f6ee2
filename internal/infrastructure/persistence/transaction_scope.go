package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ScopeState is the lifecycle state of a TransactionScope
type ScopeState int

const (
	ScopeInactive ScopeState = iota
	ScopeActive
	ScopeCommitted
	ScopeRolledBack
)

// String returns the string representation of ScopeState
func (s ScopeState) String() string {
	switch s {
	case ScopeInactive:
		return "inactive"
	case ScopeActive:
		return "active"
	case ScopeCommitted:
		return "committed"
	case ScopeRolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// ErrScopeNotActive is returned when a statement is issued outside an active scope
var ErrScopeNotActive = shared.NewDomainError(shared.CodeInvalidState, "Transaction scope is not active")

// TransactionScope is a unit of work bound to one exclusive connection:
// inactive -> active -> committed | rolled_back.
//
// A scope is used by one goroutine at a time. Statements run in issue order
// on the same connection.
type TransactionScope struct {
	db     *gorm.DB
	tx     *gorm.DB
	ctx    context.Context
	state  ScopeState
	logger *zap.Logger
}

// NewTransactionScope creates an inactive scope over the given pool
func NewTransactionScope(db *gorm.DB, log *zap.Logger) *TransactionScope {
	if log == nil {
		log = zap.NewNop()
	}
	return &TransactionScope{db: db, state: ScopeInactive, logger: log.Named("tx")}
}

// State returns the current lifecycle state
func (s *TransactionScope) State() ScopeState {
	return s.state
}

// Begin acquires a connection and opens the transaction. Once begun, the
// scope runs to commit or rollback: cancellation of ctx does not abort it.
func (s *TransactionScope) Begin(ctx context.Context) error {
	if s.state != ScopeInactive {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot begin transaction scope in %s state", s.state))
	}

	s.ctx = context.WithoutCancel(ctx)
	tx := s.db.WithContext(s.ctx).Begin()
	if tx.Error != nil {
		// database/sql returns the connection to the pool when BeginTx fails
		return shared.WrapDomainError(shared.CodeInfrastructure, "failed to begin transaction", tx.Error)
	}

	s.tx = tx
	s.state = ScopeActive
	return nil
}

// DB returns the transaction handle for ORM-level operations
func (s *TransactionScope) DB() (*gorm.DB, error) {
	if s.state != ScopeActive {
		return nil, ErrScopeNotActive
	}
	return s.tx, nil
}

// StatementResult is what a statement run inside a scope produced
type StatementResult struct {
	Rows         []map[string]any
	RowsAffected int64
}

// Exec runs stmt on the scope's connection
func (s *TransactionScope) Exec(stmt Statement) (StatementResult, error) {
	if s.state != ScopeActive {
		return StatementResult{}, ErrScopeNotActive
	}

	start := time.Now()
	var result StatementResult
	var err error
	if stmt.Returning {
		var rows []map[string]any
		err = s.tx.Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error
		result.Rows = rows
		result.RowsAffected = int64(len(rows))
	} else {
		res := s.tx.Exec(stmt.SQL, stmt.Args...)
		err = res.Error
		result.RowsAffected = res.RowsAffected
	}

	logStatement(logger.Enrich(s.ctx, s.logger), stmt, start, result.RowsAffected, err)
	if err != nil {
		return StatementResult{}, shared.WrapDomainError(shared.CodeInfrastructure,
			fmt.Sprintf("statement %s failed", stmt.Name), err)
	}
	return result, nil
}

// Commit commits the transaction. The connection is released whether or not
// the commit itself succeeds.
func (s *TransactionScope) Commit() error {
	if s.state != ScopeActive {
		return ErrScopeNotActive
	}

	err := s.tx.Commit().Error
	s.tx = nil
	s.state = ScopeCommitted
	if err != nil {
		return shared.WrapDomainError(shared.CodeInfrastructure, "failed to commit transaction", err)
	}
	return nil
}

// Rollback aborts the transaction if one is open. It is a no-op when no
// connection is held, so it is safe to defer right after Begin. Rollback
// failures are logged, never returned, so they cannot mask the error that
// caused the rollback.
func (s *TransactionScope) Rollback() {
	if s.tx == nil {
		return
	}

	if s.state == ScopeActive {
		if err := s.tx.Rollback().Error; err != nil {
			logger.Enrich(s.ctx, s.logger).Error("rollback failed", zap.Error(err))
		}
		s.state = ScopeRolledBack
	}
	s.tx = nil
}

// InTransaction runs fn inside a new scope, committing when fn returns nil and
// rolling back otherwise.
func InTransaction(ctx context.Context, db *gorm.DB, log *zap.Logger, fn func(scope *TransactionScope) error) error {
	scope := NewTransactionScope(db, log)
	if err := scope.Begin(ctx); err != nil {
		return err
	}
	defer scope.Rollback()

	if err := fn(scope); err != nil {
		return err
	}
	return scope.Commit()
}

// RunResult is the combined outcome of RunAll
type RunResult struct {
	Success      bool
	Rows         []map[string]any
	RowsAffected int64
	// Failed names the statement that caused a rollback
	Failed string
	Err    error
}

// RunAll executes stmts in order inside one scope. On success it returns the
// rows of every returning statement and the total affected-row count; on the
// first failure it rolls back and reports which statement failed.
func RunAll(ctx context.Context, db *gorm.DB, log *zap.Logger, stmts []Statement) RunResult {
	var result RunResult
	err := InTransaction(ctx, db, log, func(scope *TransactionScope) error {
		for _, stmt := range stmts {
			res, err := scope.Exec(stmt)
			if err != nil {
				result.Failed = stmt.Name
				return err
			}
			result.Rows = append(result.Rows, res.Rows...)
			result.RowsAffected += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return RunResult{Failed: result.Failed, Err: err}
	}
	result.Success = true
	return result
}
