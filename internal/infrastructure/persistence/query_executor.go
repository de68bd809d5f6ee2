package persistence

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/agrocert/backend/internal/domain/shared"
	"github.com/agrocert/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// maxLoggedSQL bounds the statement text written to logs
const maxLoggedSQL = 120

// Statement is a named, parameterised SQL statement. Values are always bound
// through Args; SQL text never contains caller data.
type Statement struct {
	Name string
	SQL  string
	Args []any
	// Returning marks statements that yield rows (SELECT, INSERT ... RETURNING)
	Returning bool
}

// NewStatement creates a Statement
func NewStatement(name, sql string, args ...any) Statement {
	return Statement{Name: name, SQL: sql, Args: args}
}

// WithReturning marks the statement as producing rows
func (s Statement) WithReturning() Statement {
	s.Returning = true
	return s
}

// WriteResult reports the outcome of a write. Failures are carried in Err
// instead of being returned separately so callers can branch on Success.
type WriteResult struct {
	Success      bool
	Rows         []map[string]any
	RowsAffected int64
	Err          error
}

// Page is one page of a paginated read
type Page[T any] struct {
	Rows  []T
	Total int64
	Page  int
	Limit int
}

// QueryExecutor runs parameterised statements against the connection pool.
// Reads borrow a pooled connection per call; writes run on a dedicated
// connection that is released when the call returns, whatever the outcome.
type QueryExecutor struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewQueryExecutor creates a new QueryExecutor
func NewQueryExecutor(db *gorm.DB, log *zap.Logger) *QueryExecutor {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryExecutor{db: db, logger: log.Named("query")}
}

// DB returns the underlying pool
func (q *QueryExecutor) DB() *gorm.DB {
	return q.db
}

// Read runs a SELECT and scans every row into T
func Read[T any](ctx context.Context, q *QueryExecutor, stmt Statement) ([]T, error) {
	start := time.Now()
	var rows []T
	err := q.db.WithContext(ctx).Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error
	q.log(ctx, stmt, start, int64(len(rows)), err)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInfrastructure, fmt.Sprintf("query %s failed", stmt.Name), err)
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

// ReadOne runs a SELECT and returns the first row, or nil when there is none
func ReadOne[T any](ctx context.Context, q *QueryExecutor, stmt Statement) (*T, error) {
	rows, err := Read[T](ctx, q, stmt)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// ReadPaginated runs stmt with orderBy and LIMIT/OFFSET for the requested
// page and, in parallel, a count over the unpaginated, unordered statement.
func ReadPaginated[T any](ctx context.Context, q *QueryExecutor, stmt Statement, page, limit int, orderBy string) (Page[T], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	paged := Statement{
		Name: stmt.Name,
		SQL:  stmt.SQL + orderBy + " LIMIT ? OFFSET ?",
		Args: append(append([]any{}, stmt.Args...), limit, offset),
	}
	count := Statement{
		Name: stmt.Name + ".count",
		SQL:  "SELECT COUNT(*) FROM (" + stmt.SQL + ") AS counted",
		Args: stmt.Args,
	}

	var (
		rows  []T
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = Read[T](gctx, q, paged)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		err := q.db.WithContext(gctx).Raw(count.SQL, count.Args...).Scan(&total).Error
		q.log(gctx, count, start, 1, err)
		if err != nil {
			return shared.WrapDomainError(shared.CodeInfrastructure, fmt.Sprintf("query %s failed", count.Name), err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Page[T]{}, err
	}

	return Page[T]{Rows: rows, Total: total, Page: page, Limit: limit}, nil
}

// Write executes stmt on a dedicated connection. It never returns an error
// directly; the outcome is reported in the WriteResult.
func (q *QueryExecutor) Write(ctx context.Context, stmt Statement) WriteResult {
	start := time.Now()
	var result WriteResult

	err := q.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		if stmt.Returning {
			var rows []map[string]any
			if err := conn.Raw(stmt.SQL, stmt.Args...).Scan(&rows).Error; err != nil {
				return err
			}
			result.Rows = rows
			result.RowsAffected = int64(len(rows))
			return nil
		}
		tx := conn.Exec(stmt.SQL, stmt.Args...)
		if tx.Error != nil {
			return tx.Error
		}
		result.RowsAffected = tx.RowsAffected
		return nil
	})

	q.log(ctx, stmt, start, result.RowsAffected, err)
	if err != nil {
		return WriteResult{Err: shared.WrapDomainError(shared.CodeInfrastructure, fmt.Sprintf("statement %s failed", stmt.Name), err)}
	}
	result.Success = true
	return result
}

// log records statement name, truncated text and parameter count. Parameter
// values are never logged.
func (q *QueryExecutor) log(ctx context.Context, stmt Statement, start time.Time, rows int64, err error) {
	logStatement(logger.Enrich(ctx, q.logger), stmt, start, rows, err)
}

func logStatement(l *zap.Logger, stmt Statement, start time.Time, rows int64, err error) {
	fields := []zap.Field{
		zap.String("statement", stmt.Name),
		zap.String("sql", truncateSQL(stmt.SQL)),
		zap.Int("params", len(stmt.Args)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		l.Error("statement failed", append(fields, zap.Error(err))...)
		return
	}
	l.Debug("statement executed", append(fields, zap.Int64("rows", rows))...)
}

func truncateSQL(sql string) string {
	if utf8.RuneCountInString(sql) <= maxLoggedSQL {
		return sql
	}
	runes := []rune(sql)
	return string(runes[:maxLoggedSQL]) + "..."
}
