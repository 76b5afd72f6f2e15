package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/devagent/orchestrator/internal/db"
	"github.com/devagent/orchestrator/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// timeLayout keeps lexical and chronological order identical for TEXT columns
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ContractTransition is a conditional status update on one contract. The row
// changes only when its current status is one of From (and, with
// RequireDispatchID, its dispatch_id equals DispatchID).
type ContractTransition struct {
	ID                string
	From              []model.ContractStatus
	To                model.ContractStatus
	Output            map[string]any
	Claim             bool
	DispatchID        string
	RequireDispatchID bool
	ClearDispatch     bool
	At                time.Time
}

// Repository is the persistence boundary for projects, pipelines, stages,
// task contracts and reviews. Status writes are conditional and report
// whether a row changed; transition rules live in the service layer.
type Repository interface {
	Ping(ctx context.Context) error
	// InTx runs fn against a repository bound to one transaction
	InTx(ctx context.Context, fn func(tx Repository) error) error

	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjectsByOwner(ctx context.Context, ownerID string) ([]model.Project, error)
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, id string) error

	CreatePipeline(ctx context.Context, p *model.Pipeline, stages []model.Stage) error
	GetPipeline(ctx context.Context, id string) (*model.Pipeline, error)
	ListPipelinesByProject(ctx context.Context, projectID string) ([]model.Pipeline, error)
	UpdatePipelineStatus(ctx context.Context, id string, to model.PipelineStatus, from ...model.PipelineStatus) (bool, error)
	// LockPipeline takes a row lock on the pipeline for the rest of the transaction
	LockPipeline(ctx context.Context, id string) (*model.Pipeline, error)

	ListStages(ctx context.Context, pipelineID string) ([]model.Stage, error)
	GetStage(ctx context.Context, pipelineID, stageID string) (*model.Stage, error)
	UpdateStageStatus(ctx context.Context, id string, to model.StageStatus, from []model.StageStatus, at time.Time) (bool, error)

	CreateContract(ctx context.Context, c *model.TaskContract) error
	GetContract(ctx context.Context, id string) (*model.TaskContract, error)
	ListContractsByPipeline(ctx context.Context, pipelineID string) ([]model.TaskContract, error)
	ListStaleDrafts(ctx context.Context, olderThan time.Time, limit int) ([]model.TaskContract, error)
	TransitionContract(ctx context.Context, t ContractTransition) (bool, error)

	CreateReview(ctx context.Context, r *model.AgentReview) error
	ListReviewsByPipeline(ctx context.Context, pipelineID string) ([]model.AgentReview, error)
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLRepository implements Repository over database/sql
type SQLRepository struct {
	db      *sql.DB
	q       querier
	inTx    bool
	dialect db.Dialect
}

func New(conn *sql.DB, dialect db.Dialect) *SQLRepository {
	return &SQLRepository{db: conn, q: conn, dialect: dialect}
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return wrapErr("ping", err)
	}
	return nil
}

// InTx commits when fn returns nil and rolls back otherwise. Nested calls
// reuse the outer transaction.
func (r *SQLRepository) InTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.inTx {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("begin tx", err)
	}
	defer tx.Rollback()

	if err := fn(&SQLRepository{db: r.db, q: tx, inTx: true, dialect: r.dialect}); err != nil {
		return err
	}
	return wrapErr("commit tx", tx.Commit())
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return r.q.ExecContext(ctx, r.dialect.Rebind(query), args...)
}

func (r *SQLRepository) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return r.q.QueryContext(ctx, r.dialect.Rebind(query), args...)
}

func (r *SQLRepository) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return r.q.QueryRowContext(ctx, r.dialect.Rebind(query), args...)
}

// wrapErr classifies connectivity failures as ErrStoreUnavailable
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return err
	}
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database is closed")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func scanNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeJSON(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(ns sql.NullString) (map[string]any, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(ns.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}

// placeholders renders "?,?,?" for n values
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func statusArgs[S ~string](statuses []S) []any {
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = string(s)
	}
	return args
}
