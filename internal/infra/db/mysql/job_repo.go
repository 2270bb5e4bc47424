package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/bryanwahyu/bounty-platform/internal/domain/jobs"
)

// JobRepository persists jobs in the scan_jobs table. Status changes go
// through guarded UPDATEs (status in the WHERE clause, affected-rows checked)
// so a job can never be claimed twice or leave a half-updated terminal row.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, project_name, job_type, owner, target_url, contract_source, scope_json, accept_terms,
       status, created_at, started_at, finished_at, result_json, error_message`

// Create inserts the pending row. Ids are fresh uuids so this never upserts.
func (r *JobRepository) Create(ctx context.Context, j *domain.Job) error {
	const q = `
INSERT INTO scan_jobs
(id, project_name, job_type, owner, target_url, contract_source, scope_json, accept_terms, status, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?);
`
	scope, err := json.Marshal(j.Scope)
	if err != nil {
		return err
	}
	created := j.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	_, err = r.db.ExecContext(ctx, q,
		j.ID, j.ProjectName, j.Kind, j.Owner, j.TargetURL, j.ContractSource,
		string(scope), j.AcceptTerms, j.Status, created,
	)
	return err
}

// Get by ID
func (r *JobRepository) Get(ctx context.Context, id domain.JobID) (*domain.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM scan_jobs WHERE id=? LIMIT 1;`
	j, err := scanJob(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return j, err
}

// List applies owner/status/project filters with skip/limit pagination,
// ordered by creation.
func (r *JobRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Job, error) {
	q := `SELECT ` + jobColumns + ` FROM scan_jobs WHERE 1=1`
	args := []any{}
	if f.Owner != "" {
		q += " AND owner = ?"
		args = append(args, f.Owner)
	}
	if f.Status != "" {
		q += " AND status = ?"
		args = append(args, f.Status)
	}
	if f.ProjectName != "" {
		q += " AND project_name = ?"
		args = append(args, f.ProjectName)
	}
	q += " ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?;"
	args = append(args, f.Limit, f.Skip)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	var out []*domain.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// ClaimPending flips pending -> running; false when someone got there first.
func (r *JobRepository) ClaimPending(ctx context.Context, id domain.JobID, startedAt time.Time) (bool, error) {
	const q = `
UPDATE scan_jobs
SET status = ?, started_at = ?
WHERE id = ? AND status = ?;`
	res, err := r.db.ExecContext(ctx, q, domain.StatusRunning, startedAt, id, domain.StatusPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Complete writes status, result and finished_at in one guarded update so a
// concurrent reader never sees completed with a null result.
func (r *JobRepository) Complete(ctx context.Context, id domain.JobID, result *domain.Result, finishedAt time.Time) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	const q = `
UPDATE scan_jobs
SET status = ?, result_json = ?, finished_at = ?
WHERE id = ? AND status = ?;`
	res, err := r.db.ExecContext(ctx, q, domain.StatusCompleted, string(b), finishedAt, id, domain.StatusRunning)
	if err != nil {
		return err
	}
	return requireTransition(res, id, domain.StatusCompleted)
}

// Fail is the error-side terminal transition.
func (r *JobRepository) Fail(ctx context.Context, id domain.JobID, msg string, finishedAt time.Time) error {
	const q = `
UPDATE scan_jobs
SET status = ?, error_message = ?, finished_at = ?
WHERE id = ? AND status = ?;`
	res, err := r.db.ExecContext(ctx, q, domain.StatusFailed, msg, finishedAt, id, domain.StatusRunning)
	if err != nil {
		return err
	}
	return requireTransition(res, id, domain.StatusFailed)
}

// SetResult backfills the result of an already-completed job (archive
// reconciliation). Only fills an empty column, never overwrites.
func (r *JobRepository) SetResult(ctx context.Context, id domain.JobID, result *domain.Result) error {
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	const q = `
UPDATE scan_jobs
SET result_json = ?
WHERE id = ? AND status = ? AND result_json IS NULL;`
	_, err = r.db.ExecContext(ctx, q, string(b), id, domain.StatusCompleted)
	return err
}

// ListPending returns ids awaiting dispatch, oldest first.
func (r *JobRepository) ListPending(ctx context.Context) ([]domain.JobID, error) {
	const q = `SELECT id FROM scan_jobs WHERE status=? ORDER BY created_at ASC;`
	rows, err := r.db.QueryContext(ctx, q, domain.StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.JobID
	for rows.Next() {
		var id domain.JobID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func requireTransition(res sql.Result, id domain.JobID, to domain.Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("job %s: not in running state, refusing transition to %s", id, to)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		j         domain.Job
		owner     sql.NullString
		target    sql.NullString
		source    sql.NullString
		scopeJSON sql.NullString
		started   sql.NullTime
		finished  sql.NullTime
		resJSON   sql.NullString
		errMsg    sql.NullString
	)
	if err := row.Scan(
		&j.ID, &j.ProjectName, &j.Kind, &owner, &target, &source, &scopeJSON, &j.AcceptTerms,
		&j.Status, &j.CreatedAt, &started, &finished, &resJSON, &errMsg,
	); err != nil {
		return nil, err
	}
	j.Owner = owner.String
	j.TargetURL = target.String
	j.ContractSource = source.String
	j.ErrorMessage = errMsg.String
	j.StartedAt = timePtr(started)
	j.FinishedAt = timePtr(finished)
	if scopeJSON.Valid && scopeJSON.String != "" {
		// scope is stored as a JSON array; a corrupt value fails the read
		if err := json.Unmarshal([]byte(scopeJSON.String), &j.Scope); err != nil {
			return nil, fmt.Errorf("decoding scope for job %s: %w", j.ID, err)
		}
	}
	if resJSON.Valid && resJSON.String != "" {
		var res domain.Result
		if err := json.Unmarshal([]byte(resJSON.String), &res); err != nil {
			return nil, fmt.Errorf("decoding result for job %s: %w", j.ID, err)
		}
		j.Result = &res
	}
	return &j, nil
}
