package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/sumire/issuetracker/internal/domain"
)

//go:embed migrations
var migrationsFS embed.FS

const issueColumns = `id, issue_title, issue_text, created_by, assigned_to, status_text, is_open, created_on, updated_on`

// issueColumnByField maps wire field names onto table columns.
var issueColumnByField = map[string]string{
	domain.FieldID:         "id",
	domain.FieldIssueTitle: "issue_title",
	domain.FieldIssueText:  "issue_text",
	domain.FieldCreatedBy:  "created_by",
	domain.FieldAssignedTo: "assigned_to",
	domain.FieldStatusText: "status_text",
	domain.FieldOpen:       "is_open",
	domain.FieldCreatedOn:  "created_on",
	domain.FieldUpdatedOn:  "updated_on",
}

// issueRow is an issue together with the project partition it lives in.
type issueRow struct {
	domain.Issue
	Project string `db:"project"`
}

// SQLIssueRepository stores issues in one table partitioned by project. It
// works against PostgreSQL (pgx) and SQLite (modernc); queries are written
// with ? placeholders and rebound for the driver.
type SQLIssueRepository struct {
	db *sqlx.DB
}

// NewSQLIssueRepository creates a new SQLIssueRepository.
func NewSQLIssueRepository(db *sqlx.DB) *SQLIssueRepository {
	return &SQLIssueRepository{db: db}
}

// OpenPostgres connects to PostgreSQL through the pgx stdlib driver.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One writer at a time; concurrent requests queue on the pool instead of
	// failing with "database is locked".
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return db, nil
}

// Migrate applies the embedded migrations for the connected dialect.
func (r *SQLIssueRepository) Migrate(ctx context.Context) error {
	dir, err := r.migrationsDir()
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		if err := r.db.GetContext(ctx, &count,
			r.db.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE filename = ?`), name); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := fs.ReadFile(migrationsFS, dir+"/"+name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx,
			r.db.Rebind(`INSERT INTO schema_migrations (filename) VALUES (?)`), name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

func (r *SQLIssueRepository) migrationsDir() (string, error) {
	switch r.db.DriverName() {
	case "pgx":
		return "migrations/postgres", nil
	case "sqlite":
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("no migrations for driver %q", r.db.DriverName())
	}
}

// Insert stores a new issue in the project's partition and assigns its ID.
func (r *SQLIssueRepository) Insert(ctx context.Context, project string, issue *domain.Issue) error {
	if issue.ID == "" {
		issue.ID = domain.NewID()
	}

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO issues (id, project, issue_title, issue_text, created_by, assigned_to, status_text, is_open, created_on, updated_on)
		 VALUES (:id, :project, :issue_title, :issue_text, :created_by, :assigned_to, :status_text, :is_open, :created_on, :updated_on)`,
		issueRow{Issue: *issue, Project: project},
	)
	if err != nil {
		return fmt.Errorf("insert issue: %w", err)
	}
	return nil
}

// Find returns the project's issues matching every filter condition, oldest first.
func (r *SQLIssueRepository) Find(ctx context.Context, project string, filter domain.IssueFilter) ([]*domain.Issue, error) {
	var where strings.Builder
	where.WriteString("project = ?")
	args := []any{project}

	for _, c := range filter.Conditions {
		column, ok := issueColumnByField[c.Field]
		if !ok {
			return []*domain.Issue{}, nil
		}
		where.WriteString(" AND " + column + " = ?")
		args = append(args, c.Value)
	}

	query := `SELECT ` + issueColumns + ` FROM issues WHERE ` + where.String() + ` ORDER BY seq`

	issues := []*domain.Issue{}
	if err := r.db.SelectContext(ctx, &issues, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("select issues: %w", err)
	}
	for _, issue := range issues {
		issue.CreatedOn = issue.CreatedOn.UTC()
		issue.UpdatedOn = issue.UpdatedOn.UTC()
	}
	return issues, nil
}

// UpdateByID overwrites the set fields and updated_on of one issue. The
// stored updated_on never moves backwards and always advances by at least a
// millisecond.
func (r *SQLIssueRepository) UpdateByID(ctx context.Context, project, id string, fields domain.IssueFields, updatedOn time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	lookup := `SELECT updated_on FROM issues WHERE project = ? AND id = ?`
	if r.db.DriverName() == "pgx" {
		lookup += ` FOR UPDATE`
	}
	var prev time.Time
	if err := tx.GetContext(ctx, &prev, tx.Rebind(lookup), project, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("lock issue %s: %w", id, err)
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if fields.IssueTitle != nil {
		set("issue_title", *fields.IssueTitle)
	}
	if fields.IssueText != nil {
		set("issue_text", *fields.IssueText)
	}
	if fields.CreatedBy != nil {
		set("created_by", *fields.CreatedBy)
	}
	if fields.AssignedTo != nil {
		set("assigned_to", *fields.AssignedTo)
	}
	if fields.StatusText != nil {
		set("status_text", *fields.StatusText)
	}
	if fields.Open != nil {
		set("is_open", *fields.Open)
	}
	set("updated_on", nextUpdatedOn(prev, updatedOn))

	query := `UPDATE issues SET ` + strings.Join(sets, ", ") + ` WHERE project = ? AND id = ?`
	args = append(args, project, id)

	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update issue %s: %w", id, err)
	}
	if err := expectOneRow(res.RowsAffected()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update: %w", err)
	}
	return nil
}

// nextUpdatedOn returns now, or prev plus one millisecond when now does not
// come after prev.
func nextUpdatedOn(prev, now time.Time) time.Time {
	floor := prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	if now.Before(floor) {
		return floor
	}
	return now
}

// DeleteByID removes one issue from the project's partition.
func (r *SQLIssueRepository) DeleteByID(ctx context.Context, project, id string) error {
	res, err := r.db.ExecContext(ctx,
		r.db.Rebind(`DELETE FROM issues WHERE project = ? AND id = ?`), project, id)
	if err != nil {
		return fmt.Errorf("delete issue %s: %w", id, err)
	}
	return expectOneRow(res.RowsAffected())
}

// Ping checks the database connection.
func (r *SQLIssueRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func expectOneRow(n int64, err error) error {
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
