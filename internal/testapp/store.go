package testapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("testapp: not found")

// User is an API client authenticated by token.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Token    string `json:"-"`
}

// Project is the list representation of a project.
type Project struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Created string `json:"created"`
}

// ProjectDetail adds the fields only served by the detail endpoint.
type ProjectDetail struct {
	Project
	Description *string `json:"description"`
	TasksCount  int     `json:"tasks_count"`
}

// ProjectInput seeds a project.
type ProjectInput struct {
	Name        string
	Slug        string
	Description *string
}

// Owner is the nested user reference of a task.
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// Task is served by both task endpoints.
type Task struct {
	ID      int64   `json:"id"`
	Project int64   `json:"project"`
	Name    string  `json:"name"`
	Done    bool    `json:"done"`
	Due     *string `json:"due"`
	Owner   *Owner  `json:"owner"`
	Created string  `json:"created"`
}

// TaskInput carries writable task fields.
type TaskInput struct {
	Project int64
	Name    string
	Done    bool
	Due     *string
}

// TaskFilter narrows and pages task listings.
type TaskFilter struct {
	Project *int64
	Limit   int
	Offset  int
}

// Store runs the queries behind the handlers.
type Store struct {
	db  *DB
	now func() time.Time
}

// NewStore creates a store over db.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// UserByToken resolves an API token.
func (s *Store) UserByToken(ctx context.Context, token string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `SELECT id, username, token FROM users WHERE token = ?`, token).
		Scan(&u.ID, &u.Username, &u.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug, created FROM projects ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.Created); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// FirstProject returns the project that sorts first by name.
func (s *Store) FirstProject(ctx context.Context) (Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx, `SELECT id, name, slug, created FROM projects ORDER BY name, id LIMIT 1`).
		Scan(&p.ID, &p.Name, &p.Slug, &p.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	return p, err
}

// GetProject loads a project with its task count.
func (s *Store) GetProject(ctx context.Context, id int64) (ProjectDetail, error) {
	var (
		p           ProjectDetail
		description sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.slug, p.created, p.description,
		       (SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)
		FROM projects p WHERE p.id = ?
	`, id).Scan(&p.ID, &p.Name, &p.Slug, &p.Created, &description, &p.TasksCount)
	if errors.Is(err, sql.ErrNoRows) {
		return ProjectDetail{}, ErrNotFound
	}
	if err != nil {
		return ProjectDetail{}, fmt.Errorf("get project: %w", err)
	}
	if description.Valid {
		p.Description = &description.String
	}
	return p, nil
}

// ProjectExists reports whether id names a project.
func (s *Store) ProjectExists(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("check project: %w", err)
	}
	return n > 0, nil
}

const taskColumns = `
	t.id, t.project_id, t.name, t.done, t.due, t.created, u.id, u.username
	FROM tasks t LEFT JOIN users u ON u.id = t.owner_id`

// ListTasks returns one page of tasks ordered by name, and the total count
// matching the filter.
func (s *Store) ListTasks(ctx context.Context, f TaskFilter) ([]Task, int, error) {
	var (
		where []string
		args  []any
	)
	if f.Project != nil {
		where = append(where, "t.project_id = ?")
		args = append(args, *f.Project)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks t`+clause, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	query := `SELECT` + taskColumns + clause + ` ORDER BY t.name, t.id`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, task)
	}
	return tasks, count, rows.Err()
}

// GetTask loads a task by id.
func (s *Store) GetTask(ctx context.Context, id int64) (Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT`+taskColumns+` WHERE t.id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}

// CreateTask inserts a task owned by owner.
func (s *Store) CreateTask(ctx context.Context, in TaskInput, owner int64) (Task, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (project_id, name, done, due, owner_id, created) VALUES (?, ?, ?, ?, ?, ?)
	`, in.Project, in.Name, in.Done, in.Due, owner, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Task{}, err
	}
	return s.GetTask(ctx, id)
}

// UpdateTask replaces the writable fields of a task.
func (s *Store) UpdateTask(ctx context.Context, id int64, in TaskInput) (Task, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET project_id = ?, name = ?, done = ?, due = ? WHERE id = ?
	`, in.Project, in.Name, in.Done, in.Due, id)
	if err != nil {
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Task{}, ErrNotFound
	}
	return s.GetTask(ctx, id)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (Task, error) {
	var (
		t         Task
		due       sql.NullString
		ownerID   sql.NullInt64
		ownerName sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Project, &t.Name, &t.Done, &due, &t.Created, &ownerID, &ownerName); err != nil {
		return Task{}, err
	}
	if due.Valid {
		t.Due = &due.String
	}
	if ownerID.Valid {
		t.Owner = &Owner{ID: ownerID.Int64, Username: ownerName.String}
	}
	return t, nil
}
