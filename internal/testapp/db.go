// Package testapp is a small project/task API backed by SQLite. It gives
// the apitest harness a real chi router to exercise: a read-only,
// unpaginated projects resource with custom actions and a paginated tasks
// resource with authenticated writes.
package testapp

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DB wraps a SQLite connection.
type DB struct {
	*sql.DB
}

// Open connects to the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{DB: db}, nil
}

// Migrate applies pending migrations.
func (db *DB) Migrate() error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return err
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var migrations []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrations = append(migrations, entry.Name())
		}
	}
	sort.Strings(migrations)

	for _, name := range migrations {
		version := strings.TrimSuffix(name, ".sql")
		if applied[version] {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// Fixture describes seed data.
type Fixture struct {
	Users    []User
	Projects []ProjectInput
	Tasks    []TaskFixture
}

// TaskFixture seeds a task owned by the user with the given username.
type TaskFixture struct {
	TaskInput
	Owner string
}

// DemoFixture is the data set used by the tests and the demo server.
func DemoFixture() Fixture {
	return Fixture{
		Users: []User{
			{Username: "ada", Token: "ada-token"},
			{Username: "grace", Token: "grace-token"},
		},
		Projects: []ProjectInput{
			{Name: "Apollo", Slug: "apollo", Description: strPtr("Moon landing")},
			{Name: "Gemini", Slug: "gemini"},
		},
		Tasks: []TaskFixture{
			{TaskInput: TaskInput{Project: 1, Name: "Build rocket", Due: strPtr("1969-07-16")}, Owner: "ada"},
			{TaskInput: TaskInput{Project: 1, Name: "Assemble crew", Done: true}, Owner: "grace"},
			{TaskInput: TaskInput{Project: 1, Name: "Launch"}},
			{TaskInput: TaskInput{Project: 2, Name: "Dock capsules"}, Owner: "ada"},
		},
	}
}

// Seed inserts f.
func (db *DB) Seed(ctx context.Context, f Fixture) error {
	users := make(map[string]int64, len(f.Users))
	for _, u := range f.Users {
		res, err := db.ExecContext(ctx, `INSERT INTO users (username, token) VALUES (?, ?)`, u.Username, u.Token)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		users[u.Username] = id
	}
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC).Format(time.RFC3339)
	for _, p := range f.Projects {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO projects (name, slug, description, created) VALUES (?, ?, ?, ?)
		`, p.Name, p.Slug, p.Description, created); err != nil {
			return fmt.Errorf("seed project %s: %w", p.Slug, err)
		}
	}
	for _, t := range f.Tasks {
		var owner *int64
		if id, ok := users[t.Owner]; ok {
			owner = &id
		}
		if _, err := db.ExecContext(ctx, `
			INSERT INTO tasks (project_id, name, done, due, owner_id, created) VALUES (?, ?, ?, ?, ?, ?)
		`, t.Project, t.Name, t.Done, t.Due, owner, created); err != nil {
			return fmt.Errorf("seed task %s: %w", t.Name, err)
		}
	}
	return nil
}

// OpenDemo opens an in-memory database, migrates it and loads DemoFixture.
func OpenDemo(ctx context.Context) (*DB, error) {
	db, err := Open(":memory:")
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Seed(ctx, DemoFixture()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func strPtr(v string) *string { return &v }
