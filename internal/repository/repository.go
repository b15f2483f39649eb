package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/todo-service/internal/database"
	"github.com/Dan9191/todo-service/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint rejects an insert.
	ErrDuplicate = errors.New("already exists")
)

// Repository provides database operations
type Repository struct {
	db *database.DB
}

// NewRepository initializes a new repository
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks that the store is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListUsers returns every user ordered by id
func (r *Repository) ListUsers(ctx context.Context) ([]models.User, error) {
	query := fmt.Sprintf(`SELECT id, username FROM %s ORDER BY id`, r.db.Table("user"))
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := r.db.Dialect.Rebind(fmt.Sprintf(`SELECT id, username FROM %s WHERE username = ?`, r.db.Table("user")))

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CreateUser inserts the user and its initial todos in one transaction.
// A taken username yields ErrDuplicate.
func (r *Repository) CreateUser(ctx context.Context, user *models.User, todos []*models.Todo) error {
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := fmt.Sprintf(`INSERT INTO %s (username, created_at, updated_at) VALUES (?, ?, ?)`, r.db.Table("user"))
		id, err := r.insert(ctx, tx, query, user.Username, user.CreatedAt, user.UpdatedAt)
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		user.ID = id

		return r.insertTodos(ctx, tx, user.ID, todos)
	})
}

// ListTodos returns the user's todos ordered by id
func (r *Repository) ListTodos(ctx context.Context, userID int64) ([]models.Todo, error) {
	query := r.db.Dialect.Rebind(fmt.Sprintf(`SELECT id, label, done, user_id FROM %s WHERE user_id = ? ORDER BY id`, r.db.Table("todo")))
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var todo models.Todo
		if err := rows.Scan(&todo.ID, &todo.Label, &todo.Done, &todo.UserID); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// ReplaceTodos deletes every todo of the user and inserts the given ones
// in a single transaction.
func (r *Repository) ReplaceTodos(ctx context.Context, userID int64, todos []*models.Todo) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := r.db.Dialect.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE user_id = ?`, r.db.Table("todo")))
		if _, err := tx.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("failed to delete todos: %w", err)
		}
		return r.insertTodos(ctx, tx, userID, todos)
	})
}

// DeleteUser removes the user's todos and then the user row
func (r *Repository) DeleteUser(ctx context.Context, userID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := r.db.Dialect.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE user_id = ?`, r.db.Table("todo")))
		if _, err := tx.ExecContext(ctx, query, userID); err != nil {
			return fmt.Errorf("failed to delete todos: %w", err)
		}

		query = r.db.Dialect.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.db.Table("user")))
		result, err := tx.ExecContext(ctx, query, userID)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// Stats counts users and todos
func (r *Repository) Stats(ctx context.Context) (models.StoreStats, error) {
	var stats models.StoreStats
	query := fmt.Sprintf(`SELECT (SELECT COUNT(*) FROM %s), (SELECT COUNT(*) FROM %s)`, r.db.Table("user"), r.db.Table("todo"))
	if err := r.db.QueryRowContext(ctx, query).Scan(&stats.Users, &stats.Todos); err != nil {
		return stats, fmt.Errorf("failed to count rows: %w", err)
	}
	return stats, nil
}

func (r *Repository) insertTodos(ctx context.Context, tx *sql.Tx, userID int64, todos []*models.Todo) error {
	query := fmt.Sprintf(`INSERT INTO %s (label, done, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`, r.db.Table("todo"))
	now := time.Now().UTC()
	for _, todo := range todos {
		todo.UserID = userID
		todo.CreatedAt, todo.UpdatedAt = now, now
		id, err := r.insert(ctx, tx, query, todo.Label, todo.Done, todo.UserID, todo.CreatedAt, todo.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to create todo: %w", err)
		}
		todo.ID = id
	}
	return nil
}

// insert runs an INSERT written with ? placeholders and returns the generated id.
func (r *Repository) insert(ctx context.Context, tx *sql.Tx, query string, args ...any) (int64, error) {
	if r.db.Dialect.SupportsReturning() {
		var id int64
		err := tx.QueryRowContext(ctx, r.db.Dialect.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := tx.ExecContext(ctx, r.db.Dialect.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
