package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/entity"
)

type TodoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) *TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Create(ctx context.Context, todo *entity.Todo) error {
	query := `
		INSERT INTO todos (user_id, title, content, is_done, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		todo.UserID,
		todo.Title,
		todo.Content,
		todo.IsDone,
		todo.DueDate,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	todo.ID = uint64(id)
	return nil
}

func (r *TodoRepository) FindByID(ctx context.Context, id uint64) (*entity.Todo, error) {
	query := `
		SELECT id, user_id, title, content, is_done, due_date, deleted_at, created_at, updated_at
		FROM todos WHERE id = ? AND deleted_at IS NULL
	`
	todo := &entity.Todo{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&todo.ID,
		&todo.UserID,
		&todo.Title,
		&todo.Content,
		&todo.IsDone,
		&todo.DueDate,
		&todo.DeletedAt,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *TodoRepository) FindByUserID(ctx context.Context, userID uint64) ([]entity.Todo, error) {
	query := `
		SELECT id, user_id, title, content, is_done, due_date, deleted_at, created_at, updated_at
		FROM todos WHERE user_id = ? AND deleted_at IS NULL ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []entity.Todo
	for rows.Next() {
		todo := entity.Todo{}
		if err := rows.Scan(
			&todo.ID,
			&todo.UserID,
			&todo.Title,
			&todo.Content,
			&todo.IsDone,
			&todo.DueDate,
			&todo.DeletedAt,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		); err != nil {
			return nil, err
		}
		todos = append(todos, todo)
	}
	return todos, rows.Err()
}

func (r *TodoRepository) Update(ctx context.Context, todo *entity.Todo) error {
	query := `
		UPDATE todos SET
			title = ?,
			content = ?,
			is_done = ?,
			due_date = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	todo.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		todo.Title,
		todo.Content,
		todo.IsDone,
		todo.DueDate,
		todo.UpdatedAt,
		todo.ID,
	)
	return err
}

func (r *TodoRepository) SoftDelete(ctx context.Context, id uint64) (bool, error) {
	query := `UPDATE todos SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
