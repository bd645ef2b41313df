package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/entity"
)

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrForbidden    = errors.New("operation not permitted")
)

type todoRepository interface {
	Create(ctx context.Context, todo *entity.Todo) error
	FindByID(ctx context.Context, id uint64) (*entity.Todo, error)
	FindByUserID(ctx context.Context, userID uint64) ([]entity.Todo, error)
	Update(ctx context.Context, todo *entity.Todo) error
	SoftDelete(ctx context.Context, id uint64) (bool, error)
}

// Identity is the verified caller handed down by the auth middleware.
type Identity struct {
	UserID      uint64
	IsSuperuser bool
}

func (i Identity) mayAccess(ownerID uint64) bool {
	return i.IsSuperuser || i.UserID == ownerID
}

type TodoService interface {
	Create(ctx context.Context, who Identity, title, content string, dueDate *time.Time) (*entity.Todo, error)
	Get(ctx context.Context, who Identity, id uint64) (*entity.Todo, error)
	List(ctx context.Context, who Identity) ([]entity.Todo, error)
	Update(ctx context.Context, who Identity, id uint64, title, content string, isDone *bool, dueDate *time.Time) (*entity.Todo, error)
	Delete(ctx context.Context, who Identity, id uint64) error
}

type todoService struct {
	todoRepo todoRepository
}

func NewTodoService(todoRepo todoRepository) TodoService {
	return &todoService{todoRepo: todoRepo}
}

func (s *todoService) Create(ctx context.Context, who Identity, title, content string, dueDate *time.Time) (*entity.Todo, error) {
	now := time.Now()
	todo := &entity.Todo{
		UserID:    who.UserID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if content != "" {
		todo.Content = sql.NullString{String: content, Valid: true}
	}
	if dueDate != nil {
		todo.DueDate = sql.NullTime{Time: *dueDate, Valid: true}
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Get(ctx context.Context, who Identity, id uint64) (*entity.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, ErrTodoNotFound
	}
	if !who.mayAccess(todo.UserID) {
		return nil, ErrForbidden
	}
	return todo, nil
}

func (s *todoService) List(ctx context.Context, who Identity) ([]entity.Todo, error) {
	return s.todoRepo.FindByUserID(ctx, who.UserID)
}

func (s *todoService) Update(ctx context.Context, who Identity, id uint64, title, content string, isDone *bool, dueDate *time.Time) (*entity.Todo, error) {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, ErrTodoNotFound
	}
	if !who.mayAccess(todo.UserID) {
		return nil, ErrForbidden
	}

	if title != "" {
		todo.Title = title
	}
	if content != "" {
		todo.Content = sql.NullString{String: content, Valid: true}
	}
	if isDone != nil {
		todo.IsDone = *isDone
	}
	if dueDate != nil {
		todo.DueDate = sql.NullTime{Time: *dueDate, Valid: true}
	}

	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, who Identity, id uint64) error {
	todo, err := s.todoRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if todo == nil {
		return ErrTodoNotFound
	}
	if !who.mayAccess(todo.UserID) {
		return ErrForbidden
	}

	deleted, err := s.todoRepo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTodoNotFound
	}
	return nil
}
