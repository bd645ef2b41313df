package entity

import (
	"database/sql"
	"time"
)

type Todo struct {
	ID        uint64
	UserID    uint64
	Title     string
	Content   sql.NullString
	IsDone    bool
	DueDate   sql.NullTime
	DeletedAt sql.NullTime
	CreatedAt time.Time
	UpdatedAt time.Time
}
