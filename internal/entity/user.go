package entity

import (
	"time"

	"github.com/uptrace/bun"
)

type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int        `json:"id" bun:"id,pk,autoincrement"`
	Username  string     `json:"username" bun:"username"`
	Password  string     `json:"-" bun:"password"`
	Role      string     `json:"role" bun:"role"`
	FullName  *string    `json:"full_name,omitempty" bun:"full_name"`
	CreatedAt time.Time  `json:"created_at" bun:"created_at"`
	CreatedBy *int       `json:"created_by,omitempty" bun:"created_by"`
	UpdatedAt *time.Time `json:"updated_at,omitempty" bun:"updated_at"`
	UpdatedBy *int       `json:"updated_by,omitempty" bun:"updated_by"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bun:"deleted_at"`
	DeletedBy *int       `json:"deleted_by,omitempty" bun:"deleted_by"`
}
