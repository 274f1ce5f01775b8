package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/invosync/invosync/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListClientFilter struct {
	Name  string
	Email string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, client *Client) error
	Update(ctx context.Context, db *gorm.DB, client *Client) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	List(ctx context.Context, db *gorm.DB, filter ListClientFilter, page pagination.Params) ([]Client, int64, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
