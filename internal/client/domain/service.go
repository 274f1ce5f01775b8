package domain

import (
	"context"
	"errors"

	"github.com/invosync/invosync/pkg/db/pagination"
)

type CreateClientRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	GSTIN     string `json:"gstin"`
	StateCode string `json:"state_code"`
}

type UpdateClientRequest struct {
	ID        string  `json:"-"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	GSTIN     *string `json:"gstin"`
	StateCode *string `json:"state_code"`
}

type ListClientRequest struct {
	pagination.Params
	Name  string `form:"name"`
	Email string `form:"email"`
}

type ListClientResponse = pagination.Page[Client]

type Service interface {
	Create(context.Context, CreateClientRequest) (Client, error)
	Update(context.Context, UpdateClientRequest) (Client, error)
	List(context.Context, ListClientRequest) (ListClientResponse, error)
	GetByID(ctx context.Context, id string) (Client, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("client_not_found")
)
