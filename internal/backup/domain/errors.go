package domain

import "errors"

var (
	ErrNotFound        = errors.New("backup_not_found")
	ErrInvalidFilename = errors.New("invalid_backup_filename")
)
