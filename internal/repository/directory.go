package repository

import (
	"context"

	"legal-portal/internal/domain/cases"
	"legal-portal/internal/domain/users"

	"gorm.io/gorm"
)

// DirectoryRepository reads the case and account records owned by other
// portal services.
type DirectoryRepository interface {
	GetCase(ctx context.Context, id uint) (*cases.Case, error)
	GetUser(ctx context.Context, id uint) (*users.User, error)
}

type directoryRepoImpl struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepoImpl{db: db}
}

func (r *directoryRepoImpl) GetCase(ctx context.Context, id uint) (*cases.Case, error) {
	var c cases.Case
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *directoryRepoImpl) GetUser(ctx context.Context, id uint) (*users.User, error) {
	var u users.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}
