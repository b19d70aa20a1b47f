package storage

import (
	"context"

	"pokerhand/internal/domain"
)

type HandRepository interface {
	// Save returns domain.ErrDuplicate, with the record, when its id is already stored.
	Save(ctx context.Context, rec domain.HandRecord) (domain.HandRecord, error)
	FindAll(ctx context.Context, limit, offset int) ([]domain.HandRecord, error)
	Count(ctx context.Context) (int, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type ApplicationRepository interface {
	SaveApplication(ctx context.Context, app domain.Application) (domain.Application, error)
	// FindByEmail returns domain.ErrNotFound when no application uses the address.
	FindByEmail(ctx context.Context, email string) (*domain.Application, error)
	FindByMinGPA(ctx context.Context, gpa float64) ([]domain.Application, error)
	DeleteAllApplications(ctx context.Context) (int64, error)
}
