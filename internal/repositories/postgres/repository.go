package postgres

import (
	"context"

	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"gorm.io/gorm"
)

// Repository is the GORM-backed aggregate. A transactional variant is just
// the same struct bound to the transaction handle.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{db: db}
}

func (r *Repository) Session() repositories.SessionRepository {
	return NewSessionPostgreSQL(r.db)
}

func (r *Repository) Response() repositories.ResponseRepository {
	return NewResponsePostgreSQL(r.db)
}

func (r *Repository) Violation() repositories.ViolationRepository {
	return NewViolationPostgreSQL(r.db)
}

func (r *Repository) Snapshot() repositories.SnapshotRepository {
	return NewSnapshotPostgreSQL(r.db)
}

func (r *Repository) Exam() repositories.ExamRepository {
	return NewExamPostgreSQL(r.db)
}

func (r *Repository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}
