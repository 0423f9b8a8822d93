package repository

import (
	"github.com/fadilmartias/interview-coach/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InterviewRepository struct {
	db *gorm.DB
}

func NewInterviewRepository(db *gorm.DB) *InterviewRepository {
	return &InterviewRepository{db}
}

func (r *InterviewRepository) Create(interview *model.Interview) error {
	return r.db.Create(interview).Error
}

// Update persists the aggregate including question rows added or mutated in
// memory.
func (r *InterviewRepository) Update(interview *model.Interview) error {
	return r.db.Session(&gorm.Session{FullSaveAssociations: true}).Save(interview).Error
}

func (r *InterviewRepository) FindByID(id uuid.UUID) (*model.Interview, error) {
	var interview model.Interview
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		First(&interview, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &interview, nil
}

func (r *InterviewRepository) Delete(interview *model.Interview) error {
	return r.db.Select("Questions").Delete(interview).Error
}

func (r *InterviewRepository) ListByUser(userID uuid.UUID, page, pageSize int) ([]model.Interview, int64, error) {
	var total int64
	if err := r.db.Model(&model.Interview{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var interviews []model.Interview
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.position ASC")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&interviews).Error
	return interviews, total, err
}
