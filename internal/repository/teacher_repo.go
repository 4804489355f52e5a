package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exam-control/internal/model"
)

// TeacherRepository 监考教师数据访问接口
type TeacherRepository interface {
	GetByID(ctx context.Context, id string) (*model.Teacher, error)
	List(ctx context.Context) ([]model.Teacher, error)
	BatchUpsert(ctx context.Context, teachers []model.Teacher) error
	// ClearAll 删除全部教师并清空所有试卷袋上的监考人，返回（删除教师数, 被清空的试卷袋数）
	ClearAll(ctx context.Context) (int64, int64, error)
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) GetByID(ctx context.Context, id string) (*model.Teacher, error) {
	var t model.Teacher
	err := r.db.WithContext(ctx).
		Where("teacher_id = ?", id).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *teacherRepo) List(ctx context.Context) ([]model.Teacher, error) {
	var teachers []model.Teacher
	err := r.db.WithContext(ctx).
		Order("name ASC, teacher_id ASC").
		Find(&teachers).Error
	return teachers, err
}

func (r *teacherRepo) BatchUpsert(ctx context.Context, teachers []model.Teacher) error {
	if len(teachers) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "teacher_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "phone", "qr_code", "updated_at"}),
		}).
		CreateInBatches(&teachers, batchSize).Error
}

func (r *teacherRepo) ClearAll(ctx context.Context) (int64, int64, error) {
	var deleted, cleared int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.ExamEnvelope{}).
			Where("teacher_id IS NOT NULL OR teacher_name IS NOT NULL").
			Updates(map[string]interface{}{
				"teacher_id":   nil,
				"teacher_name": nil,
				"version":      gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		cleared = res.RowsAffected

		res = tx.Where("1 = 1").Delete(&model.Teacher{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return deleted, cleared, nil
}
