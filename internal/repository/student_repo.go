package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exam-control/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	ListOrdered(ctx context.Context) ([]model.Student, error)
	MaxImportOrder(ctx context.Context) (int, error)
	BatchUpsert(ctx context.Context, students []model.Student) error
	DeleteAll(ctx context.Context) (int64, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) ListOrdered(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Order("import_order ASC, student_id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) MaxImportOrder(ctx context.Context) (int, error) {
	var top sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Select("MAX(import_order)").
		Row().Scan(&top)
	if err != nil {
		return 0, err
	}
	return int(top.Int64), nil
}

// BatchUpsert 以座号去重写入；已存在的学生更新资料但保留原导入顺序与考勤
func (r *studentRepo) BatchUpsert(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "grade", "classroom", "phone", "updated_at"}),
		}).
		CreateInBatches(&students, batchSize).Error
}

// DeleteAll 清空学生表；已分配到试卷袋中的名单副本不受影响
func (r *studentRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Student{})
	return res.RowsAffected, res.Error
}
