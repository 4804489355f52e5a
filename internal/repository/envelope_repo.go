package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"exam-control/internal/model"
	pkgerrors "exam-control/pkg/errors"
)

// batchSize 批量写入每批行数
const batchSize = 200

// EnvelopeRepository 试卷袋数据访问接口
type EnvelopeRepository interface {
	GetByID(ctx context.Context, id string) (*model.ExamEnvelope, error)
	ListActive(ctx context.Context) ([]model.ExamEnvelope, error)
	ListTemplates(ctx context.Context) ([]model.ExamEnvelope, error)
	ListByCommittee(ctx context.Context, committee string) ([]model.ExamEnvelope, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]model.ExamEnvelope, error)
	Update(ctx context.Context, env *model.ExamEnvelope) error
	UpdateSchedules(ctx context.Context, envs []model.ExamEnvelope) error
	ReplaceActive(ctx context.Context, envs []model.ExamEnvelope) error
	SaveTemplates(ctx context.Context, envs []model.ExamEnvelope) error
	ExpandTemplates(ctx context.Context, created []model.ExamEnvelope, templateIDs []string) error
}

type envelopeRepo struct {
	db *gorm.DB
}

// NewEnvelopeRepo 创建 EnvelopeRepository 实例
func NewEnvelopeRepo(db *gorm.DB) EnvelopeRepository {
	return &envelopeRepo{db: db}
}

func (r *envelopeRepo) GetByID(ctx context.Context, id string) (*model.ExamEnvelope, error) {
	var env model.ExamEnvelope
	err := r.db.WithContext(ctx).
		Where("envelope_id = ?", id).
		First(&env).Error
	if err != nil {
		return nil, err
	}
	return &env, nil
}

// active 非模板试卷袋
func active(db *gorm.DB) *gorm.DB {
	return db.Where("NOT starts_with(envelope_id, ?)", model.TemplatePrefix)
}

func (r *envelopeRepo) ListActive(ctx context.Context) ([]model.ExamEnvelope, error) {
	var envs []model.ExamEnvelope
	err := r.db.WithContext(ctx).
		Scopes(active).
		Order("exam_date ASC NULLS LAST, start_time ASC, envelope_id ASC").
		Find(&envs).Error
	return envs, err
}

func (r *envelopeRepo) ListTemplates(ctx context.Context) ([]model.ExamEnvelope, error) {
	var envs []model.ExamEnvelope
	err := r.db.WithContext(ctx).
		Where("starts_with(envelope_id, ?)", model.TemplatePrefix).
		Order("envelope_id ASC").
		Find(&envs).Error
	return envs, err
}

func (r *envelopeRepo) ListByCommittee(ctx context.Context, committee string) ([]model.ExamEnvelope, error) {
	var envs []model.ExamEnvelope
	err := r.db.WithContext(ctx).
		Scopes(active).
		Where("committee = ?", committee).
		Order("exam_date ASC NULLS LAST, start_time ASC").
		Find(&envs).Error
	return envs, err
}

func (r *envelopeRepo) ListByTeacher(ctx context.Context, teacherID string) ([]model.ExamEnvelope, error) {
	var envs []model.ExamEnvelope
	err := r.db.WithContext(ctx).
		Scopes(active).
		Where("teacher_id = ?", teacherID).
		Order("exam_date ASC NULLS LAST, start_time ASC").
		Find(&envs).Error
	return envs, err
}

// Update 乐观锁更新试卷袋的状态、考勤与监考人
func (r *envelopeRepo) Update(ctx context.Context, env *model.ExamEnvelope) error {
	oldVersion := env.Version
	result := r.db.WithContext(ctx).
		Model(env).
		Where("envelope_id = ? AND version = ?", env.EnvelopeID, oldVersion).
		Updates(map[string]interface{}{
			"status":       env.Status,
			"students":     env.Students,
			"teacher_id":   env.TeacherID,
			"teacher_name": env.TeacherName,
			"received_at":  env.ReceivedAt,
			"submitted_at": env.SubmittedAt,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	env.Version = oldVersion + 1
	return nil
}

// UpdateSchedules 在同一事务中写回多个试卷袋的日程字段
func (r *envelopeRepo) UpdateSchedules(ctx context.Context, envs []model.ExamEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range envs {
			e := &envs[i]
			err := tx.Model(&model.ExamEnvelope{}).
				Where("envelope_id = ?", e.EnvelopeID).
				Updates(map[string]interface{}{
					"exam_date":  e.ExamDate,
					"start_time": e.StartTime,
					"end_time":   e.EndTime,
					"subject":    e.Subject,
					"period":     e.Period,
					"version":    gorm.Expr("version + 1"),
				}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ReplaceActive 删除所有非模板试卷袋并写入新集合（整体替换）
func (r *envelopeRepo) ReplaceActive(ctx context.Context, envs []model.ExamEnvelope) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(active).Delete(&model.ExamEnvelope{}).Error; err != nil {
			return err
		}
		if len(envs) == 0 {
			return nil
		}
		return tx.CreateInBatches(&envs, batchSize).Error
	})
}

// SaveTemplates 按 ID 覆盖写入模板
func (r *envelopeRepo) SaveTemplates(ctx context.Context, envs []model.ExamEnvelope) error {
	if len(envs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "envelope_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(&envs, batchSize).Error
}

// ExpandTemplates 写入展开结果并删除已展开的模板
func (r *envelopeRepo) ExpandTemplates(ctx context.Context, created []model.ExamEnvelope, templateIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(created) > 0 {
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "envelope_id"}},
				UpdateAll: true,
			}).CreateInBatches(&created, batchSize).Error
			if err != nil {
				return err
			}
		}
		if len(templateIDs) == 0 {
			return nil
		}
		return tx.Where("envelope_id IN ?", templateIDs).Delete(&model.ExamEnvelope{}).Error
	})
}
