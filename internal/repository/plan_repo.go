package repository

import (
	"context"

	"gorm.io/gorm"

	"exam-control/internal/model"
)

// PlanRepository 考试计划与场次数据访问接口
type PlanRepository interface {
	Get(ctx context.Context) (*model.ExamPlan, error)
	Save(ctx context.Context, plan *model.ExamPlan) error
	ListSessions(ctx context.Context) ([]model.ScheduleSession, error)
	GetSession(ctx context.Context, id string) (*model.ScheduleSession, error)
	UpdateSession(ctx context.Context, s *model.ScheduleSession) error
	ReplaceSessions(ctx context.Context, sessions []model.ScheduleSession) error
}

type planRepo struct {
	db *gorm.DB
}

// NewPlanRepo 创建 PlanRepository 实例
func NewPlanRepo(db *gorm.DB) PlanRepository {
	return &planRepo{db: db}
}

func (r *planRepo) Get(ctx context.Context) (*model.ExamPlan, error) {
	var plan model.ExamPlan
	err := r.db.WithContext(ctx).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *planRepo) Save(ctx context.Context, plan *model.ExamPlan) error {
	plan.Singleton = true
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *planRepo) ListSessions(ctx context.Context) ([]model.ScheduleSession, error) {
	var sessions []model.ScheduleSession
	err := r.db.WithContext(ctx).
		Order("position ASC").
		Find(&sessions).Error
	return sessions, err
}

func (r *planRepo) GetSession(ctx context.Context, id string) (*model.ScheduleSession, error) {
	var s model.ScheduleSession
	err := r.db.WithContext(ctx).
		Where("session_id = ?", id).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *planRepo) UpdateSession(ctx context.Context, s *model.ScheduleSession) error {
	return r.db.WithContext(ctx).
		Model(s).
		Where("session_id = ?", s.SessionID).
		Updates(map[string]interface{}{
			"start_time": s.StartTime,
			"end_time":   s.EndTime,
			"subject":    s.Subject,
			"is_active":  s.IsActive,
		}).Error
}

// ReplaceSessions 清空并重建全部场次
func (r *planRepo) ReplaceSessions(ctx context.Context, sessions []model.ScheduleSession) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.ScheduleSession{}).Error; err != nil {
			return err
		}
		if len(sessions) == 0 {
			return nil
		}
		return tx.Create(&sessions).Error
	})
}
