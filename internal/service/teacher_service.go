package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-control/internal/dto"
	"exam-control/internal/model"
	"exam-control/internal/repository"
	pkgerrors "exam-control/pkg/errors"
)

var ErrTeacherNotFound = errors.New("教师不存在")

// TeacherService 监考教师业务接口
type TeacherService interface {
	List(ctx context.Context) ([]model.Teacher, error)
	Get(ctx context.Context, id string) (*model.Teacher, error)
	// Clear 删除全部教师并清空所有试卷袋上的监考人，须显式确认
	Clear(ctx context.Context, confirm bool) (*dto.ClearTeachersResponse, error)
}

type teacherService struct {
	repo   *repository.Repository
	feed   ChangeFeed
	logger *zap.Logger
}

// NewTeacherService 创建 TeacherService 实例
func NewTeacherService(repo *repository.Repository, feed ChangeFeed, logger *zap.Logger) TeacherService {
	return &teacherService{repo: repo, feed: feed, logger: logger}
}

func (s *teacherService) List(ctx context.Context) ([]model.Teacher, error) {
	list, err := s.repo.Teacher.List(ctx)
	if err != nil {
		s.logger.Error("查询教师列表失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *teacherService) Get(ctx context.Context, id string) (*model.Teacher, error) {
	t, err := s.repo.Teacher.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	return t, nil
}

func (s *teacherService) Clear(ctx context.Context, confirm bool) (*dto.ClearTeachersResponse, error) {
	if !confirm {
		return nil, pkgerrors.ErrConfirmationRequired
	}
	deleted, cleared, err := s.repo.Teacher.ClearAll(ctx)
	if err != nil {
		s.logger.Error("清空教师失败", zap.Error(err))
		return nil, err
	}
	s.logger.Info("已清空教师", zap.Int64("deleted", deleted), zap.Int64("envelopes_cleared", cleared))
	s.feed.Publish(ctx, ChangeEvent{Kind: EventTeachers})
	return &dto.ClearTeachersResponse{Deleted: deleted, EnvelopesCleared: cleared}, nil
}
