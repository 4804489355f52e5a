package service

import (
	"context"

	"go.uber.org/zap"

	"exam-control/internal/model"
	"exam-control/internal/repository"
	pkgerrors "exam-control/pkg/errors"
)

// StudentService 学生名册业务接口
type StudentService interface {
	// List 按导入顺序返回学生名册
	List(ctx context.Context) ([]model.Student, error)
	// Clear 清空名册（已分配的试卷袋不受影响），须显式确认
	Clear(ctx context.Context, confirm bool) (int64, error)
}

type studentService struct {
	repo   *repository.Repository
	feed   ChangeFeed
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, feed ChangeFeed, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, feed: feed, logger: logger}
}

func (s *studentService) List(ctx context.Context) ([]model.Student, error) {
	list, err := s.repo.Student.ListOrdered(ctx)
	if err != nil {
		s.logger.Error("查询学生名册失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *studentService) Clear(ctx context.Context, confirm bool) (int64, error) {
	if !confirm {
		return 0, pkgerrors.ErrConfirmationRequired
	}
	n, err := s.repo.Student.DeleteAll(ctx)
	if err != nil {
		s.logger.Error("清空学生名册失败", zap.Error(err))
		return 0, err
	}
	s.logger.Info("已清空学生名册", zap.Int64("deleted", n))
	s.feed.Publish(ctx, ChangeEvent{Kind: EventStudents})
	return n, nil
}
