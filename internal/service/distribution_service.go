package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/repository"
	pkgerrors "exam-control/pkg/errors"
)

// DistributionService 自动分配考场业务接口
type DistributionService interface {
	// Distribute 以导入顺序将全部学生按固定人数切分为考场，整体替换现有非模板试卷袋
	Distribute(ctx context.Context, req *dto.DistributeRequest, confirm bool) (*dto.DistributeResponse, error)
}

type distributionService struct {
	repo      *repository.Repository
	feed      ChangeFeed
	groupSize int
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewDistributionService 创建 DistributionService 实例
func NewDistributionService(
	repo *repository.Repository,
	feed ChangeFeed,
	groupSize int,
	loc *time.Location,
	logger *zap.Logger,
) DistributionService {
	if groupSize <= 0 {
		groupSize = exam.DefaultGroupSize
	}
	if loc == nil {
		loc = time.UTC
	}
	return &distributionService{
		repo:      repo,
		feed:      feed,
		groupSize: groupSize,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

func (s *distributionService) Distribute(ctx context.Context, req *dto.DistributeRequest, confirm bool) (*dto.DistributeResponse, error) {
	if !confirm {
		return nil, pkgerrors.ErrConfirmationRequired
	}

	size := s.groupSize
	if req != nil && req.GroupSize > 0 {
		size = req.GroupSize
	}
	day := s.now().In(s.loc)
	if req != nil && req.Date != "" {
		d, err := dto.ParseDate(req.Date, s.loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = d
	}

	students, err := s.repo.Student.ListOrdered(ctx)
	if err != nil {
		s.logger.Error("查询学生名册失败", zap.Error(err))
		return nil, err
	}

	envs, err := exam.Distribute(students, size, day)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Envelope.ReplaceActive(ctx, envs); err != nil {
		s.logger.Error("写入分配结果失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("考场分配完成",
		zap.Int("committees", len(envs)),
		zap.Int("students", len(students)),
		zap.Int("group_size", size),
	)
	s.feed.Publish(ctx, ChangeEvent{Kind: EventDistribution})

	return &dto.DistributeResponse{
		Committees: len(envs),
		Students:   len(students),
		GroupSize:  size,
	}, nil
}
