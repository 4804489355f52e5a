package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-control/config"
	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/model"
	"exam-control/internal/repository"
)

// ── 日程规划模块业务错误 ──

var (
	ErrSessionNotFound  = errors.New("考试场次不存在")
	ErrInvalidTimeRange = errors.New("结束时间必须晚于开始时间")
	ErrNoSessions       = errors.New("尚未配置考试场次")
)

// PlannerService 考试日程规划业务接口
//
// 场次的日期与时段不落库，每次读取时由开考日期与场次序号推导，
// 因此修改开考日期即可整体平移全部场次。
type PlannerService interface {
	GetPlan(ctx context.Context) (*dto.ScheduleResponse, error)
	SetStartDate(ctx context.Context, req *dto.SetStartDateRequest) (*dto.ScheduleResponse, error)
	ResetSessions(ctx context.Context, days int) (*dto.ScheduleResponse, error)
	UpdateSession(ctx context.Context, id string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error)
	// ApplySession 将一个场次的日程复制到全部现有考场；sessionID 为空时取第一个场次
	ApplySession(ctx context.Context, sessionID string) (*dto.ApplySessionResponse, error)
	// Expand 可用场次 × 考场模板 → 带日期的试卷袋，成功后删除模板
	Expand(ctx context.Context) (*dto.ExpandResponse, error)
}

type plannerService struct {
	repo   *repository.Repository
	feed   ChangeFeed
	cfg    *config.ExamConfig
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewPlannerService 创建 PlannerService 实例
func NewPlannerService(repo *repository.Repository, feed ChangeFeed, cfg *config.ExamConfig, logger *zap.Logger) PlannerService {
	return &plannerService{
		repo:   repo,
		feed:   feed,
		cfg:    cfg,
		loc:    cfg.Location(),
		now:    time.Now,
		logger: logger,
	}
}

// ────────────────────── GetPlan ──────────────────────

func (s *plannerService) GetPlan(ctx context.Context) (*dto.ScheduleResponse, error) {
	start, planned, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return toScheduleResponse(start, planned), nil
}

// ────────────────────── SetStartDate ──────────────────────

func (s *plannerService) SetStartDate(ctx context.Context, req *dto.SetStartDateRequest) (*dto.ScheduleResponse, error) {
	d, err := dto.ParseDate(req.StartDate, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if err := s.repo.Plan.Save(ctx, &model.ExamPlan{StartDate: d}); err != nil {
		s.logger.Error("保存开考日期失败", zap.Error(err))
		return nil, err
	}
	s.feed.Publish(ctx, ChangeEvent{Kind: EventSchedule})
	return s.GetPlan(ctx)
}

// ────────────────────── ResetSessions ──────────────────────

func (s *plannerService) ResetSessions(ctx context.Context, days int) (*dto.ScheduleResponse, error) {
	if days <= 0 {
		days = s.cfg.DefaultDays
	}
	if err := s.repo.Plan.ReplaceSessions(ctx, exam.DefaultSessions(days)); err != nil {
		s.logger.Error("重建默认场次失败", zap.Error(err))
		return nil, err
	}
	s.feed.Publish(ctx, ChangeEvent{Kind: EventSchedule})
	return s.GetPlan(ctx)
}

// ────────────────────── UpdateSession ──────────────────────

func (s *plannerService) UpdateSession(ctx context.Context, id string, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	sess, err := s.repo.Plan.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		s.logger.Error("查询场次失败", zap.Error(err))
		return nil, err
	}

	if req.StartTime != nil {
		sess.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		sess.EndTime = *req.EndTime
	}
	if req.Subject != nil {
		sess.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.IsActive != nil {
		sess.IsActive = *req.IsActive
	}
	// HH:MM 定长，字符串比较即时间先后
	if sess.EndTime <= sess.StartTime {
		return nil, ErrInvalidTimeRange
	}

	if err := s.repo.Plan.UpdateSession(ctx, sess); err != nil {
		s.logger.Error("更新场次失败", zap.Error(err))
		return nil, err
	}

	start, err := s.startDate(ctx)
	if err != nil {
		return nil, err
	}
	s.feed.Publish(ctx, ChangeEvent{Kind: EventSchedule})

	planned := exam.PlanSessions(start, []model.ScheduleSession{*sess})
	resp := toSessionResponse(planned[0])
	return &resp, nil
}

// ────────────────────── ApplySession ──────────────────────

func (s *plannerService) ApplySession(ctx context.Context, sessionID string) (*dto.ApplySessionResponse, error) {
	_, planned, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(planned) == 0 {
		return nil, ErrNoSessions
	}

	target := planned[0]
	if sessionID != "" {
		found := false
		for _, p := range planned {
			if p.SessionID == sessionID {
				target, found = p, true
				break
			}
		}
		if !found {
			return nil, ErrSessionNotFound
		}
	}

	envs, err := s.repo.Envelope.ListActive(ctx)
	if err != nil {
		s.logger.Error("查询试卷袋失败", zap.Error(err))
		return nil, err
	}
	n, err := exam.ApplySession(envs, target)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Envelope.UpdateSchedules(ctx, envs); err != nil {
		s.logger.Error("写回试卷袋日程失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("场次已应用到全部考场", zap.String("session_id", target.SessionID), zap.Int("updated", n))
	s.feed.Publish(ctx, ChangeEvent{Kind: EventSchedule})
	return &dto.ApplySessionResponse{SessionID: target.SessionID, Updated: n}, nil
}

// ────────────────────── Expand ──────────────────────

func (s *plannerService) Expand(ctx context.Context) (*dto.ExpandResponse, error) {
	_, planned, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	templates, err := s.repo.Envelope.ListTemplates(ctx)
	if err != nil {
		s.logger.Error("查询考场模板失败", zap.Error(err))
		return nil, err
	}

	created, err := exam.Expand(planned, templates)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.EnvelopeID
	}
	if err := s.repo.Envelope.ExpandTemplates(ctx, created, ids); err != nil {
		s.logger.Error("写入展开结果失败", zap.Error(err))
		return nil, err
	}

	sessions := 0
	for _, p := range planned {
		if p.Schedulable() {
			sessions++
		}
	}
	s.logger.Info("模板展开完成",
		zap.Int("created", len(created)),
		zap.Int("templates", len(templates)),
		zap.Int("sessions", sessions),
	)
	s.feed.Publish(ctx, ChangeEvent{Kind: EventSchedule})

	return &dto.ExpandResponse{Created: len(created), Templates: len(templates), Sessions: sessions}, nil
}

// ── 内部辅助 ──

// load 读取开考日期与场次；首次访问时按配置写入默认值
func (s *plannerService) load(ctx context.Context) (time.Time, []exam.PlannedSession, error) {
	start, err := s.startDate(ctx)
	if err != nil {
		return time.Time{}, nil, err
	}

	sessions, err := s.repo.Plan.ListSessions(ctx)
	if err != nil {
		s.logger.Error("查询场次失败", zap.Error(err))
		return time.Time{}, nil, err
	}
	if len(sessions) == 0 {
		sessions = exam.DefaultSessions(s.cfg.DefaultDays)
		if err := s.repo.Plan.ReplaceSessions(ctx, sessions); err != nil {
			s.logger.Error("写入默认场次失败", zap.Error(err))
			return time.Time{}, nil, err
		}
	}
	return start, exam.PlanSessions(start, sessions), nil
}

func (s *plannerService) startDate(ctx context.Context) (time.Time, error) {
	plan, err := s.repo.Plan.Get(ctx)
	if err == nil {
		return plan.StartDate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询考试计划失败", zap.Error(err))
		return time.Time{}, err
	}

	start := s.now().In(s.loc)
	if s.cfg.StartDate != "" {
		if d, perr := dto.ParseDate(s.cfg.StartDate, s.loc); perr == nil {
			start = d
		}
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	if err := s.repo.Plan.Save(ctx, &model.ExamPlan{StartDate: start}); err != nil {
		s.logger.Error("写入默认考试计划失败", zap.Error(err))
		return time.Time{}, err
	}
	return start, nil
}

func toScheduleResponse(start time.Time, planned []exam.PlannedSession) *dto.ScheduleResponse {
	resp := &dto.ScheduleResponse{
		StartDate: start.Format(dto.DateLayout),
		Sessions:  make([]dto.SessionResponse, 0, len(planned)),
	}
	for _, p := range planned {
		resp.Sessions = append(resp.Sessions, toSessionResponse(p))
	}
	return resp
}

func toSessionResponse(p exam.PlannedSession) dto.SessionResponse {
	return dto.SessionResponse{
		ID:          p.SessionID,
		Position:    p.Position,
		Date:        p.Date.Format(dto.DateLayout),
		Period:      string(p.Period),
		PeriodLabel: p.Period.Label(),
		StartTime:   p.StartTime,
		EndTime:     p.EndTime,
		Subject:     p.Subject,
		IsActive:    p.IsActive,
	}
}
