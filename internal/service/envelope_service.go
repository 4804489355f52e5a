package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/model"
	"exam-control/internal/repository"
	pkgerrors "exam-control/pkg/errors"
	"exam-control/pkg/metrics"
)

// ── 试卷袋模块业务错误 ──

var (
	ErrEnvelopeNotFound   = errors.New("试卷袋不存在")
	ErrCommitteeNotFound  = errors.New("未找到该考场的试卷袋")
	ErrNotAssignedProctor = errors.New("该试卷袋已由其他监考教师领取")
	ErrInvalidDate        = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidStatus      = errors.New("未知的试卷袋状态")
)

// maxLockRetries 乐观锁冲突时的重试次数
const maxLockRetries = 3

// EnvelopeService 试卷袋生命周期与考勤业务接口
type EnvelopeService interface {
	List(ctx context.Context, q *dto.EnvelopeListQuery) ([]dto.EnvelopeResponse, error)
	Get(ctx context.Context, id string) (*dto.EnvelopeResponse, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]dto.EnvelopeResponse, error)
	// OpenCommittee 监考人按考场编号开启试卷袋（扫码或手动选择）
	OpenCommittee(ctx context.Context, req *dto.OpenCommitteeRequest, actor Actor) (*dto.OpenEnvelopeResponse, error)
	Submit(ctx context.Context, id string, actor Actor) (*dto.EnvelopeResponse, error)
	SetAttendance(ctx context.Context, id, studentID, status string, actor Actor) (*model.Student, error)
	ToggleAttendance(ctx context.Context, id, studentID string, actor Actor) (*model.Student, error)
}

type envelopeService struct {
	repo   *repository.Repository
	notify NotificationService
	feed   ChangeFeed
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewEnvelopeService 创建 EnvelopeService 实例
func NewEnvelopeService(
	repo *repository.Repository,
	notify NotificationService,
	feed ChangeFeed,
	loc *time.Location,
	logger *zap.Logger,
) EnvelopeService {
	if loc == nil {
		loc = time.UTC
	}
	return &envelopeService{
		repo:   repo,
		notify: notify,
		feed:   feed,
		loc:    loc,
		now:    time.Now,
		logger: logger,
	}
}

// ────────────────────── 查询 ──────────────────────

func (s *envelopeService) List(ctx context.Context, q *dto.EnvelopeListQuery) ([]dto.EnvelopeResponse, error) {
	var (
		envs []model.ExamEnvelope
		err  error
	)
	committee := strings.TrimSpace(q.Committee)
	if committee != "" {
		envs, err = s.repo.Envelope.ListByCommittee(ctx, committee)
	} else {
		envs, err = s.repo.Envelope.ListActive(ctx)
	}
	if err != nil {
		s.logger.Error("查询试卷袋列表失败", zap.Error(err))
		return nil, err
	}

	var day *time.Time
	if q.Date != "" {
		d, err := dto.ParseDate(q.Date, s.loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = &d
	}
	var status model.EnvelopeStatus
	if q.Status != "" {
		if status, err = model.ParseEnvelopeStatus(q.Status); err != nil {
			return nil, ErrInvalidStatus
		}
	}

	filtered := envs[:0]
	for _, e := range envs {
		if status != "" && e.Status != status {
			continue
		}
		if day != nil && (e.ExamDate == nil || !sameDate(*e.ExamDate, *day)) {
			continue
		}
		filtered = append(filtered, e)
	}
	exam.SortByCommittee(filtered)
	return toEnvelopeResponses(filtered), nil
}

func (s *envelopeService) Get(ctx context.Context, id string) (*dto.EnvelopeResponse, error) {
	env, err := s.getEnvelope(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := dto.NewEnvelopeResponse(env)
	return &resp, nil
}

func (s *envelopeService) ListByTeacher(ctx context.Context, teacherID string) ([]dto.EnvelopeResponse, error) {
	if _, err := s.repo.Teacher.GetByID(ctx, teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Error(err))
		return nil, err
	}
	envs, err := s.repo.Envelope.ListByTeacher(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询教师试卷袋失败", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, err
	}
	exam.SortByCommittee(envs)
	return toEnvelopeResponses(envs), nil
}

// ────────────────────── OpenCommittee ──────────────────────

func (s *envelopeService) OpenCommittee(ctx context.Context, req *dto.OpenCommitteeRequest, actor Actor) (*dto.OpenEnvelopeResponse, error) {
	committee := strings.TrimPrefix(strings.TrimSpace(req.Committee), envelopeQRPrefix)
	var day *time.Time
	if req.Date != "" {
		d, err := dto.ParseDate(req.Date, s.loc)
		if err != nil {
			return nil, ErrInvalidDate
		}
		day = &d
	}

	envs, err := s.repo.Envelope.ListByCommittee(ctx, committee)
	if err != nil {
		s.logger.Error("按考场查询试卷袋失败", zap.String("committee", committee), zap.Error(err))
		return nil, err
	}
	target, ok := exam.ResolveCommittee(envs, committee, day)
	if !ok {
		return nil, ErrCommitteeNotFound
	}

	var result exam.OpenResult
	env, err := s.mutate(ctx, target.EnvelopeID, actor, func(env *model.ExamEnvelope) error {
		var err error
		result, err = exam.Open(env, exam.Proctor{ID: actor.ProctorID(), Name: actor.Name}, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	if result.Transitioned {
		s.afterTransition(ctx, env)
	} else {
		s.feed.Publish(ctx, ChangeEvent{Kind: EventEnvelope, EnvelopeID: env.EnvelopeID, Status: string(env.Status)})
	}

	return &dto.OpenEnvelopeResponse{
		Envelope:     dto.NewEnvelopeResponse(env),
		Transitioned: result.Transitioned,
		Initialized:  result.Initialized,
	}, nil
}

// ────────────────────── Submit ──────────────────────

func (s *envelopeService) Submit(ctx context.Context, id string, actor Actor) (*dto.EnvelopeResponse, error) {
	env, err := s.mutate(ctx, id, actor, func(env *model.ExamEnvelope) error {
		return exam.Submit(env, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, env)
	resp := dto.NewEnvelopeResponse(env)
	return &resp, nil
}

// ────────────────────── 考勤 ──────────────────────

func (s *envelopeService) SetAttendance(ctx context.Context, id, studentID, status string, actor Actor) (*model.Student, error) {
	target, err := model.ParseAttendanceStatus(status)
	if err != nil {
		return nil, exam.ErrInvalidAttendance
	}
	return s.changeAttendance(ctx, id, actor, func(env *model.ExamEnvelope) (model.Student, error) {
		return exam.SetAttendance(env, studentID, target)
	})
}

func (s *envelopeService) ToggleAttendance(ctx context.Context, id, studentID string, actor Actor) (*model.Student, error) {
	return s.changeAttendance(ctx, id, actor, func(env *model.ExamEnvelope) (model.Student, error) {
		return exam.ToggleAttendance(env, studentID)
	})
}

func (s *envelopeService) changeAttendance(
	ctx context.Context,
	id string,
	actor Actor,
	apply func(env *model.ExamEnvelope) (model.Student, error),
) (*model.Student, error) {
	var student model.Student
	env, err := s.mutate(ctx, id, actor, func(env *model.ExamEnvelope) error {
		var err error
		student, err = apply(env)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 每次标记缺席都告警一次（重复标记也会再次告警）
	if student.Status == model.AttendanceAbsent {
		metrics.AbsencesMarked.Inc()
		s.emit(ctx, model.NotificationAlert, exam.AbsenceMessage(student.Name, env.Committee), env.EnvelopeID)
	}
	s.feed.Publish(ctx, ChangeEvent{Kind: EventEnvelope, EnvelopeID: env.EnvelopeID, Status: string(env.Status)})
	return &student, nil
}

// ── 内部辅助 ──

func (s *envelopeService) getEnvelope(ctx context.Context, id string) (*model.ExamEnvelope, error) {
	env, err := s.repo.Envelope.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEnvelopeNotFound
		}
		s.logger.Error("查询试卷袋失败", zap.String("envelope_id", id), zap.Error(err))
		return nil, err
	}
	return env, nil
}

// mutate 读取 → 校验监考人 → 应用变更 → 乐观锁写回；版本冲突时重新读取并重试
func (s *envelopeService) mutate(
	ctx context.Context,
	id string,
	actor Actor,
	apply func(env *model.ExamEnvelope) error,
) (*model.ExamEnvelope, error) {
	var lastErr error
	for attempt := 0; attempt < maxLockRetries; attempt++ {
		env, err := s.getEnvelope(ctx, id)
		if err != nil {
			return nil, err
		}
		if !actor.CanHandle(env) {
			return nil, ErrNotAssignedProctor
		}
		if err := apply(env); err != nil {
			return nil, err
		}

		err = s.repo.Envelope.Update(ctx, env)
		if err == nil {
			return env, nil
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新试卷袋失败", zap.String("envelope_id", id), zap.Error(err))
			return nil, err
		}
		lastErr = err
		s.logger.Warn("试卷袋版本冲突，重试", zap.String("envelope_id", id), zap.Int("attempt", attempt+1))
	}
	return nil, lastErr
}

// afterTransition 状态迁移后的指标、通知与广播
func (s *envelopeService) afterTransition(ctx context.Context, env *model.ExamEnvelope) {
	metrics.EnvelopeTransitions.WithLabelValues(string(env.Status)).Inc()
	s.emit(ctx, model.NotificationInfo, exam.TransitionMessage(env.Status, env.EnvelopeID), env.EnvelopeID)
	s.feed.Publish(ctx, ChangeEvent{Kind: EventEnvelope, EnvelopeID: env.EnvelopeID, Status: string(env.Status)})
	s.logger.Info("试卷袋状态变更",
		zap.String("envelope_id", env.EnvelopeID),
		zap.String("status", string(env.Status)),
	)
}

// emit 写通知失败不影响主流程
func (s *envelopeService) emit(ctx context.Context, typ model.NotificationType, msg, envelopeID string) {
	if _, err := s.notify.Emit(ctx, typ, msg, envelopeID); err != nil {
		s.logger.Warn("通知写入失败，已忽略", zap.String("envelope_id", envelopeID), zap.Error(err))
	}
}

func toEnvelopeResponses(envs []model.ExamEnvelope) []dto.EnvelopeResponse {
	out := make([]dto.EnvelopeResponse, 0, len(envs))
	for i := range envs {
		out = append(out, dto.NewEnvelopeResponse(&envs[i]))
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
