package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-control/internal/model"
	"exam-control/internal/repository"
)

var (
	ErrNotificationNotFound    = errors.New("通知不存在")
	ErrInvalidNotificationType = errors.New("未知的通知类型")
)

// NotificationService 通知（告警/审计流水）业务接口
type NotificationService interface {
	// Emit 追加一条通知；envelopeID 可为空
	Emit(ctx context.Context, typ model.NotificationType, message string, envelopeID string) (*model.Notification, error)
	// ListRecent 最近的通知，按时间倒序，条数由配置决定
	ListRecent(ctx context.Context) ([]model.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type notificationService struct {
	repo   *repository.Repository
	feed   ChangeFeed
	limit  int
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, feed ChangeFeed, limit int, logger *zap.Logger) NotificationService {
	if limit <= 0 {
		limit = 10
	}
	return &notificationService{repo: repo, feed: feed, limit: limit, logger: logger}
}

func (s *notificationService) Emit(ctx context.Context, typ model.NotificationType, message string, envelopeID string) (*model.Notification, error) {
	if !typ.Valid() {
		return nil, ErrInvalidNotificationType
	}
	n := &model.Notification{
		NotificationID: uuid.NewString(),
		Message:        message,
		Type:           typ,
		CreatedAt:      time.Now(),
	}
	if envelopeID != "" {
		n.EnvelopeID = &envelopeID
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Error("写入通知失败", zap.String("type", string(typ)), zap.Error(err))
		return nil, err
	}
	s.feed.Publish(ctx, ChangeEvent{Kind: EventNotification, EnvelopeID: envelopeID})
	return n, nil
}

func (s *notificationService) ListRecent(ctx context.Context) ([]model.Notification, error) {
	list, err := s.repo.Notification.ListRecent(ctx, s.limit)
	if err != nil {
		s.logger.Error("查询通知失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotificationNotFound
	}
	if err := s.repo.Notification.MarkRead(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("标记通知已读失败", zap.Error(err))
		return err
	}
	s.feed.Publish(ctx, ChangeEvent{Kind: EventNotification})
	return nil
}
