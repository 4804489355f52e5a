package model

import "time"

// Student 学生表 — 对应 students
// 同一结构也以 JSON 形式内嵌在试卷袋的 students 列中（考勤状态以试卷袋内副本为准）
type Student struct {
	StudentID   string           `gorm:"type:varchar(50);primaryKey"          json:"id"`
	Name        string           `gorm:"type:varchar(200);not null"           json:"name"`
	Grade       string           `gorm:"type:varchar(100);not null;default:''" json:"grade"`
	Classroom   string           `gorm:"type:varchar(100);not null;default:''" json:"class"`
	Phone       string           `gorm:"type:varchar(50);not null;default:''"  json:"phone"`
	Status      AttendanceStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ImportOrder int              `gorm:"not null;default:0"                   json:"-"`
	CreatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"   json:"-"`
	UpdatedAt   time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"   json:"-"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
