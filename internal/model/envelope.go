package model

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// TemplatePrefix 模板试卷袋 ID 前缀：模板只承载分组，不参与考试流程
const TemplatePrefix = "TEMP_"

// ExamEnvelope 试卷袋表 — 对应 envelopes
type ExamEnvelope struct {
	EnvelopeID  string                      `gorm:"type:varchar(100);primaryKey"           json:"id"`
	Committee   string                      `gorm:"type:varchar(20);not null;index"        json:"committee"`
	Venue       string                      `gorm:"type:varchar(200);not null;default:''"  json:"venue"`
	Subject     string                      `gorm:"type:varchar(200);not null;default:''"  json:"subject"`
	ExamDate    *time.Time                  `gorm:"type:date"                              json:"date,omitempty"`
	StartTime   string                      `gorm:"type:varchar(5);not null;default:''"    json:"start_time"`
	EndTime     string                      `gorm:"type:varchar(5);not null;default:''"    json:"end_time"`
	Period      Period                      `gorm:"type:varchar(10);not null;default:''"   json:"period,omitempty"`
	Status      EnvelopeStatus              `gorm:"type:varchar(30);not null;default:'NOT_RECEIVED'" json:"status"`
	Students    datatypes.JSONSlice[Student] `gorm:"type:jsonb;not null"                   json:"students"`
	TeacherID   *string                     `gorm:"type:varchar(50);index"                 json:"teacher_id,omitempty"`
	TeacherName *string                     `gorm:"type:varchar(200)"                      json:"teacher_name,omitempty"`
	ReceivedAt  *time.Time                  `json:"received_at,omitempty"`
	SubmittedAt *time.Time                  `json:"submitted_at,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (ExamEnvelope) TableName() string { return "envelopes" }

// IsTemplate 是否为导入模板（不参与考试流程）
func (e *ExamEnvelope) IsTemplate() bool {
	return strings.HasPrefix(e.EnvelopeID, TemplatePrefix)
}

// FindStudent 返回试卷袋内指定座号学生的下标，不存在返回 -1
func (e *ExamEnvelope) FindStudent(studentID string) int {
	for i := range e.Students {
		if e.Students[i].StudentID == studentID {
			return i
		}
	}
	return -1
}
