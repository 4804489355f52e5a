package exam

import (
	"fmt"
	"time"

	"exam-control/internal/model"
)

// EnvelopeSummary 单个试卷袋的考勤汇总（即发送给智能报告服务的数据）
type EnvelopeSummary struct {
	Subject       string               `json:"subject"`
	Committee     string               `json:"committee"`
	Status        model.EnvelopeStatus `json:"status"`
	AbsentCount   int                  `json:"absentCount"`
	PresentCount  int                  `json:"presentCount"`
	TotalStudents int                  `json:"totalStudents"`
}

// Aggregate 汇总所有非模板试卷袋，不会失败
func Aggregate(envs []model.ExamEnvelope) []EnvelopeSummary {
	out := make([]EnvelopeSummary, 0, len(envs))
	for _, e := range envs {
		if e.IsTemplate() {
			continue
		}
		s := EnvelopeSummary{
			Subject:       e.Subject,
			Committee:     e.Committee,
			Status:        e.Status,
			TotalStudents: len(e.Students),
		}
		for _, st := range e.Students {
			switch st.Status {
			case model.AttendancePresent:
				s.PresentCount++
			case model.AttendanceAbsent:
				s.AbsentCount++
			}
		}
		out = append(out, s)
	}
	return out
}

// Stats 控制台统计
type Stats struct {
	Envelopes     int                          `json:"envelopes"`
	TotalStudents int                          `json:"total_students"`
	Present       int                          `json:"present"`
	Absent        int                          `json:"absent"`
	Pending       int                          `json:"pending"`
	ByStatus      map[model.EnvelopeStatus]int `json:"by_status"`
}

// ComputeStats 统计非模板试卷袋数量与考勤分布
func ComputeStats(envs []model.ExamEnvelope) Stats {
	st := Stats{ByStatus: map[model.EnvelopeStatus]int{
		model.EnvelopeNotReceived: 0,
		model.EnvelopeReceived:    0,
		model.EnvelopeSubmitted:   0,
	}}
	for _, s := range Aggregate(envs) {
		st.Envelopes++
		st.TotalStudents += s.TotalStudents
		st.Present += s.PresentCount
		st.Absent += s.AbsentCount
		st.ByStatus[s.Status]++
	}
	st.Pending = st.TotalStudents - st.Present - st.Absent
	return st
}

// Absence 缺席记录（辅导员跟进视图）
type Absence struct {
	StudentID  string     `json:"student_id"`
	Name       string     `json:"name"`
	Grade      string     `json:"grade"`
	Classroom  string     `json:"class"`
	Phone      string     `json:"phone"`
	Committee  string     `json:"committee"`
	Subject    string     `json:"subject"`
	Venue      string     `json:"venue"`
	EnvelopeID string     `json:"envelope_id"`
	ExamDate   *time.Time `json:"date,omitempty"`
}

// Absences 展开所有非模板试卷袋中的缺席学生，按考场编号排序
func Absences(envs []model.ExamEnvelope) []Absence {
	sorted := make([]model.ExamEnvelope, 0, len(envs))
	for _, e := range envs {
		if !e.IsTemplate() {
			sorted = append(sorted, e)
		}
	}
	SortByCommittee(sorted)

	var out []Absence
	for _, e := range sorted {
		for _, st := range e.Students {
			if st.Status != model.AttendanceAbsent {
				continue
			}
			out = append(out, Absence{
				StudentID:  st.StudentID,
				Name:       st.Name,
				Grade:      st.Grade,
				Classroom:  st.Classroom,
				Phone:      st.Phone,
				Committee:  e.Committee,
				Subject:    e.Subject,
				Venue:      e.Venue,
				EnvelopeID: e.EnvelopeID,
				ExamDate:   e.ExamDate,
			})
		}
	}
	return out
}

// ── 通知文案 ──

// TransitionMessage 试卷袋状态变更通知
func TransitionMessage(status model.EnvelopeStatus, envelopeID string) string {
	return fmt.Sprintf("تحديث: %s في لجنة %s", status.Label(), envelopeID)
}

// AbsenceMessage 学生缺席告警
func AbsenceMessage(studentName, committee string) string {
	return fmt.Sprintf("غياب فوري: الطالب %s في لجنة %s", studentName, committee)
}
