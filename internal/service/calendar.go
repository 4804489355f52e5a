package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"exam-control/internal/dto"
	"exam-control/internal/exam"
	"exam-control/internal/model"
)

// ── iCalendar 导出 ──────────────────────────────────────────
//
// 职责：将已排期的试卷袋转为标准 iCalendar (RFC 5545)，供监考教师导入手机日历。
//
// 规则：
//   - 仅导出有日期且起止时间合法的非模板试卷袋
//   - teacherID 非空时只导出该教师领取的试卷袋
//   - UID 使用试卷袋 ID，重复导入会覆盖而不是新增
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//exam-control//exam schedule//AR"

func (s *exportService) ExportCalendar(ctx context.Context, teacherID string) ([]byte, string, error) {
	var (
		envs []model.ExamEnvelope
		err  error
	)
	if teacherID != "" {
		if _, err := s.repo.Teacher.GetByID(ctx, teacherID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", ErrTeacherNotFound
			}
			s.logger.Error("查询教师失败", zap.Error(err))
			return nil, "", err
		}
		envs, err = s.repo.Envelope.ListByTeacher(ctx, teacherID)
	} else {
		envs, err = s.repo.Envelope.ListActive(ctx)
	}
	if err != nil {
		s.logger.Error("查询试卷袋失败", zap.Error(err))
		return nil, "", err
	}

	cal, n := buildCalendar(envs, s.loc, s.baseURL, s.now())
	if n == 0 {
		return nil, "", ErrExportNoEnvelopes
	}

	filename := "exam-schedule.ics"
	if teacherID != "" {
		filename = fmt.Sprintf("exam-schedule-%s.ics", teacherID)
	}
	return []byte(cal.Serialize()), filename, nil
}

// buildCalendar 返回日历与实际写入的事件数
func buildCalendar(envs []model.ExamEnvelope, loc *time.Location, baseURL string, now time.Time) (*ics.Calendar, int) {
	sorted := make([]model.ExamEnvelope, 0, len(envs))
	for _, e := range envs {
		if !e.IsTemplate() {
			sorted = append(sorted, e)
		}
	}
	exam.SortByCommittee(sorted)

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	n := 0
	for i := range sorted {
		e := &sorted[i]
		start, end, ok := envelopeWindow(e, loc)
		if !ok {
			continue
		}

		evt := cal.AddEvent(e.EnvelopeID)
		evt.SetDtStampTime(now)
		evt.SetStartAt(start)
		evt.SetEndAt(end)
		evt.SetSummary(fmt.Sprintf("%s - لجنة %s", e.Subject, e.Committee))
		if e.Venue != "" {
			evt.SetLocation(e.Venue)
		}

		desc := []string{fmt.Sprintf("عدد الطلاب: %d", len(e.Students))}
		if label := e.Period.Label(); label != "" {
			desc = append(desc, label)
		}
		if e.TeacherName != nil && *e.TeacherName != "" {
			desc = append(desc, "المراقب: "+*e.TeacherName)
		}
		evt.SetDescription(strings.Join(desc, "\n"))
		if baseURL != "" {
			evt.SetURL(baseURL + "/api/v1/envelopes/" + e.EnvelopeID)
		}
		n++
	}
	return cal, n
}

// envelopeWindow 组合考试日期与 HH:MM，得到考务时区内的起止时间
func envelopeWindow(e *model.ExamEnvelope, loc *time.Location) (time.Time, time.Time, bool) {
	if e.ExamDate == nil || !dto.IsClock(e.StartTime) || !dto.IsClock(e.EndTime) {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := e.ExamDate.Date()
	start, err1 := time.ParseInLocation(dto.ClockLayout, e.StartTime, loc)
	end, err2 := time.ParseInLocation(dto.ClockLayout, e.EndTime, loc)
	if err1 != nil || err2 != nil {
		return time.Time{}, time.Time{}, false
	}
	s := time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, loc)
	t := time.Date(y, m, d, end.Hour(), end.Minute(), 0, 0, loc)
	if !t.After(s) {
		return time.Time{}, time.Time{}, false
	}
	return s, t, true
}
