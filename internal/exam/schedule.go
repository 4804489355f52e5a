package exam

import (
	"errors"
	"fmt"
	"time"

	"exam-control/internal/model"
)

// SessionsPerDay 每个考试日的场次数
const SessionsPerDay = 2

var (
	ErrNoActiveSessions = errors.New("没有可用的考试场次（需启用且已填写科目）")
	ErrNoTemplates      = errors.New("没有可展开的考场模板")
	ErrNoCommittees     = errors.New("请先分配考场")
)

// defaultSubjects 默认科目（每天第一场）
var defaultSubjects = []string{"رياضيات", "كفايات لغوية", "لغة إنجليزية", "كيمياء", "فيزياء"}

// PlannedSession 已推导出日期与时段的场次
type PlannedSession struct {
	model.ScheduleSession
	Date   time.Time
	Period model.Period
}

// Schedulable 场次能否参与展开：必须启用且已填写科目
func (p PlannedSession) Schedulable() bool {
	return p.IsActive && p.Subject != ""
}

// SessionDate 第 k 个场次（从 0 开始）的日期：start + floor(k/2) 天
func SessionDate(start time.Time, k int) time.Time {
	return truncateDay(start).AddDate(0, 0, k/SessionsPerDay)
}

// PeriodAt 第 k 个场次的时段：偶数为第一场，奇数为第二场
func PeriodAt(k int) model.Period {
	if k%SessionsPerDay == 0 {
		return model.PeriodFirst
	}
	return model.PeriodSecond
}

// SessionID 场次 ID：day 从 0 计数，period 取 1 或 2
func SessionID(day, period int) string {
	return fmt.Sprintf("s-%d-%d", day, period)
}

// DefaultSessions 生成 days 天的默认场次
// 第一场 07:30-10:00 使用默认科目并启用；第二场 10:30-12:30 科目留空，仅首日启用
func DefaultSessions(days int) []model.ScheduleSession {
	if days <= 0 {
		return nil
	}
	sessions := make([]model.ScheduleSession, 0, days*SessionsPerDay)
	for i := 0; i < days; i++ {
		subject := ""
		if i < len(defaultSubjects) {
			subject = defaultSubjects[i]
		}
		sessions = append(sessions,
			model.ScheduleSession{
				SessionID: SessionID(i, 1),
				Position:  i * SessionsPerDay,
				StartTime: DefaultStartTime,
				EndTime:   DefaultEndTime,
				Subject:   subject,
				IsActive:  true,
			},
			model.ScheduleSession{
				SessionID: SessionID(i, 2),
				Position:  i*SessionsPerDay + 1,
				StartTime: "10:30",
				EndTime:   "12:30",
				Subject:   "",
				IsActive:  i == 0,
			},
		)
	}
	return sessions
}

// PlanSessions 按开考日期为全部场次推导日期与时段
// 结果按 Position 升序；修改开考日期后重新调用即可完成整体重排
func PlanSessions(start time.Time, sessions []model.ScheduleSession) []PlannedSession {
	planned := make([]PlannedSession, len(sessions))
	for i, s := range sessions {
		planned[i] = PlannedSession{
			ScheduleSession: s,
			Date:            SessionDate(start, s.Position),
			Period:          PeriodAt(s.Position),
		}
	}
	sortPlanned(planned)
	return planned
}

// ApplySession 将单个场次的日期/时间/科目/时段复制到所有非模板试卷袋
// 返回被修改的试卷袋数量
func ApplySession(envelopes []model.ExamEnvelope, session PlannedSession) (int, error) {
	n := 0
	for i := range envelopes {
		env := &envelopes[i]
		if env.IsTemplate() {
			continue
		}
		setSchedule(env, session)
		n++
	}
	if n == 0 {
		return 0, ErrNoCommittees
	}
	return n, nil
}

// Expand 为每个可用场次 × 每个模板生成一个试卷袋
//
// 生成的 ID 为 ENV_{sessionID}_{committee}，考场/地点/学生取自模板，日程取自场次。
// 没有可用场次或没有模板时返回错误，此时不应删除任何模板。
func Expand(sessions []PlannedSession, templates []model.ExamEnvelope) ([]model.ExamEnvelope, error) {
	var active []PlannedSession
	for _, s := range sessions {
		if s.Schedulable() {
			active = append(active, s)
		}
	}
	if len(active) == 0 {
		return nil, ErrNoActiveSessions
	}

	var tpls []model.ExamEnvelope
	for _, t := range templates {
		if t.IsTemplate() {
			tpls = append(tpls, t)
		}
	}
	if len(tpls) == 0 {
		return nil, ErrNoTemplates
	}
	SortByCommittee(tpls)

	out := make([]model.ExamEnvelope, 0, len(active)*len(tpls))
	for _, s := range active {
		for _, t := range tpls {
			roster := make([]model.Student, len(t.Students))
			for i, st := range t.Students {
				st.Status = model.AttendancePending
				roster[i] = st
			}
			env := model.ExamEnvelope{
				EnvelopeID: fmt.Sprintf("%s%s_%s", ExpandedPrefix, s.SessionID, t.Committee),
				Committee:  t.Committee,
				Venue:      t.Venue,
				Status:     model.EnvelopeNotReceived,
				Students:   roster,
			}
			setSchedule(&env, s)
			out = append(out, env)
		}
	}
	return out, nil
}

func setSchedule(env *model.ExamEnvelope, s PlannedSession) {
	d := s.Date
	env.ExamDate = &d
	env.StartTime = s.StartTime
	env.EndTime = s.EndTime
	env.Subject = s.Subject
	env.Period = s.Period
}
