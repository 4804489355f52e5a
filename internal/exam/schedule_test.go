package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-control/internal/model"
)

func TestSessionDate_TwoSlotsPerDay(t *testing.T) {
	want := []string{
		"2025-12-26", "2025-12-26",
		"2025-12-27", "2025-12-27",
		"2025-12-28", "2025-12-28",
		"2025-12-29", "2025-12-29",
		"2025-12-30", "2025-12-30",
	}
	for k, w := range want {
		assert.Equal(t, w, SessionDate(examDay, k).Format("2006-01-02"), "slot %d", k)
	}
}

func TestSessionDate_CrossesMonth(t *testing.T) {
	start := time.Date(2026, 1, 30, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, "2026-02-01", SessionDate(start, 5).Format("2006-01-02"))
}

func TestPeriodAt(t *testing.T) {
	assert.Equal(t, model.PeriodFirst, PeriodAt(0))
	assert.Equal(t, model.PeriodSecond, PeriodAt(1))
	assert.Equal(t, model.PeriodFirst, PeriodAt(8))
}

func TestDefaultSessions(t *testing.T) {
	sessions := DefaultSessions(5)
	require.Len(t, sessions, 10)

	assert.Equal(t, "s-0-1", sessions[0].SessionID)
	assert.Equal(t, "رياضيات", sessions[0].Subject)
	assert.True(t, sessions[0].IsActive)

	assert.Equal(t, "s-0-2", sessions[1].SessionID)
	assert.Equal(t, "", sessions[1].Subject)
	assert.True(t, sessions[1].IsActive, "首日第二场默认启用")

	assert.Equal(t, "s-4-1", sessions[8].SessionID)
	assert.Equal(t, "فيزياء", sessions[8].Subject)
	assert.False(t, sessions[9].IsActive)

	for i, s := range sessions {
		assert.Equal(t, i, s.Position)
	}
	assert.Nil(t, DefaultSessions(0))
}

func TestPlanSessions_ReDerivesOnStartChange(t *testing.T) {
	sessions := DefaultSessions(2)

	planned := PlanSessions(examDay, sessions)
	assert.Equal(t, "2025-12-27", planned[2].Date.Format("2006-01-02"))

	moved := PlanSessions(examDay.AddDate(0, 0, 3), sessions)
	assert.Equal(t, "2025-12-30", moved[2].Date.Format("2006-01-02"))
	assert.Equal(t, model.PeriodSecond, moved[3].Period)
}

func TestApplySession_SkipsTemplates(t *testing.T) {
	envs := []model.ExamEnvelope{
		{EnvelopeID: "COM_1", Committee: "1"},
		{EnvelopeID: "TEMP_2", Committee: "2"},
		{EnvelopeID: "COM_3", Committee: "3"},
	}
	planned := PlanSessions(examDay, DefaultSessions(1))

	n, err := ApplySession(envs, planned[0])
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Equal(t, "رياضيات", envs[0].Subject)
	assert.Equal(t, model.PeriodFirst, envs[0].Period)
	require.NotNil(t, envs[2].ExamDate)
	assert.Equal(t, "", envs[1].Subject, "模板不应被修改")
}

func TestApplySession_NoCommittees(t *testing.T) {
	planned := PlanSessions(examDay, DefaultSessions(1))
	_, err := ApplySession([]model.ExamEnvelope{{EnvelopeID: "TEMP_1"}}, planned[0])
	assert.ErrorIs(t, err, ErrNoCommittees)
}

func TestExpand_CrossProduct(t *testing.T) {
	sessions := DefaultSessions(2)
	sessions[1].Subject = "أحياء"
	sessions[3].IsActive = true // 第二天第二场启用但科目为空，不应展开

	templates := []model.ExamEnvelope{
		{EnvelopeID: "TEMP_2", Committee: "2", Venue: "B", Students: []model.Student{{StudentID: "2001", Status: model.AttendanceAbsent}}},
		{EnvelopeID: "TEMP_1", Committee: "1", Venue: "A", Students: []model.Student{{StudentID: "1001"}}},
	}

	out, err := Expand(PlanSessions(examDay, sessions), templates)
	require.NoError(t, err)
	// 可用场次：s-0-1, s-0-2, s-1-1
	require.Len(t, out, 6)

	assert.Equal(t, "ENV_s-0-1_1", out[0].EnvelopeID)
	assert.Equal(t, "ENV_s-0-1_2", out[1].EnvelopeID)
	assert.Equal(t, "ENV_s-0-2_1", out[2].EnvelopeID)
	assert.Equal(t, "أحياء", out[2].Subject)
	assert.Equal(t, model.PeriodSecond, out[2].Period)
	assert.Equal(t, "ENV_s-1-1_2", out[5].EnvelopeID)
	assert.Equal(t, "2025-12-27", out[5].ExamDate.Format("2006-01-02"))
	assert.Equal(t, "B", out[5].Venue)
	assert.Equal(t, model.EnvelopeNotReceived, out[5].Status)
	assert.Equal(t, model.AttendancePending, out[1].Students[0].Status)
	assert.Equal(t, model.AttendanceAbsent, templates[0].Students[0].Status, "模板名单不应被修改")
}

func TestExpand_NothingToDo(t *testing.T) {
	inactive := DefaultSessions(1)
	for i := range inactive {
		inactive[i].IsActive = false
	}
	tpl := []model.ExamEnvelope{{EnvelopeID: "TEMP_1", Committee: "1"}}

	_, err := Expand(PlanSessions(examDay, inactive), tpl)
	assert.ErrorIs(t, err, ErrNoActiveSessions)

	_, err = Expand(PlanSessions(examDay, DefaultSessions(1)), []model.ExamEnvelope{{EnvelopeID: "COM_1"}})
	assert.ErrorIs(t, err, ErrNoTemplates)
}
