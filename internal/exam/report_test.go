package exam

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-control/internal/model"
)

func sampleEnvelopes() []model.ExamEnvelope {
	d := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)
	return []model.ExamEnvelope{
		{
			EnvelopeID: "COM_10", Committee: "10", Subject: "رياضيات", ExamDate: &d,
			Status: model.EnvelopeReceived,
			Students: []model.Student{
				{StudentID: "a", Name: "A", Status: model.AttendanceAbsent, Phone: "0500"},
				{StudentID: "b", Name: "B", Status: model.AttendancePresent},
			},
		},
		{
			EnvelopeID: "COM_2", Committee: "2", Subject: "رياضيات", ExamDate: &d,
			Status: model.EnvelopeSubmitted,
			Students: []model.Student{
				{StudentID: "c", Name: "C", Status: model.AttendanceAbsent},
				{StudentID: "d", Name: "D", Status: model.AttendancePending},
			},
		},
		{
			EnvelopeID: "TEMP_3", Committee: "3",
			Students: []model.Student{{StudentID: "e", Status: model.AttendanceAbsent}},
		},
	}
}

func TestAggregate_ExcludesTemplates(t *testing.T) {
	sums := Aggregate(sampleEnvelopes())
	require.Len(t, sums, 2)
	assert.Equal(t, EnvelopeSummary{
		Subject: "رياضيات", Committee: "10", Status: model.EnvelopeReceived,
		AbsentCount: 1, PresentCount: 1, TotalStudents: 2,
	}, sums[0])
	assert.Empty(t, Aggregate(nil))
}

func TestComputeStats(t *testing.T) {
	st := ComputeStats(sampleEnvelopes())
	assert.Equal(t, 2, st.Envelopes)
	assert.Equal(t, 4, st.TotalStudents)
	assert.Equal(t, 1, st.Present)
	assert.Equal(t, 2, st.Absent)
	assert.Equal(t, 1, st.Pending)
	assert.Equal(t, 1, st.ByStatus[model.EnvelopeSubmitted])
	assert.Equal(t, 0, st.ByStatus[model.EnvelopeNotReceived])
}

func TestAbsences_SortedByCommittee(t *testing.T) {
	abs := Absences(sampleEnvelopes())
	require.Len(t, abs, 2)
	assert.Equal(t, "2", abs[0].Committee, "考场编号按数值排序")
	assert.Equal(t, "c", abs[0].StudentID)
	assert.Equal(t, "10", abs[1].Committee)
	assert.Equal(t, "0500", abs[1].Phone)
}

func TestResolveCommittee(t *testing.T) {
	d1 := time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)
	envs := []model.ExamEnvelope{
		{EnvelopeID: "TEMP_1", Committee: "1"},
		{EnvelopeID: "ENV_s-1-1_1", Committee: "1", ExamDate: &d2, StartTime: "07:30"},
		{EnvelopeID: "ENV_s-0-1_1", Committee: "1", ExamDate: &d1, StartTime: "07:30", Status: model.EnvelopeSubmitted},
		{EnvelopeID: "ENV_s-0-1_12", Committee: "12", ExamDate: &d1},
	}

	got, ok := ResolveCommittee(envs, " 1 ", nil)
	require.True(t, ok)
	assert.Equal(t, "ENV_s-1-1_1", got.EnvelopeID, "跳过已交回的场次")

	got, ok = ResolveCommittee(envs, "1", &d1)
	require.True(t, ok)
	assert.Equal(t, "ENV_s-0-1_1", got.EnvelopeID)

	_, ok = ResolveCommittee(envs, "99", nil)
	assert.False(t, ok)
	_, ok = ResolveCommittee(envs, "", nil)
	assert.False(t, ok)
}

func TestSortByCommittee_Numeric(t *testing.T) {
	envs := []model.ExamEnvelope{{Committee: "10"}, {Committee: "x"}, {Committee: "2"}, {Committee: "1"}}
	SortByCommittee(envs)
	got := []string{envs[0].Committee, envs[1].Committee, envs[2].Committee, envs[3].Committee}
	assert.Equal(t, []string{"1", "2", "10", "x"}, got)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "تحديث: جاري الاختبار في لجنة COM_1", TransitionMessage(model.EnvelopeReceived, "COM_1"))
	assert.Equal(t, "غياب فوري: الطالب سالم في لجنة 1", AbsenceMessage("سالم", "1"))
}
