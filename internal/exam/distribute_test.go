package exam

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exam-control/internal/model"
)

func makeStudents(n int) []model.Student {
	out := make([]model.Student, n)
	for i := range out {
		out[i] = model.Student{
			StudentID: fmt.Sprintf("%d", 1001+i),
			Name:      fmt.Sprintf("طالب %d", i+1),
			Status:    model.AttendancePending,
		}
	}
	return out
}

var examDay = time.Date(2025, 12, 26, 0, 0, 0, 0, time.UTC)

func TestDistribute_FortyFiveStudents(t *testing.T) {
	envs, err := Distribute(makeStudents(45), DefaultGroupSize, examDay)
	require.NoError(t, err)
	require.Len(t, envs, 3)

	sizes := map[string]int{}
	for _, e := range envs {
		sizes[e.Committee] = len(e.Students)
	}
	assert.Equal(t, map[string]int{"1": 20, "2": 20, "3": 5}, sizes)

	first := envs[0]
	assert.Equal(t, "COM_1", first.EnvelopeID)
	assert.Equal(t, "قاعة 1", first.Venue)
	assert.Equal(t, PlaceholderSubject, first.Subject)
	assert.Equal(t, "07:30", first.StartTime)
	assert.Equal(t, "10:00", first.EndTime)
	assert.Equal(t, model.EnvelopeNotReceived, first.Status)
	require.NotNil(t, first.ExamDate)
	assert.True(t, first.ExamDate.Equal(examDay))
	assert.Equal(t, "1001", first.Students[0].StudentID)
	assert.Equal(t, "1041", envs[2].Students[0].StudentID)
}

func TestDistribute_PartitionCompleteness(t *testing.T) {
	for _, n := range []int{1, 19, 20, 21, 40, 57, 200} {
		n := n
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			students := makeStudents(n)
			envs, err := Distribute(students, DefaultGroupSize, examDay)
			require.NoError(t, err)

			seen := map[string]int{}
			total := 0
			for _, e := range envs {
				assert.LessOrEqual(t, len(e.Students), DefaultGroupSize)
				for _, st := range e.Students {
					seen[st.StudentID]++
					total++
				}
			}
			assert.Equal(t, n, total)
			for _, st := range students {
				assert.Equal(t, 1, seen[st.StudentID], "学生 %s 应恰好出现一次", st.StudentID)
			}
		})
	}
}

func TestDistribute_ResetsAttendance(t *testing.T) {
	students := makeStudents(3)
	students[1].Status = model.AttendanceAbsent

	envs, err := Distribute(students, DefaultGroupSize, examDay)
	require.NoError(t, err)
	for _, st := range envs[0].Students {
		assert.Equal(t, model.AttendancePending, st.Status)
	}
	assert.Equal(t, model.AttendanceAbsent, students[1].Status, "输入切片不应被修改")
}

func TestDistribute_Rejections(t *testing.T) {
	_, err := Distribute(nil, DefaultGroupSize, examDay)
	assert.ErrorIs(t, err, ErrNoStudents)

	_, err = Distribute(makeStudents(3), 0, examDay)
	assert.ErrorIs(t, err, ErrInvalidGroupSize)
}
