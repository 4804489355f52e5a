// Package exam 考务核心规则：考场分配、场次推导、试卷袋状态机与统计汇总。
// 本包不做任何 I/O，所有函数对输入切片做纯计算，便于在 Service 层组合并在单测中穷举。
package exam

import (
	"errors"
	"fmt"
	"time"

	"exam-control/internal/model"
)

const (
	// DefaultGroupSize 每个考场默认学生数
	DefaultGroupSize = 20

	// CommitteePrefix 自动分配产生的试卷袋 ID 前缀
	CommitteePrefix = "COM_"
	// ExpandedPrefix 场次 × 模板展开产生的试卷袋 ID 前缀
	ExpandedPrefix = "ENV_"

	PlaceholderSubject = "سيتم تحديده من الجدول"
	DefaultStartTime   = "07:30"
	DefaultEndTime     = "10:00"
)

var (
	ErrNoStudents       = errors.New("尚未导入学生")
	ErrInvalidGroupSize = errors.New("考场人数必须大于 0")
)

// VenueName 第 n 个考场的默认地点
func VenueName(committee int) string {
	return fmt.Sprintf("قاعة %d", committee)
}

// Distribute 将学生按导入顺序切分为连续的考场
//
// 第 i 组（从 0 开始）对应 committee=i+1、ID=COM_{i+1}，最后一组可以不足 groupSize。
// 学生在新试卷袋中一律重置为 pending。
// 返回的切片即全部非模板试卷袋的替换集合（整体替换语义）。
func Distribute(students []model.Student, groupSize int, date time.Time) ([]model.ExamEnvelope, error) {
	if len(students) == 0 {
		return nil, ErrNoStudents
	}
	if groupSize <= 0 {
		return nil, ErrInvalidGroupSize
	}

	count := (len(students) + groupSize - 1) / groupSize
	envelopes := make([]model.ExamEnvelope, 0, count)
	day := truncateDay(date)

	for i := 0; i < count; i++ {
		lo := i * groupSize
		hi := lo + groupSize
		if hi > len(students) {
			hi = len(students)
		}

		roster := make([]model.Student, 0, hi-lo)
		for _, st := range students[lo:hi] {
			st.Status = model.AttendancePending
			roster = append(roster, st)
		}

		committee := i + 1
		d := day
		envelopes = append(envelopes, model.ExamEnvelope{
			EnvelopeID: fmt.Sprintf("%s%d", CommitteePrefix, committee),
			Committee:  fmt.Sprintf("%d", committee),
			Venue:      VenueName(committee),
			Subject:    PlaceholderSubject,
			ExamDate:   &d,
			StartTime:  DefaultStartTime,
			EndTime:    DefaultEndTime,
			Period:     model.PeriodFirst,
			Status:     model.EnvelopeNotReceived,
			Students:   roster,
		})
	}

	return envelopes, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
