package exam

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"exam-control/internal/model"
)

// SortByCommittee 按考场编号数值升序排序，同一考场按日期、开始时间排序
// 编号无法解析为整数的排在最后并按字符串比较
func SortByCommittee(envs []model.ExamEnvelope) {
	sort.SliceStable(envs, func(i, j int) bool {
		a, b := &envs[i], &envs[j]
		if c := compareCommittee(a.Committee, b.Committee); c != 0 {
			return c < 0
		}
		if c := compareDate(a.ExamDate, b.ExamDate); c != 0 {
			return c < 0
		}
		return a.StartTime < b.StartTime
	})
}

// ResolveCommittee 按考场编号查找监考人要开启的试卷袋
//
// 编号精确匹配（去除首尾空白），模板不参与匹配；date 非空时只在当天的试卷袋中查找。
// 多个候选时取第一个未交回的（按日期、开始时间排序）；全部已交回则返回最早的一个，由状态机拒绝。
func ResolveCommittee(envs []model.ExamEnvelope, committee string, date *time.Time) (*model.ExamEnvelope, bool) {
	committee = strings.TrimSpace(committee)
	if committee == "" {
		return nil, false
	}

	var candidates []model.ExamEnvelope
	for _, e := range envs {
		if e.IsTemplate() || e.Committee != committee {
			continue
		}
		if date != nil && (e.ExamDate == nil || !sameDay(*e.ExamDate, *date)) {
			continue
		}
		candidates = append(candidates, e)
	}
	if len(candidates) == 0 {
		return nil, false
	}
	SortByCommittee(candidates)

	for i := range candidates {
		if candidates[i].Status != model.EnvelopeSubmitted {
			return &candidates[i], true
		}
	}
	return &candidates[0], true
}

func compareCommittee(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na - nb
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

func compareDate(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case a.After(*b):
		return 1
	}
	return 0
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sortPlanned(ps []PlannedSession) {
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].Position < ps[j].Position })
}
