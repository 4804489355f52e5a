package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"exam-control/internal/model"
	"exam-control/internal/repository"
	pkgerrors "exam-control/pkg/errors"
)

// ── Mock EnvelopeRepository ──

type mockEnvelopeRepo struct {
	mu        sync.Mutex
	envelopes map[string]*model.ExamEnvelope
	// conflicts 下次 Update 需要模拟的版本冲突次数
	conflicts int
	updateErr error
	// replaced ReplaceActive 调用次数
	replaced int
}

func newMockEnvelopeRepo() *mockEnvelopeRepo {
	return &mockEnvelopeRepo{envelopes: make(map[string]*model.ExamEnvelope)}
}

func cloneEnvelope(e *model.ExamEnvelope) *model.ExamEnvelope {
	c := *e
	c.Students = append([]model.Student(nil), e.Students...)
	return &c
}

func (m *mockEnvelopeRepo) put(envs ...model.ExamEnvelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range envs {
		e := envs[i]
		if e.Version == 0 {
			e.Version = 1
		}
		m.envelopes[e.EnvelopeID] = cloneEnvelope(&e)
	}
}

func (m *mockEnvelopeRepo) list(filter func(*model.ExamEnvelope) bool) []model.ExamEnvelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ExamEnvelope
	for _, e := range m.envelopes {
		if filter(e) {
			out = append(out, *cloneEnvelope(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EnvelopeID < out[j].EnvelopeID })
	return out
}

func (m *mockEnvelopeRepo) GetByID(_ context.Context, id string) (*model.ExamEnvelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.envelopes[id]; ok {
		return cloneEnvelope(e), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockEnvelopeRepo) ListActive(_ context.Context) ([]model.ExamEnvelope, error) {
	return m.list(func(e *model.ExamEnvelope) bool { return !e.IsTemplate() }), nil
}

func (m *mockEnvelopeRepo) ListTemplates(_ context.Context) ([]model.ExamEnvelope, error) {
	return m.list(func(e *model.ExamEnvelope) bool { return e.IsTemplate() }), nil
}

func (m *mockEnvelopeRepo) ListByCommittee(_ context.Context, committee string) ([]model.ExamEnvelope, error) {
	return m.list(func(e *model.ExamEnvelope) bool { return !e.IsTemplate() && e.Committee == committee }), nil
}

func (m *mockEnvelopeRepo) ListByTeacher(_ context.Context, teacherID string) ([]model.ExamEnvelope, error) {
	return m.list(func(e *model.ExamEnvelope) bool {
		return !e.IsTemplate() && e.TeacherID != nil && *e.TeacherID == teacherID
	}), nil
}

func (m *mockEnvelopeRepo) Update(_ context.Context, env *model.ExamEnvelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	cur, ok := m.envelopes[env.EnvelopeID]
	if !ok {
		return pkgerrors.ErrOptimisticLock
	}
	if m.conflicts > 0 {
		m.conflicts--
		cur.Version++
		return pkgerrors.ErrOptimisticLock
	}
	if cur.Version != env.Version {
		return pkgerrors.ErrOptimisticLock
	}
	env.Version++
	m.envelopes[env.EnvelopeID] = cloneEnvelope(env)
	return nil
}

func (m *mockEnvelopeRepo) UpdateSchedules(_ context.Context, envs []model.ExamEnvelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range envs {
		e := envs[i]
		if cur, ok := m.envelopes[e.EnvelopeID]; ok {
			cur.ExamDate, cur.StartTime, cur.EndTime = e.ExamDate, e.StartTime, e.EndTime
			cur.Subject, cur.Period = e.Subject, e.Period
			cur.Version++
		}
	}
	return nil
}

func (m *mockEnvelopeRepo) ReplaceActive(_ context.Context, envs []model.ExamEnvelope) error {
	m.mu.Lock()
	m.replaced++
	for id, e := range m.envelopes {
		if !e.IsTemplate() {
			delete(m.envelopes, id)
		}
	}
	m.mu.Unlock()
	m.put(envs...)
	return nil
}

func (m *mockEnvelopeRepo) SaveTemplates(_ context.Context, envs []model.ExamEnvelope) error {
	m.put(envs...)
	return nil
}

func (m *mockEnvelopeRepo) ExpandTemplates(_ context.Context, created []model.ExamEnvelope, templateIDs []string) error {
	m.put(created...)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range templateIDs {
		delete(m.envelopes, id)
	}
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) ListOrdered(_ context.Context) ([]model.Student, error) {
	var out []model.Student
	for _, s := range m.students {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ImportOrder != out[j].ImportOrder {
			return out[i].ImportOrder < out[j].ImportOrder
		}
		return out[i].StudentID < out[j].StudentID
	})
	return out, nil
}

func (m *mockStudentRepo) MaxImportOrder(_ context.Context) (int, error) {
	top := 0
	for _, s := range m.students {
		if s.ImportOrder > top {
			top = s.ImportOrder
		}
	}
	return top, nil
}

func (m *mockStudentRepo) BatchUpsert(_ context.Context, students []model.Student) error {
	for i := range students {
		st := students[i]
		if cur, ok := m.students[st.StudentID]; ok {
			cur.Name, cur.Grade, cur.Classroom, cur.Phone = st.Name, st.Grade, st.Classroom, st.Phone
			continue
		}
		m.students[st.StudentID] = &st
	}
	return nil
}

func (m *mockStudentRepo) DeleteAll(_ context.Context) (int64, error) {
	n := int64(len(m.students))
	m.students = make(map[string]*model.Student)
	return n, nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct {
	teachers  map[string]*model.Teacher
	envelopes *mockEnvelopeRepo
}

func newMockTeacherRepo(envelopes *mockEnvelopeRepo) *mockTeacherRepo {
	return &mockTeacherRepo{teachers: make(map[string]*model.Teacher), envelopes: envelopes}
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id string) (*model.Teacher, error) {
	if t, ok := m.teachers[id]; ok {
		c := *t
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) List(_ context.Context) ([]model.Teacher, error) {
	var out []model.Teacher
	for _, t := range m.teachers {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeacherID < out[j].TeacherID })
	return out, nil
}

func (m *mockTeacherRepo) BatchUpsert(_ context.Context, teachers []model.Teacher) error {
	for i := range teachers {
		t := teachers[i]
		m.teachers[t.TeacherID] = &t
	}
	return nil
}

func (m *mockTeacherRepo) ClearAll(_ context.Context) (int64, int64, error) {
	deleted := int64(len(m.teachers))
	m.teachers = make(map[string]*model.Teacher)

	var cleared int64
	m.envelopes.mu.Lock()
	defer m.envelopes.mu.Unlock()
	for _, e := range m.envelopes.envelopes {
		if e.TeacherID != nil || e.TeacherName != nil {
			e.TeacherID, e.TeacherName = nil, nil
			e.Version++
			cleared++
		}
	}
	return deleted, cleared, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	list      []model.Notification
	createErr error
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.list = append(m.list, *n)
	return nil
}

func (m *mockNotificationRepo) ListRecent(_ context.Context, limit int) ([]model.Notification, error) {
	out := make([]model.Notification, 0, limit)
	for i := len(m.list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.list[i])
	}
	return out, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string) error {
	for i := range m.list {
		if m.list[i].NotificationID == id {
			m.list[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) countType(typ model.NotificationType) int {
	n := 0
	for _, x := range m.list {
		if x.Type == typ {
			n++
		}
	}
	return n
}

// ── Mock PlanRepository ──

type mockPlanRepo struct {
	plan     *model.ExamPlan
	sessions map[string]*model.ScheduleSession
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{sessions: make(map[string]*model.ScheduleSession)}
}

func (m *mockPlanRepo) Get(_ context.Context) (*model.ExamPlan, error) {
	if m.plan == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *m.plan
	return &c, nil
}

func (m *mockPlanRepo) Save(_ context.Context, plan *model.ExamPlan) error {
	c := *plan
	c.Singleton = true
	m.plan = &c
	return nil
}

func (m *mockPlanRepo) ListSessions(_ context.Context) ([]model.ScheduleSession, error) {
	var out []model.ScheduleSession
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *mockPlanRepo) GetSession(_ context.Context, id string) (*model.ScheduleSession, error) {
	if s, ok := m.sessions[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockPlanRepo) UpdateSession(_ context.Context, s *model.ScheduleSession) error {
	c := *s
	m.sessions[s.SessionID] = &c
	return nil
}

func (m *mockPlanRepo) ReplaceSessions(_ context.Context, sessions []model.ScheduleSession) error {
	m.sessions = make(map[string]*model.ScheduleSession)
	for i := range sessions {
		s := sessions[i]
		m.sessions[s.SessionID] = &s
	}
	return nil
}

// ── 组装 ──

type mockRepos struct {
	envelope     *mockEnvelopeRepo
	student      *mockStudentRepo
	teacher      *mockTeacherRepo
	notification *mockNotificationRepo
	plan         *mockPlanRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	env := newMockEnvelopeRepo()
	m := &mockRepos{
		envelope:     env,
		student:      newMockStudentRepo(),
		teacher:      newMockTeacherRepo(env),
		notification: newMockNotificationRepo(),
		plan:         newMockPlanRepo(),
	}
	repo := &repository.Repository{
		Envelope:     m.envelope,
		Student:      m.student,
		Teacher:      m.teacher,
		Notification: m.notification,
		Plan:         m.plan,
	}
	return repo, m
}

// makeRoster 按导入顺序生成 n 名学生，座号从 1001 起
func makeRoster(n int) []model.Student {
	roster := make([]model.Student, n)
	for i := range roster {
		roster[i] = model.Student{
			StudentID:   fmt.Sprintf("%d", 1001+i),
			Name:        fmt.Sprintf("طالب %d", i+1),
			Grade:       "ثالث ثانوي",
			Status:      model.AttendancePending,
			ImportOrder: i + 1,
		}
	}
	return roster
}

// ── Mock ChangeFeed ──

type recordingFeed struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (f *recordingFeed) Publish(_ context.Context, ev ChangeEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *recordingFeed) Subscribe(_ context.Context) (<-chan ChangeEvent, error) {
	return make(chan ChangeEvent), nil
}

func (f *recordingFeed) kinds() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ks []string
	for _, e := range f.events {
		ks = append(ks, e.Kind)
	}
	return strings.Join(ks, ",")
}
