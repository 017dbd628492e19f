package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/yigit/teacherportfolio/internal/app/models"
	"github.com/yigit/teacherportfolio/internal/app/repositories"
	"github.com/yigit/teacherportfolio/internal/pkg/apperrors"
	"github.com/yigit/teacherportfolio/internal/pkg/claims"
	"github.com/yigit/teacherportfolio/internal/pkg/identity"
	"github.com/yigit/teacherportfolio/internal/pkg/metrics"
	"github.com/yigit/teacherportfolio/internal/pkg/notify"
)

var errBoom = errors.New("boom")

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

// memTeachers is an in-memory teacher table
type memTeachers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.Teacher

	createErr     error
	markActiveErr error
	// deleteErrs is consumed one error per Delete call
	deleteErrs  []error
	deleteCalls int
}

func newMemTeachers() *memTeachers {
	return &memTeachers{rows: map[uuid.UUID]*models.Teacher{}}
}

func (m *memTeachers) put(t *models.Teacher) *models.Teacher {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	m.rows[t.ID] = &cp
	return t
}

func (m *memTeachers) get(id uuid.UUID) *models.Teacher {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[id]
}

func (m *memTeachers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

func (m *memTeachers) Create(_ context.Context, t *models.Teacher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, row := range m.rows {
		if row.IIN == t.IIN {
			return apperrors.ErrIINAlreadyExists
		}
	}
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTeachers) GetByID(_ context.Context, id uuid.UUID) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrTeacherNotFound
	}
	cp := *row
	return &cp, nil
}

func (m *memTeachers) find(match func(*models.Teacher) bool) (*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if match(row) {
			cp := *row
			return &cp, nil
		}
	}
	return nil, apperrors.ErrTeacherNotFound
}

func (m *memTeachers) GetByIIN(_ context.Context, iin string) (*models.Teacher, error) {
	return m.find(func(t *models.Teacher) bool { return t.IIN == iin })
}

func (m *memTeachers) GetByEmail(_ context.Context, email string) (*models.Teacher, error) {
	return m.find(func(t *models.Teacher) bool { return strings.EqualFold(t.Email, email) })
}

func (m *memTeachers) MarkActive(_ context.Context, id uuid.UUID, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markActiveErr != nil {
		return m.markActiveErr
	}
	row, ok := m.rows[id]
	if !ok {
		return apperrors.ErrTeacherNotFound
	}
	row.ProvisioningStatus = models.ProvisioningActive
	row.IdentityID = &identityID
	return nil
}

func (m *memTeachers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCalls++
	if len(m.deleteErrs) > 0 {
		err := m.deleteErrs[0]
		m.deleteErrs = m.deleteErrs[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrTeacherNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTeachers) DeletePending(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok || row.IsActive() {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func (m *memTeachers) ListStalePending(_ context.Context, createdBefore time.Time, limit uint64) ([]*models.Teacher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Teacher
	for _, row := range m.rows {
		if !row.IsActive() && row.CreatedAt.Before(createdBefore) && uint64(len(out)) < limit {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTeachers) UpdateProfile(_ context.Context, t *models.Teacher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		return apperrors.ErrTeacherNotFound
	}
	cp := *t
	m.rows[t.ID] = &cp
	return nil
}

func (m *memTeachers) UpdatePhotoURL(_ context.Context, id uuid.UUID, photoURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return apperrors.ErrTeacherNotFound
	}
	row.PhotoURL = &photoURL
	return nil
}

func (m *memTeachers) List(_ context.Context, search string, offset, limit uint64) ([]*models.Teacher, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Teacher
	for _, row := range m.rows {
		if row.Role != models.RoleTeacher || !row.IsActive() {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(row.FirstName+" "+row.LastName+" "+row.IIN), strings.ToLower(search)) {
			continue
		}
		cp := *row
		all = append(all, &cp)
	}
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return []*models.Teacher{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (m *memTeachers) CountActiveByRole(_ context.Context, role models.Role) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.rows {
		if row.Role == role && row.IsActive() {
			n++
		}
	}
	return n, nil
}

// memIdentities is an in-memory identity provider with plain-text passwords
type memIdentities struct {
	mu        sync.Mutex
	byID      map[string]*identity.Identity
	passwords map[string]string

	createErr error
	updateErr error
	deleted   []string
}

func newMemIdentities() *memIdentities {
	return &memIdentities{byID: map[string]*identity.Identity{}, passwords: map[string]string{}}
}

func (m *memIdentities) CreateIdentity(_ context.Context, p identity.CreateParams) (*identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	email := strings.ToLower(p.Email)
	for _, ident := range m.byID {
		if ident.Email == email {
			return nil, apperrors.ErrIdentityExists
		}
	}
	ident := &identity.Identity{ID: uuid.NewString(), Email: email, EmailConfirmed: p.EmailConfirmed, Metadata: p.Metadata}
	m.byID[ident.ID] = ident
	m.passwords[ident.ID] = p.Password
	return ident, nil
}

func (m *memIdentities) DeleteIdentity(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return apperrors.ErrIdentityNotFound
	}
	delete(m.byID, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *memIdentities) FindByEmail(_ context.Context, email string) (*identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ident := range m.byID {
		if ident.Email == strings.ToLower(email) {
			cp := *ident
			return &cp, nil
		}
	}
	return nil, apperrors.ErrIdentityNotFound
}

func (m *memIdentities) SignIn(ctx context.Context, email, password string) (*identity.Identity, error) {
	ident, err := m.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.passwords[ident.ID] != password {
		return nil, apperrors.ErrInvalidCredentials
	}
	return ident, nil
}

func (m *memIdentities) UpdatePassword(_ context.Context, id, password string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.byID[id]; !ok {
		return apperrors.ErrIdentityNotFound
	}
	m.passwords[id] = password
	return nil
}

func (m *memIdentities) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// memCertifications records certification writes
type memCertifications struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]*models.Certification
	err   error
	calls int
}

func newMemCertifications() *memCertifications {
	return &memCertifications{rows: map[uuid.UUID]*models.Certification{}}
}

func (m *memCertifications) Create(_ context.Context, c *models.Certification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return m.err
	}
	c.ID = uuid.New()
	cp := *c
	m.rows[c.TeacherID] = &cp
	return nil
}

func (m *memCertifications) Upsert(ctx context.Context, c *models.Certification) error {
	return m.Create(ctx, c)
}

func (m *memCertifications) GetByTeacherID(_ context.Context, teacherID uuid.UUID) (*models.Certification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[teacherID]
	if !ok {
		return nil, apperrors.ErrResourceNotFound
	}
	cp := *c
	return &cp, nil
}

// memResults records student results
type memResults struct {
	mu   sync.Mutex
	rows []models.StudentResult
	err  error
}

func (m *memResults) Create(_ context.Context, r *models.StudentResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r.ID = uuid.New()
	m.rows = append(m.rows, *r)
	return nil
}

func (m *memResults) ListByTeacher(_ context.Context, teacherID uuid.UUID) ([]models.StudentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudentResult
	for _, r := range m.rows {
		if r.TeacherID == teacherID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memResults) DeleteForTeacher(_ context.Context, id, teacherID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id && r.TeacherID == teacherID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrStudentResultNotFound
}

// memSessions is an in-memory refresh session table
type memSessions struct {
	mu   sync.Mutex
	rows map[string]uuid.UUID
	// afterGet runs once Get has read a session, to interleave another request
	afterGet func(hash string)
}

func newMemSessions() *memSessions {
	return &memSessions{rows: map[string]uuid.UUID{}}
}

func (m *memSessions) Create(_ context.Context, hash string, teacherID uuid.UUID, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[hash] = teacherID
	return nil
}

func (m *memSessions) Get(_ context.Context, hash string) (uuid.UUID, error) {
	m.mu.Lock()
	id, ok := m.rows[hash]
	hook := m.afterGet
	m.mu.Unlock()
	if !ok {
		return uuid.Nil, apperrors.ErrTokenRevoked
	}
	if hook != nil {
		hook(hash)
	}
	return id, nil
}

func (m *memSessions) Revoke(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[hash]; !ok {
		return apperrors.ErrTokenRevoked
	}
	delete(m.rows, hash)
	return nil
}

func (m *memSessions) RevokeAllForTeacher(_ context.Context, teacherID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, id := range m.rows {
		if id == teacherID {
			delete(m.rows, hash)
		}
	}
	return nil
}

func (m *memSessions) CleanupExpired(_ context.Context) (int64, error) {
	return 0, nil
}

func (m *memSessions) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memSkills holds the catalogue and teacher skill records
type memSkills struct {
	mu      sync.Mutex
	catalog map[uuid.UUID]*models.Skill
	records map[uuid.UUID]*models.TeacherSkill
	// afterGet runs once GetTeacherSkill has read a record
	afterGet func(id uuid.UUID)
}

func newMemSkills() *memSkills {
	return &memSkills{catalog: map[uuid.UUID]*models.Skill{}, records: map[uuid.UUID]*models.TeacherSkill{}}
}

func (m *memSkills) Create(_ context.Context, s *models.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New()
	cp := *s
	m.catalog[s.ID] = &cp
	return nil
}

func (m *memSkills) Update(_ context.Context, s *models.Skill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.catalog[s.ID]; !ok {
		return apperrors.ErrSkillNotFound
	}
	cp := *s
	m.catalog[s.ID] = &cp
	return nil
}

func (m *memSkills) GetByID(_ context.Context, id uuid.UUID) (*models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.catalog[id]
	if !ok {
		return nil, apperrors.ErrSkillNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSkills) List(_ context.Context, activeOnly bool) ([]models.Skill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Skill
	for _, s := range m.catalog {
		if !activeOnly || s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memSkills) CountActive(ctx context.Context) (int64, error) {
	skills, _ := m.List(ctx, true)
	return int64(len(skills)), nil
}

func (m *memSkills) AddToTeacher(_ context.Context, ts *models.TeacherSkill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.TeacherID == ts.TeacherID && r.SkillID == ts.SkillID {
			return apperrors.ErrResourceAlreadyExists
		}
	}
	ts.ID = uuid.New()
	cp := *ts
	m.records[ts.ID] = &cp
	return nil
}

func (m *memSkills) GetTeacherSkill(_ context.Context, id uuid.UUID) (*models.TeacherSkill, error) {
	m.mu.Lock()
	r, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return nil, apperrors.ErrSkillNotFound
	}
	cp := *r
	hook := m.afterGet
	m.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return &cp, nil
}

func (m *memSkills) ListByTeacher(_ context.Context, teacherID uuid.UUID) ([]models.TeacherSkill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TeacherSkill
	for _, r := range m.records {
		if r.TeacherID == teacherID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memSkills) ListByStatus(_ context.Context, status models.SkillStatus) ([]repositories.TeacherSkillWithOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repositories.TeacherSkillWithOwner
	for _, r := range m.records {
		if r.Status == status {
			out = append(out, repositories.TeacherSkillWithOwner{TeacherSkill: *r, FirstName: "Aigerim", LastName: "Bekova", IIN: "900101300123"})
		}
	}
	return out, nil
}

func (m *memSkills) UpdateTeacherSkillStatus(_ context.Context, ts *models.TeacherSkill, from models.SkillStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[ts.ID]
	if !ok || r.Status != from {
		return fmt.Errorf("%w: status is no longer %s", apperrors.ErrInvalidStatusTransition, from)
	}
	cp := *ts
	m.records[ts.ID] = &cp
	return nil
}

func (m *memSkills) CountByStatus(ctx context.Context, status models.SkillStatus) (int64, error) {
	rows, _ := m.ListByStatus(ctx, status)
	return int64(len(rows)), nil
}

// memGoals holds yearly goals and teacher goal records
type memGoals struct {
	mu      sync.Mutex
	catalog map[uuid.UUID]*models.YearlyGoal
	records map[uuid.UUID]*models.TeacherGoal
	// afterGet runs once GetTeacherGoal has read a record
	afterGet func(id uuid.UUID)
}

func newMemGoals() *memGoals {
	return &memGoals{catalog: map[uuid.UUID]*models.YearlyGoal{}, records: map[uuid.UUID]*models.TeacherGoal{}}
}

func (m *memGoals) Create(_ context.Context, g *models.YearlyGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = uuid.New()
	cp := *g
	m.catalog[g.ID] = &cp
	return nil
}

func (m *memGoals) Update(_ context.Context, g *models.YearlyGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.catalog[g.ID]; !ok {
		return apperrors.ErrGoalNotFound
	}
	cp := *g
	m.catalog[g.ID] = &cp
	return nil
}

func (m *memGoals) GetByID(_ context.Context, id uuid.UUID) (*models.YearlyGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.catalog[id]
	if !ok {
		return nil, apperrors.ErrGoalNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memGoals) List(_ context.Context, activeOnly bool) ([]models.YearlyGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.YearlyGoal
	for _, g := range m.catalog {
		if !activeOnly || g.IsActive {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (m *memGoals) AddToTeacher(_ context.Context, tg *models.TeacherGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tg.ID = uuid.New()
	cp := *tg
	m.records[tg.ID] = &cp
	return nil
}

func (m *memGoals) GetTeacherGoal(_ context.Context, id uuid.UUID) (*models.TeacherGoal, error) {
	m.mu.Lock()
	r, ok := m.records[id]
	if !ok {
		m.mu.Unlock()
		return nil, apperrors.ErrGoalNotFound
	}
	cp := *r
	hook := m.afterGet
	m.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return &cp, nil
}

func (m *memGoals) ListByTeacher(_ context.Context, teacherID uuid.UUID) ([]models.TeacherGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TeacherGoal
	for _, r := range m.records {
		if r.TeacherID == teacherID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memGoals) ListByStatus(_ context.Context, status models.GoalStatus) ([]repositories.TeacherGoalWithOwner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repositories.TeacherGoalWithOwner
	for _, r := range m.records {
		if r.Status == status {
			out = append(out, repositories.TeacherGoalWithOwner{TeacherGoal: *r, FirstName: "Aigerim", LastName: "Bekova", IIN: "900101300123"})
		}
	}
	return out, nil
}

func (m *memGoals) UpdateTeacherGoal(_ context.Context, tg *models.TeacherGoal, from models.GoalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[tg.ID]
	if !ok || r.Status != from {
		return fmt.Errorf("%w: status is no longer %s", apperrors.ErrInvalidStatusTransition, from)
	}
	cp := *tg
	m.records[tg.ID] = &cp
	return nil
}

func (m *memGoals) CountByStatus(ctx context.Context, status models.GoalStatus) (int64, error) {
	rows, _ := m.ListByStatus(ctx, status)
	return int64(len(rows)), nil
}

// recordingSender captures welcome notifications
type recordingSender struct {
	mu   sync.Mutex
	sent []notify.Welcome
	err  error
}

func (r *recordingSender) SendWelcome(_ context.Context, w notify.Welcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, w)
	return nil
}

// memClaims is a single-use claim store
type memClaims struct {
	mu     sync.Mutex
	tokens map[string]claims.Claim
}

func newMemClaims() *memClaims {
	return &memClaims{tokens: map[string]claims.Claim{}}
}

func (m *memClaims) Issue(_ context.Context, c claims.Claim) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	m.tokens[token] = c
	return token, nil
}

func (m *memClaims) Redeem(_ context.Context, token string) (*claims.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.tokens[token]
	if !ok {
		return nil, apperrors.ErrClaimNotFound
	}
	delete(m.tokens, token)
	return &c, nil
}

func (m *memClaims) Restore(_ context.Context, token string, c claims.Claim) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token] = c
	return nil
}

var (
	_ repositories.ITeacherRepository       = (*memTeachers)(nil)
	_ repositories.ICertificationRepository = (*memCertifications)(nil)
	_ repositories.IStudentResultRepository = (*memResults)(nil)
	_ repositories.ISessionRepository       = (*memSessions)(nil)
	_ repositories.ISkillRepository         = (*memSkills)(nil)
	_ repositories.IGoalRepository          = (*memGoals)(nil)
	_ identity.Provider                     = (*memIdentities)(nil)
	_ notify.Sender                         = (*recordingSender)(nil)
	_ claims.Store                          = (*memClaims)(nil)
)
