package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cloud.google.com/go/civil"

	"taskcal/internal/apperr"
	"taskcal/internal/models"
)

// MemoryStore keeps tasks, users and settings in process memory. It backs
// the server when no database is configured and is used by tests.
type MemoryStore struct {
	mu       sync.Mutex
	nextTask int64
	nextUser int64
	tasks    map[int64]models.Task
	users    map[int64]models.User
	settings map[int64]models.Settings
	resets   map[string]models.PasswordReset
	nextRst  int64
	links    map[string]models.TelegramLink
	nextLink int64
	now      func() time.Time
}

var (
	_ TaskRepository     = (*MemoryStore)(nil)
	_ UserRepository     = (*MemoryStore)(nil)
	_ SettingsRepository = (*MemoryStore)(nil)

	_ PasswordResetRepository = memoryResets{}
	_ TelegramLinkRepository  = memoryLinks{}
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tasks:    make(map[int64]models.Task),
		users:    make(map[int64]models.User),
		settings: make(map[int64]models.Settings),
		resets:   make(map[string]models.PasswordReset),
		links:    make(map[string]models.TelegramLink),
		now:      time.Now,
	}
}

func cloneTask(t models.Task) models.Task {
	if t.ReminderDate != nil {
		d := *t.ReminderDate
		t.ReminderDate = &d
	}
	if t.LastRemindedOn != nil {
		d := *t.LastRemindedOn
		t.LastRemindedOn = &d
	}
	return t
}

// ---- tasks

func (m *MemoryStore) Store(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("store task", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextTask++
	task.ID = m.nextTask
	if task.CreatedAt.IsZero() {
		task.CreatedAt = m.now()
	}
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	m.tasks[task.ID] = cloneTask(*task)
	return nil
}

func (m *MemoryStore) FindByID(ctx context.Context, ownerID, id int64) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("find task", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperr.NotFound("task not found")
	}
	t = cloneTask(t)
	return &t, nil
}

func (m *MemoryStore) FindAll(ctx context.Context, ownerID int64, filter models.TaskFilter) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("list tasks", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Task
	for _, t := range m.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Category != nil && t.Category != *filter.Category {
			continue
		}
		if filter.From != nil && t.Start.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !t.Start.Before(*filter.To) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("update task", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tasks[task.ID]
	if !ok || cur.OwnerID != task.OwnerID {
		return apperr.NotFound("task not found")
	}
	next := cloneTask(*task)
	next.CreatedAt = cur.CreatedAt
	next.LastRemindedOn = cur.LastRemindedOn
	m.tasks[task.ID] = next
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, ownerID, id int64) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("delete task", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return apperr.NotFound("task not found")
	}
	delete(m.tasks, id)
	return nil
}

func (m *MemoryStore) ListDueForReminder(ctx context.Context, ownerID int64, today civil.Date, limit int) ([]models.Task, error) {
	all, err := m.FindAll(ctx, ownerID, models.TaskFilter{})
	if err != nil {
		return nil, err
	}
	var out []models.Task
	for _, t := range all {
		if t.IsComplete || t.ReminderDate == nil || t.ReminderDate.After(today) {
			continue
		}
		if t.LastRemindedOn != nil && !t.LastRemindedOn.Before(*t.ReminderDate) {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := *out[i].ReminderDate, *out[j].ReminderDate
		if a != b {
			return a.Before(b)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) MarkReminded(ctx context.Context, ownerID int64, ids []int64, day civil.Date) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("mark reminded", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		t, ok := m.tasks[id]
		if !ok || t.OwnerID != ownerID {
			continue
		}
		d := day
		t.LastRemindedOn = &d
		m.tasks[id] = t
	}
	return nil
}

// ---- users

func (m *MemoryStore) Create(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("create user", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	m.nextUser++
	user.ID = m.nextUser
	user.CreatedAt = m.now()
	m.users[user.ID] = *user
	return nil
}

func (m *MemoryStore) findUser(match func(models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, apperr.NotFound("user not found")
}

func (m *MemoryStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.ID == id })
}

func (m *MemoryStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (m *MemoryStore) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return m.findUser(func(u models.User) bool { return u.RefreshToken != nil && *u.RefreshToken == token })
}

func (m *MemoryStore) UpdateRefresh(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("user not found")
	}
	u.RefreshToken = &token
	u.RefreshExpiresAt = &expiresAt
	u.RefreshRevoked = false
	m.users[userID] = u
	return nil
}

func (m *MemoryStore) RotateRefresh(ctx context.Context, oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.users {
		if u.RefreshToken == nil || *u.RefreshToken != oldToken || u.RefreshRevoked {
			continue
		}
		u.RefreshToken = &newToken
		u.RefreshExpiresAt = &newExpiresAt
		m.users[id] = u
		return &u, nil
	}
	return nil, apperr.NotFound("refresh token not found")
}

func (m *MemoryStore) ClearRefresh(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil
	}
	u.RefreshToken = nil
	u.RefreshExpiresAt = nil
	u.RefreshRevoked = true
	m.users[userID] = u
	return nil
}

// ---- password resets

// PasswordResets exposes the reset tokens kept by m.
func (m *MemoryStore) PasswordResets() PasswordResetRepository {
	return memoryResets{m}
}

type memoryResets struct{ m *MemoryStore }

func (r memoryResets) Create(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordReset, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("create password reset", err)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextRst++
	pr := models.PasswordReset{ID: r.m.nextRst, UserID: userID, Token: token, ExpiresAt: expiresAt, CreatedAt: r.m.now()}
	r.m.resets[token] = pr
	return &pr, nil
}

func (r memoryResets) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	pr, ok := r.m.resets[token]
	if !ok {
		return nil, apperr.NotFound("reset token not found")
	}
	return &pr, nil
}

func (r memoryResets) Consume(ctx context.Context, id int64, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return wrapErr("consume password reset", err)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for tok, pr := range r.m.resets {
		if pr.ID != id || pr.UsedAt != nil {
			continue
		}
		u, ok := r.m.users[pr.UserID]
		if !ok {
			return apperr.NotFound("user not found")
		}
		u.PasswordHash = passwordHash
		u.RefreshToken = nil
		u.RefreshExpiresAt = nil
		u.RefreshRevoked = true
		r.m.users[u.ID] = u

		now := r.m.now()
		pr.UsedAt = &now
		r.m.resets[tok] = pr
		return nil
	}
	return apperr.NotFound("reset token not found")
}

// ---- telegram links

// TelegramLinks exposes the link codes kept by m.
func (m *MemoryStore) TelegramLinks() TelegramLinkRepository {
	return memoryLinks{m}
}

type memoryLinks struct{ m *MemoryStore }

func (r memoryLinks) Create(ctx context.Context, userID int64, code string, expiresAt time.Time) (*models.TelegramLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapErr("create telegram link", err)
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextLink++
	l := models.TelegramLink{ID: r.m.nextLink, UserID: userID, Code: code, ExpiresAt: expiresAt, CreatedAt: r.m.now()}
	r.m.links[code] = l
	return &l, nil
}

func (r memoryLinks) UseByCode(ctx context.Context, code string, now time.Time) (*models.TelegramLink, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.links[code]
	if !ok || l.Used || now.After(l.ExpiresAt) {
		return nil, apperr.NotFound("link code not found")
	}
	l.Used = true
	r.m.links[code] = l
	return &l, nil
}

// ---- settings

func (m *MemoryStore) Get(ctx context.Context, ownerID int64) (*models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[ownerID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryStore) Upsert(ctx context.Context, s *models.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = m.now()
	m.settings[s.OwnerID] = *s
	return nil
}

func (m *MemoryStore) FindByTelegramChat(ctx context.Context, chatID int64) (*models.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.Settings
	for _, s := range m.settings {
		if s.TelegramChatID != chatID || chatID == 0 {
			continue
		}
		if found == nil || s.UpdatedAt.After(found.UpdatedAt) {
			s := s
			found = &s
		}
	}
	return found, nil
}

func (m *MemoryStore) ListNotifiable(ctx context.Context) ([]models.NotifyTarget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.NotifyTarget
	for owner, s := range m.settings {
		if !s.NotifyEmail && s.TelegramChatID == 0 {
			continue
		}
		u, ok := m.users[owner]
		if !ok {
			continue
		}
		out = append(out, models.NotifyTarget{UserID: owner, Email: u.Email, Settings: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
