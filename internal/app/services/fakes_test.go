package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yigit/collegeerp/internal/app/models"
	"github.com/yigit/collegeerp/internal/app/repositories"
	"github.com/yigit/collegeerp/internal/pkg/apperrors"
	"github.com/yigit/collegeerp/internal/pkg/email"
	"github.com/yigit/collegeerp/internal/pkg/events"
	"github.com/yigit/collegeerp/internal/pkg/filestorage"
)

// fakeUsers backs CredentialStore, ProfileStore and RoleSource.
type fakeUsers struct {
	mu          sync.Mutex
	users       map[uuid.UUID]*models.User
	profiles    map[uuid.UUID]*models.Profile
	lastLogin   []uuid.UUID
	roleErr     error
	roleLookups int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{
		users:    map[uuid.UUID]*models.User{},
		profiles: map[uuid.UUID]*models.Profile{},
	}
}

func (f *fakeUsers) add(user *models.User, profile *models.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.users[user.ID] = user
	if profile != nil {
		profile.ID = user.ID
		f.profiles[user.ID] = profile
	}
}

func (f *fakeUsers) GetUserByEmail(_ context.Context, addr string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, addr) {
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) CreateUserWithProfile(_ context.Context, user *models.User, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, user.Email) {
			return apperrors.ErrEmailAlreadyExists
		}
	}
	user.ID = uuid.New()
	profile.ID = user.ID
	f.users[user.ID] = user
	f.profiles[user.ID] = profile
	return nil
}

func (f *fakeUsers) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLogin = append(f.lastLogin, id)
	return nil
}

func (f *fakeUsers) RoleBySubject(_ context.Context, id uuid.UUID) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleLookups++
	if f.roleErr != nil {
		return "", false, f.roleErr
	}
	p, ok := f.profiles[id]
	if !ok {
		return "", false, nil
	}
	return string(p.Role), true, nil
}

func (f *fakeUsers) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeUsers) ListProfiles(_ context.Context, offset, limit uint64) ([]*models.Profile, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]*models.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		all = append(all, p)
	}
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return []*models.Profile{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (f *fakeUsers) ListStudents(_ context.Context, filter repositories.StudentFilter) ([]*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Profile{}
	for _, p := range f.profiles {
		if p.Role != "STUDENT" {
			continue
		}
		if filter.DepartmentID != nil && (p.DepartmentID == nil || *p.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.Year != nil && (p.Year == nil || *p.Year != *filter.Year) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.profiles[profile.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	cp := *profile
	f.profiles[profile.ID] = &cp
	if u, ok := f.users[profile.ID]; ok && profile.Email != nil {
		u.Email = *profile.Email
	}
	return nil
}

func (f *fakeUsers) DeleteUser(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(f.users, id)
	delete(f.profiles, id)
	return nil
}

// fakeTokens backs RefreshTokenStore.
type fakeTokens struct {
	mu      sync.Mutex
	tokens  map[string]uuid.UUID
	revoked map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: map[string]uuid.UUID{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) CreateToken(_ context.Context, token string, userID uuid.UUID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens[token] = userID
	return nil
}

func (f *fakeTokens) GetUserIDByToken(_ context.Context, token string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	if !ok {
		return uuid.Nil, apperrors.ErrTokenInvalid
	}
	if f.revoked[token] {
		return uuid.Nil, apperrors.ErrTokenRevoked
	}
	return id, nil
}

func (f *fakeTokens) RevokeToken(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok || f.revoked[token] {
		return apperrors.ErrTokenInvalid
	}
	f.revoked[token] = true
	return nil
}

// recordingPublisher captures published changes.
type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
}

func (p *recordingPublisher) Publish(_ context.Context, change events.Change) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
	return nil
}

func (p *recordingPublisher) published() []events.Change {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Change, len(p.changes))
	copy(out, p.changes)
	return out
}

// recordingMailer captures account-created notices.
type recordingMailer struct {
	sent []email.AccountCreated
	err  error
}

func (m *recordingMailer) SendAccountCreated(_ context.Context, msg email.AccountCreated) error {
	m.sent = append(m.sent, msg)
	return m.err
}

// recordingInvalidator captures role cache invalidations.
type recordingInvalidator struct {
	ids []uuid.UUID
}

func (r *recordingInvalidator) Invalidate(_ context.Context, id uuid.UUID) error {
	r.ids = append(r.ids, id)
	return nil
}

// memoryObjects is an in-memory ObjectStorage.
type memoryObjects struct {
	objects map[string]string
	deleted []string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string]string{}}
}

func (m *memoryObjects) Put(_ context.Context, bucket, objectPath string, r io.Reader) (*filestorage.ObjectInfo, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.objects[bucket+"/"+objectPath] = string(b)
	return &filestorage.ObjectInfo{
		Bucket:    bucket,
		Path:      objectPath,
		Size:      int64(len(b)),
		PublicURL: m.PublicURL(bucket, objectPath),
	}, nil
}

func (m *memoryObjects) Open(bucket, objectPath string) (io.ReadCloser, error) {
	s, ok := m.objects[bucket+"/"+objectPath]
	if !ok {
		return nil, filestorage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

func (m *memoryObjects) Delete(bucket, objectPath string) error {
	delete(m.objects, bucket+"/"+objectPath)
	m.deleted = append(m.deleted, bucket+"/"+objectPath)
	return nil
}

func (m *memoryObjects) PublicURL(bucket, objectPath string) string {
	return "http://files.test/storage/" + bucket + "/" + objectPath
}
