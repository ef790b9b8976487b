// Package memstore provides in-memory stores implementing the service
// interfaces, for tests that exercise services without a database.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"sync"
	"time"

	"github.com/yigit/kebele/internal/app/models"
	"github.com/yigit/kebele/internal/app/notification"
	"github.com/yigit/kebele/internal/pkg/apperrors"
	"github.com/yigit/kebele/internal/pkg/filestorage"
)

// Applications is an in-memory application store. Like the database it
// rejects a second pending application for the same user.
type Applications struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Application
}

// NewApplications returns an empty store
func NewApplications() *Applications {
	return &Applications{rows: map[int64]*models.Application{}}
}

func (m *Applications) pendingFor(userID, except int64) bool {
	for id, a := range m.rows {
		if id != except && a.UserID == userID && a.Status == models.StatusPending {
			return true
		}
	}
	return false
}

func (m *Applications) Create(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app.Status == models.StatusPending && m.pendingFor(app.UserID, 0) {
		return apperrors.ErrPendingApplication
	}
	m.nextID++
	app.ID = m.nextID
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	m.rows[app.ID] = app.Clone()
	return nil
}

func (m *Applications) GetByID(_ context.Context, id int64) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrApplicationNotFound
	}
	return a.Clone(), nil
}

func (m *Applications) List(_ context.Context, ownerID *int64, offset, limit uint64) ([]*models.Application, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.Application
	for _, a := range m.rows {
		if ownerID == nil || a.UserID == *ownerID {
			all = append(all, a.Clone())
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return []*models.Application{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (m *Applications) HasPending(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingFor(userID, 0), nil
}

func (m *Applications) Update(_ context.Context, app *models.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[app.ID]; !ok {
		return apperrors.ErrApplicationNotFound
	}
	if app.Status == models.StatusPending && m.pendingFor(app.UserID, app.ID) {
		return apperrors.ErrPendingApplication
	}
	app.UpdatedAt = time.Now()
	m.rows[app.ID] = app.Clone()
	return nil
}

func (m *Applications) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrApplicationNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *Applications) GetByAttachmentKey(_ context.Context, key string) (*models.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		for _, slot := range models.Attachments {
			if k := a.AttachmentKey(slot); k != nil && *k == key {
				return a.Clone(), nil
			}
		}
	}
	return nil, apperrors.ErrFileNotFound
}

func (m *Applications) AttachmentKeysByUser(_ context.Context, userID int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var keys []string
	for _, a := range m.rows {
		if a.UserID != userID {
			continue
		}
		for _, slot := range models.Attachments {
			if k := a.AttachmentKey(slot); k != nil {
				keys = append(keys, *k)
			}
		}
	}
	return keys, nil
}

// Users is an in-memory user store with unique usernames and emails
type Users struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.User
}

// NewUsers returns a store holding copies of seed
func NewUsers(seed ...*models.User) *Users {
	m := &Users{rows: map[int64]*models.User{}}
	for _, u := range seed {
		cp := *u
		m.rows[u.ID] = &cp
		if u.ID > m.nextID {
			m.nextID = u.ID
		}
	}
	return m
}

func (m *Users) conflict(u *models.User) error {
	for id, other := range m.rows {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email {
			return apperrors.ErrEmailAlreadyExists
		}
		if other.Username == u.Username {
			return apperrors.ErrUsernameAlreadyExists
		}
	}
	return nil
}

func (m *Users) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.conflict(u); err != nil {
		return err
	}
	m.nextID++
	u.ID = m.nextID
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *Users) GetByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Users) GetByLogin(_ context.Context, login string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Username == login || u.Email == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (m *Users) GetByProfilePicture(_ context.Context, key string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.ProfilePicture != nil && *u.ProfilePicture == key {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrFileNotFound
}

func (m *Users) List(_ context.Context, offset, limit uint64) ([]*models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []*models.User
	for _, u := range m.rows {
		cp := *u
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= uint64(len(all)) {
		return []*models.User{}, total, nil
	}
	end := offset + limit
	if end > uint64(len(all)) {
		end = uint64(len(all))
	}
	return all[offset:end], total, nil
}

func (m *Users) Update(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[u.ID]; !ok {
		return apperrors.ErrUserNotFound
	}
	if err := m.conflict(u); err != nil {
		return err
	}
	cp := *u
	m.rows[u.ID] = &cp
	return nil
}

func (m *Users) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return apperrors.ErrUserNotFound
	}
	delete(m.rows, id)
	return nil
}

type storedToken struct {
	userID  int64
	expires time.Time
	revoked bool
}

// Tokens is an in-memory refresh token store
type Tokens struct {
	mu   sync.Mutex
	rows map[string]*storedToken
}

// NewTokens returns an empty store
func NewTokens() *Tokens { return &Tokens{rows: map[string]*storedToken{}} }

func (m *Tokens) CreateToken(_ context.Context, token string, userID int64, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[token] = &storedToken{userID: userID, expires: expiry}
	return nil
}

func (m *Tokens) GetUserIDByToken(_ context.Context, token string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[token]
	switch {
	case !ok:
		return 0, apperrors.ErrTokenNotFound
	case t.revoked:
		return 0, apperrors.ErrTokenRevoked
	case t.expires.Before(time.Now()):
		return 0, apperrors.ErrTokenExpired
	}
	return t.userID, nil
}

func (m *Tokens) RevokeToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[token]
	if !ok || t.revoked {
		return apperrors.ErrTokenNotFound
	}
	t.revoked = true
	return nil
}

func (m *Tokens) RevokeAllUserTokens(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.rows {
		if t.userID == userID {
			t.revoked = true
		}
	}
	return nil
}

// Storage is an in-memory filestorage.FileStorage
type Storage struct {
	mu      sync.Mutex
	n       int
	files   map[string][]byte
	deleted []string
}

// NewStorage returns an empty store
func NewStorage() *Storage { return &Storage{files: map[string][]byte{}} }

func (m *Storage) SaveFileWithPath(fh *multipart.FileHeader, subPath string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	key := fmt.Sprintf("%s/%d-%s", subPath, m.n, fh.Filename)
	m.files[key] = content
	return key, nil
}

type storedFile struct{ *bytes.Reader }

func (storedFile) Close() error { return nil }

func (m *Storage) Open(key string) (io.ReadSeekCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[key]
	if !ok {
		return nil, filestorage.ErrNotFound
	}
	return storedFile{bytes.NewReader(content)}, nil
}

func (m *Storage) DeleteFile(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *Storage) URL(key string) string { return "/api/v1/files/" + key }

// Files returns the keys currently stored
func (m *Storage) Files() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.files))
	for k := range m.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Deleted returns every key passed to DeleteFile
func (m *Storage) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Has reports whether key is currently stored
func (m *Storage) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[key]
	return ok
}

// Notifier records status notifications
type Notifier struct {
	mu    sync.Mutex
	calls []models.ApplicationStatus
	// Out is returned from every call; zero means Sent
	Out notification.Outcome
}

func (r *Notifier) StatusChanged(_ context.Context, app *models.Application, _ *models.User) notification.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, app.Status)
	if r.Out.Status == "" {
		return notification.Outcome{Status: notification.Sent}
	}
	return r.Out
}

// Calls returns the statuses notified so far, in order
func (r *Notifier) Calls() []models.ApplicationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ApplicationStatus(nil), r.calls...)
}
