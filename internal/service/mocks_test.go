package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/cache"
	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/GunarsK-portfolio/contacts-service/internal/repository"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// In-memory UserRepository
// =============================================================================

type memoryUserRepository struct {
	mu     sync.Mutex
	nextID int64
	users  map[string]models.User
	finds  int

	// findErr forces FindByEmail to fail when set.
	findErr error
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]models.User)}
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *memoryUserRepository) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	r.users[user.Email] = *user
	return nil
}

func (r *memoryUserRepository) UpdateRefreshToken(_ context.Context, userID int64, token *string) error {
	return r.mutate(userID, func(u *models.User) { u.RefreshToken = token })
}

func (r *memoryUserRepository) MarkConfirmed(_ context.Context, userID int64) error {
	return r.mutate(userID, func(u *models.User) { u.Confirmed = true })
}

func (r *memoryUserRepository) UpdateAvatar(_ context.Context, userID int64, url string) error {
	return r.mutate(userID, func(u *models.User) { u.Avatar = &url })
}

func (r *memoryUserRepository) mutate(userID int64, fn func(*models.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for email, u := range r.users {
		if u.ID == userID {
			fn(&u)
			r.users[email] = u
			return nil
		}
	}
	return nil
}

func (r *memoryUserRepository) get(email string) models.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[email]
}

func (r *memoryUserRepository) findCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finds
}

// =============================================================================
// Mock ContactRepository
// =============================================================================

type mockContactRepository struct {
	createFunc                 func(ctx context.Context, fields repository.ContactFields, ownerID int64) (*models.Contact, error)
	updateFunc                 func(ctx context.Context, id int64, fields repository.ContactFields, ownerID int64) (*models.Contact, error)
	removeFunc                 func(ctx context.Context, id int64, ownerID int64) (*models.Contact, error)
	listFunc                   func(ctx context.Context, ownerID int64, page repository.Page) ([]models.Contact, error)
	findByIDFunc               func(ctx context.Context, id int64, ownerID int64) (*models.Contact, error)
	findByLastnameAndEmailFunc func(ctx context.Context, lastname, email string, ownerID int64) (*models.Contact, error)
	searchFunc                 func(ctx context.Context, field, value string, ownerID int64) ([]models.Contact, error)
	upcomingBirthdaysFunc      func(ctx context.Context, start, end time.Time, ownerID int64) ([]models.Contact, error)
}

var errNotImplemented = errors.New("not implemented")

func (m *mockContactRepository) Create(ctx context.Context, fields repository.ContactFields, ownerID int64) (*models.Contact, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, fields, ownerID)
	}
	return nil, errNotImplemented
}

func (m *mockContactRepository) Update(ctx context.Context, id int64, fields repository.ContactFields, ownerID int64) (*models.Contact, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, fields, ownerID)
	}
	return nil, errNotImplemented
}

func (m *mockContactRepository) Remove(ctx context.Context, id int64, ownerID int64) (*models.Contact, error) {
	if m.removeFunc != nil {
		return m.removeFunc(ctx, id, ownerID)
	}
	return nil, errNotImplemented
}

func (m *mockContactRepository) List(ctx context.Context, ownerID int64, page repository.Page) ([]models.Contact, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ownerID, page)
	}
	return nil, errNotImplemented
}

func (m *mockContactRepository) FindByID(ctx context.Context, id int64, ownerID int64) (*models.Contact, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id, ownerID)
	}
	return nil, errNotImplemented
}

func (m *mockContactRepository) FindByLastnameAndEmail(ctx context.Context, lastname, email string, ownerID int64) (*models.Contact, error) {
	if m.findByLastnameAndEmailFunc != nil {
		return m.findByLastnameAndEmailFunc(ctx, lastname, email, ownerID)
	}
	return nil, nil
}

func (m *mockContactRepository) SearchByLastname(ctx context.Context, lastname string, ownerID int64) ([]models.Contact, error) {
	return m.search(ctx, "lastname", lastname, ownerID)
}

func (m *mockContactRepository) SearchByFirstname(ctx context.Context, firstname string, ownerID int64) ([]models.Contact, error) {
	return m.search(ctx, "firstname", firstname, ownerID)
}

func (m *mockContactRepository) SearchByEmail(ctx context.Context, email string, ownerID int64) ([]models.Contact, error) {
	return m.search(ctx, "email", email, ownerID)
}

func (m *mockContactRepository) search(ctx context.Context, field, value string, ownerID int64) ([]models.Contact, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, field, value, ownerID)
	}
	return nil, errNotImplemented
}

func (m *mockContactRepository) UpcomingBirthdays(ctx context.Context, start, end time.Time, ownerID int64) ([]models.Contact, error) {
	if m.upcomingBirthdaysFunc != nil {
		return m.upcomingBirthdaysFunc(ctx, start, end, ownerID)
	}
	return nil, errNotImplemented
}

// =============================================================================
// Mock ConfirmationSender
// =============================================================================

type sentConfirmation struct {
	email    string
	username string
	token    string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentConfirmation
	err  error
}

func (m *recordingMailer) SendConfirmation(email, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentConfirmation{email: email, username: username, token: token})
	return nil
}

func (m *recordingMailer) last() (sentConfirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return sentConfirmation{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// =============================================================================
// Test Helpers
// =============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

type authFixture struct {
	auth   *authService
	users  UserService
	repo   *memoryUserRepository
	jwt    *jwtService
	cache  cache.UserCache
	mailer *recordingMailer
	redis  *miniredis.Miniredis
	hasher PasswordHasher
}

func setupAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	client, mr := setupTestRedis(t)
	userCache := cache.NewUserCache(client, 0)
	repo := newMemoryUserRepository()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	jwtSvc := newTestJWTService(t)
	mailer := &recordingMailer{}
	logger := discardLogger()

	users := NewUserService(repo, userCache, hasher, logger)
	auth := NewAuthService(users, jwtSvc, hasher, userCache, mailer, logger).(*authService)

	return &authFixture{
		auth:   auth,
		users:  users,
		repo:   repo,
		jwt:    jwtSvc,
		cache:  userCache,
		mailer: mailer,
		redis:  mr,
		hasher: hasher,
	}
}

// signupConfirmed registers a user and confirms the address directly.
func (f *authFixture) signupConfirmed(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	user, err := f.auth.Signup(context.Background(), username, email, password)
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if err := f.users.ConfirmEmail(context.Background(), email); err != nil {
		t.Fatalf("ConfirmEmail() error = %v", err)
	}
	user.Confirmed = true
	return user
}
