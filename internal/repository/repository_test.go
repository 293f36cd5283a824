package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/GunarsK-portfolio/contacts-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// =============================================================================
// Test Helpers
// =============================================================================

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Contact{}))
	return db
}

func createUser(t *testing.T, repo UserRepository, email string) *models.User {
	t.Helper()
	user := &models.User{Username: "user", Email: email, Password: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bobFields() ContactFields {
	return ContactFields{
		Firstname: "Bob",
		Lastname:  "Jones",
		Email:     "bob@example.com",
		Phone:     "123",
		Birth:     date(1990, time.May, 1),
	}
}

// =============================================================================
// UserRepository Tests
// =============================================================================

func TestUserRepository_CreateAndFind(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()

	user := createUser(t, repo, "alice@example.com")
	assert.NotZero(t, user.ID)
	assert.False(t, user.Confirmed)

	found, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "alice@example.com", byID.Email)
}

func TestUserRepository_FindAbsent(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))

	user, err := repo.FindByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = repo.FindByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_DuplicateEmail(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	createUser(t, repo, "alice@example.com")

	err := repo.Create(context.Background(), &models.User{Email: "alice@example.com", Password: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate), "error = %v, want ErrDuplicate", err)
}

func TestUserRepository_ColumnUpdates(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	ctx := context.Background()
	user := createUser(t, repo, "alice@example.com")

	token := "refresh-token"
	require.NoError(t, repo.UpdateRefreshToken(ctx, user.ID, &token))
	require.NoError(t, repo.UpdateRefreshToken(ctx, user.ID, &token))
	require.NoError(t, repo.MarkConfirmed(ctx, user.ID))
	require.NoError(t, repo.UpdateAvatar(ctx, user.ID, "https://cdn.example.com/a.png"))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.RefreshToken)
	assert.Equal(t, token, *found.RefreshToken)
	assert.True(t, found.Confirmed)
	require.NotNil(t, found.Avatar)
	assert.Equal(t, "https://cdn.example.com/a.png", *found.Avatar)

	require.NoError(t, repo.UpdateRefreshToken(ctx, user.ID, nil))
	found, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, found.RefreshToken)
}

func TestUserRepository_LongRefreshToken(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	user := createUser(t, repo, "alice@example.com")

	token := strings.Repeat("x", 600)
	require.NoError(t, repo.UpdateRefreshToken(ctx, user.ID, &token))

	found, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, found.RefreshToken)
	assert.Len(t, *found.RefreshToken, 600)

	s, err := schema.Parse(&models.User{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := s.LookUpField("refresh_token")
	require.NotNil(t, field)
	assert.Equal(t, "text", field.TagSettings["TYPE"])
	assert.Zero(t, field.Size, "refresh_token must not carry a length limit")
}

// =============================================================================
// ContactRepository Tests
// =============================================================================

func TestContactRepository_CreateScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	contact, err := repo.Create(ctx, bobFields(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, contact.UserID)
	assert.False(t, contact.CreatedAt.IsZero())

	own, err := repo.FindByID(ctx, contact.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, own)
	assert.Equal(t, "1990-05-01", own.Birth.Format(models.DateLayout))

	other, err := repo.FindByID(ctx, contact.ID, bob.ID)
	require.NoError(t, err)
	assert.Nil(t, other, "contact must not be visible to another user")

	list, err := repo.List(ctx, bob.ID, Page{})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = repo.List(ctx, alice.ID, Page{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, alice.ID, list[0].UserID)
}

func TestContactRepository_EmailUniquePerOwner(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	_, err := repo.Create(ctx, bobFields(), alice.ID)
	require.NoError(t, err)

	_, err = repo.Create(ctx, bobFields(), bob.ID)
	require.NoError(t, err, "same email under a different owner is allowed")

	_, err = repo.Create(ctx, bobFields(), alice.ID)
	assert.True(t, errors.Is(err, ErrDuplicate), "error = %v, want ErrDuplicate", err)
}

func TestContactRepository_UpdateOnlyRevisesAllowedFields(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	contact, err := repo.Create(ctx, bobFields(), alice.ID)
	require.NoError(t, err)

	details := "met at conference"
	fields := ContactFields{
		Firstname:         "Robert",
		Lastname:          "Smith",
		Email:             "robert@example.com",
		Phone:             "999",
		Birth:             date(1991, time.June, 2),
		AdditionalDetails: &details,
	}

	updated, err := repo.Update(ctx, contact.ID, fields, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "robert@example.com", updated.Email)
	assert.Equal(t, "1991-06-02", updated.Birth.Format(models.DateLayout))
	require.NotNil(t, updated.AdditionalDetails)
	assert.Equal(t, details, *updated.AdditionalDetails)
	assert.Equal(t, "Bob", updated.Firstname)
	assert.Equal(t, "Jones", updated.Lastname)
	assert.Equal(t, "123", updated.Phone)
	assert.False(t, updated.UpdatedAt.Before(contact.UpdatedAt))
}

func TestContactRepository_UpdateNotOwned(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	mallory := createUser(t, users, "mallory@example.com")
	contact, err := repo.Create(ctx, bobFields(), alice.ID)
	require.NoError(t, err)

	fields := bobFields()
	fields.Email = "stolen@example.com"
	fields.Birth = date(2000, time.January, 1)

	updated, err := repo.Update(ctx, contact.ID, fields, mallory.ID)
	require.NoError(t, err)
	assert.Nil(t, updated)

	stored, err := repo.FindByID(ctx, contact.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", stored.Email)
	assert.Equal(t, "1990-05-01", stored.Birth.Format(models.DateLayout))
	assert.Nil(t, stored.AdditionalDetails)
}

func TestContactRepository_RemoveTwice(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	contact, err := repo.Create(ctx, bobFields(), alice.ID)
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, contact.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)
	assert.Equal(t, "bob@example.com", removed.Email)

	removed, err = repo.Remove(ctx, contact.ID, alice.ID)
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestContactRepository_RemoveNotOwned(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	mallory := createUser(t, users, "mallory@example.com")
	contact, err := repo.Create(ctx, bobFields(), alice.ID)
	require.NoError(t, err)

	removed, err := repo.Remove(ctx, contact.ID, mallory.ID)
	require.NoError(t, err)
	assert.Nil(t, removed)

	stored, err := repo.FindByID(ctx, contact.ID, alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored)
}

func TestContactRepository_Searches(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")

	_, err := repo.Create(ctx, bobFields(), alice.ID)
	require.NoError(t, err)
	second := bobFields()
	second.Firstname = "Anna"
	second.Email = "anna@example.com"
	_, err = repo.Create(ctx, second, alice.ID)
	require.NoError(t, err)
	_, err = repo.Create(ctx, bobFields(), bob.ID)
	require.NoError(t, err)

	byLast, err := repo.SearchByLastname(ctx, "Jones", alice.ID)
	require.NoError(t, err)
	assert.Len(t, byLast, 2)

	byFirst, err := repo.SearchByFirstname(ctx, "Anna", alice.ID)
	require.NoError(t, err)
	require.Len(t, byFirst, 1)
	assert.Equal(t, "anna@example.com", byFirst[0].Email)

	byEmail, err := repo.SearchByEmail(ctx, "bob@example.com", alice.ID)
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, alice.ID, byEmail[0].UserID)

	dup, err := repo.FindByLastnameAndEmail(ctx, "Jones", "bob@example.com", alice.ID)
	require.NoError(t, err)
	assert.NotNil(t, dup)

	none, err := repo.FindByLastnameAndEmail(ctx, "Jones", "nobody@example.com", alice.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestContactRepository_ListPagination(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		fields := bobFields()
		fields.Email = email
		_, err := repo.Create(ctx, fields, alice.ID)
		require.NoError(t, err)
	}

	page, err := repo.List(ctx, alice.ID, Page{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "b@example.com", page[0].Email)
}

func TestContactRepository_UpcomingBirthdays(t *testing.T) {
	db := setupTestDB(t)
	users := NewUserRepository(db)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createUser(t, users, "alice@example.com")
	bob := createUser(t, users, "bob@example.com")
	today := date(2024, time.March, 10)

	soon := bobFields()
	soon.Email = "soon@example.com"
	soon.Birth = date(1985, time.March, 13)
	_, err := repo.Create(ctx, soon, alice.ID)
	require.NoError(t, err)

	later := bobFields()
	later.Email = "later@example.com"
	later.Birth = date(1985, time.April, 9)
	_, err = repo.Create(ctx, later, alice.ID)
	require.NoError(t, err)

	_, err = repo.Create(ctx, soon, bob.ID)
	require.NoError(t, err)

	upcoming, err := repo.UpcomingBirthdays(ctx, today, today.AddDate(0, 0, 7), alice.ID)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "soon@example.com", upcoming[0].Email)
	assert.Equal(t, alice.ID, upcoming[0].UserID)
}

func TestContactRepository_UpcomingBirthdays_Windows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()
	alice := createUser(t, NewUserRepository(db), "alice@example.com")

	births := map[string]time.Time{
		"dec30@example.com":  date(1980, time.December, 30),
		"jan02@example.com":  date(1981, time.January, 2),
		"jan20@example.com":  date(1982, time.January, 20),
		"leap@example.com":   date(1992, time.February, 29),
		"mar02@example.com":  date(1983, time.March, 2),
		"june15@example.com": date(1984, time.June, 15),
	}
	for email, birth := range births {
		fields := bobFields()
		fields.Email = email
		fields.Birth = birth
		_, err := repo.Create(ctx, fields, alice.ID)
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  []string
	}{
		{
			name:  "crosses new year",
			start: date(2024, time.December, 28),
			end:   date(2025, time.January, 4),
			want:  []string{"dec30@example.com", "jan02@example.com"},
		},
		{
			name:  "leap day moves to march in common year",
			start: date(2023, time.February, 27),
			end:   date(2023, time.March, 1),
			want:  []string{"leap@example.com"},
		},
		{
			name:  "leap day kept in leap year",
			start: date(2024, time.February, 28),
			end:   date(2024, time.March, 1),
			want:  []string{"leap@example.com"},
		},
		{
			name:  "leap day outside window",
			start: date(2023, time.March, 2),
			end:   date(2023, time.March, 9),
			want:  []string{"mar02@example.com"},
		},
		{
			name:  "whole year",
			start: date(2024, time.June, 1),
			end:   date(2025, time.June, 1),
			want:  []string{"dec30@example.com", "jan02@example.com", "jan20@example.com", "leap@example.com", "mar02@example.com", "june15@example.com"},
		},
		{
			name:  "inverted",
			start: date(2024, time.June, 20),
			end:   date(2024, time.June, 10),
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.UpcomingBirthdays(ctx, tt.start, tt.end, alice.ID)
			require.NoError(t, err)

			emails := make([]string, 0, len(got))
			for _, c := range got {
				emails = append(emails, c.Email)
			}
			assert.ElementsMatch(t, tt.want, emails)
		})
	}
}

func TestBirthdayWindow(t *testing.T) {
	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantOK    bool
		wantOr    bool
		wantRange []any
	}{
		{"same year", date(2024, time.May, 1), date(2024, time.May, 8), true, false, []any{501, 508, leapDayKey}},
		{"crosses new year", date(2024, time.December, 28), date(2025, time.January, 4), true, true, []any{1228, 104, leapDayKey}},
		{"almost a year", date(2024, time.March, 10), date(2025, time.March, 9), true, true, []any{310, 309, leapDayKey}},
		{"full year", date(2024, time.March, 10), date(2025, time.March, 10), false, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, ok := birthdayWindow("k", tt.start, tt.end)
			assert.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantRange, args)
			assert.Equal(t, tt.wantOr, strings.Contains(query, ">= ? OR"))
			assert.Equal(t, strings.Count(query, "?"), len(args))
		})
	}
}

// =============================================================================
// BirthdayWithin Tests
// =============================================================================

func TestBirthdayWithin(t *testing.T) {
	tests := []struct {
		name  string
		birth time.Time
		start time.Time
		end   time.Time
		want  bool
	}{
		{"inside window", date(1990, time.May, 4), date(2024, time.May, 1), date(2024, time.May, 8), true},
		{"window start inclusive", date(1990, time.May, 1), date(2024, time.May, 1), date(2024, time.May, 8), true},
		{"window end inclusive", date(1990, time.May, 8), date(2024, time.May, 1), date(2024, time.May, 8), true},
		{"after window", date(1990, time.May, 31), date(2024, time.May, 1), date(2024, time.May, 8), false},
		{"before window", date(1990, time.April, 30), date(2024, time.May, 1), date(2024, time.May, 8), false},
		{"year wraparound december", date(1990, time.December, 30), date(2024, time.December, 28), date(2025, time.January, 4), true},
		{"year wraparound january", date(1990, time.January, 2), date(2024, time.December, 28), date(2025, time.January, 4), true},
		{"leap day in non-leap year", date(1992, time.February, 29), date(2023, time.February, 27), date(2023, time.March, 1), true},
		{"inverted window", date(1990, time.May, 4), date(2024, time.May, 8), date(2024, time.May, 1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BirthdayWithin(tt.birth, tt.start, tt.end); got != tt.want {
				t.Errorf("BirthdayWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}
