package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-coach/internal/apperr"
	"github.com/capitalize-ai/sales-coach/internal/auth"
	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/ratelimit"
	"github.com/capitalize-ai/sales-coach/internal/store"
	"github.com/capitalize-ai/sales-coach/internal/testutil"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

const goodPassword = "Sup3r$ecret"

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func newAccountService(t *testing.T) (*AccountService, *sql.DB, *manualClock) {
	t.Helper()
	db, uow, _ := setupDB(t)
	clock := &manualClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	lockout := ratelimit.NewLockout(ratelimit.NewMemoryCounter(clock), 5, 5*time.Minute)
	svc := NewAccountService(db, uow, auth.PasswordPolicy{MinLength: 8}, lockout, logger.NewNop())
	return svc, db, clock
}

func register(t *testing.T, svc *AccountService, email string) *model.User {
	t.Helper()
	u, err := svc.Register(context.Background(), &model.RegisterRequest{Name: "Rep", Email: email, Password: goodPassword})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	svc, db, _ := newAccountService(t)
	ctx := context.Background()

	u := register(t, svc, "  Rep@Example.com ")
	assert.Equal(t, "rep@example.com", u.Email)
	assert.Equal(t, model.NewSkillScores(), u.Scores)
	assert.True(t, auth.CheckPassword(u.PasswordHash, goodPassword))

	stored, err := store.NewUserRepo(db).GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.CompletedRoleplays)
	assert.Len(t, stored.Scores, len(model.Skills))
}

func TestRegister_Errors(t *testing.T) {
	svc, _, _ := newAccountService(t)
	register(t, svc, "taken@example.com")

	tests := []struct {
		name    string
		req     model.RegisterRequest
		kind    error
		wantMsg string
	}{
		{"missing name", model.RegisterRequest{Email: "a@example.com", Password: goodPassword}, apperr.ErrValidation, "Please provide all required fields"},
		{"missing password", model.RegisterRequest{Name: "A", Email: "a@example.com"}, apperr.ErrValidation, "Please provide all required fields"},
		{"duplicate email", model.RegisterRequest{Name: "A", Email: "TAKEN@example.com", Password: goodPassword}, apperr.ErrConflict, "Email address already in use"},
		{"weak password", model.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password"}, apperr.ErrValidation, "Password must contain at least one digit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), &tt.req)
			require.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.wantMsg, apperr.Message(err))
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAccountService(t)
	u := register(t, svc, "rep@example.com")

	got, err := svc.Login(context.Background(), &model.LoginRequest{Email: "REP@example.com", Password: goodPassword})
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "rep@example.com", Password: "wrong"})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "nobody@example.com", Password: goodPassword})
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, err = svc.Login(context.Background(), &model.LoginRequest{Email: "rep@example.com"})
	require.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLogin_LocksAfterRepeatedFailures(t *testing.T) {
	svc, _, clock := newAccountService(t)
	ctx := context.Background()
	register(t, svc, "rep@example.com")

	for i := 0; i < 4; i++ {
		_, err := svc.Login(ctx, &model.LoginRequest{Email: "rep@example.com", Password: "wrong"})
		require.ErrorIs(t, err, apperr.ErrUnauthorized, "attempt %d", i+1)
		clock.now = clock.now.Add(time.Second)
	}

	_, err := svc.Login(ctx, &model.LoginRequest{Email: "rep@example.com", Password: "wrong"})
	var ra *apperr.RetryAfterError
	require.ErrorAs(t, err, &ra)
	assert.Equal(t, 5*time.Minute, ra.RetryAfter)
	assert.Contains(t, ra.Reason, "Account locked")

	// Even the right password is refused while locked.
	clock.now = clock.now.Add(time.Minute)
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "rep@example.com", Password: goodPassword})
	require.ErrorAs(t, err, &ra)
	assert.Equal(t, 4*time.Minute, ra.RetryAfter)
	assert.Equal(t, "Too many login attempts. Try again in 240 seconds.", apperr.Message(err))

	clock.now = clock.now.Add(4*time.Minute + time.Second)
	_, err = svc.Login(ctx, &model.LoginRequest{Email: "rep@example.com", Password: goodPassword})
	require.NoError(t, err)
}

func TestLogin_SuccessResetsFailures(t *testing.T) {
	svc, _, clock := newAccountService(t)
	ctx := context.Background()
	register(t, svc, "rep@example.com")

	for round := 0; round < 3; round++ {
		for i := 0; i < 4; i++ {
			_, err := svc.Login(ctx, &model.LoginRequest{Email: "rep@example.com", Password: "wrong"})
			require.ErrorIs(t, err, apperr.ErrUnauthorized)
			clock.now = clock.now.Add(time.Second)
		}
		_, err := svc.Login(ctx, &model.LoginRequest{Email: "rep@example.com", Password: goodPassword})
		require.NoError(t, err, "round %d", round)
	}
}

func TestResolveExternal(t *testing.T) {
	svc, db, _ := newAccountService(t)
	ctx := context.Background()
	users := store.NewUserRepo(db)

	t.Run("creates a new user", func(t *testing.T) {
		u, err := svc.ResolveExternal(ctx, model.ExternalIdentity{ExternalID: "g-1", Email: "new@example.com", DisplayName: "New Rep"})
		require.NoError(t, err)
		assert.Equal(t, "New Rep", u.Name)
		assert.Equal(t, "g-1", u.ExternalID)
		assert.Equal(t, model.NewSkillScores(), u.Scores)
		assert.Empty(t, u.PasswordHash)
	})

	t.Run("matches by external id first", func(t *testing.T) {
		u, err := svc.ResolveExternal(ctx, model.ExternalIdentity{ExternalID: "g-1", Email: "changed@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", u.Email)
	})

	t.Run("links an existing password account by email", func(t *testing.T) {
		existing := register(t, svc, "linked@example.com")

		u, err := svc.ResolveExternal(ctx, model.ExternalIdentity{ExternalID: "g-2", Email: "Linked@example.com"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, u.ID)

		stored, err := users.GetByExternalID(ctx, "g-2")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, stored.ID)
		assert.True(t, auth.CheckPassword(stored.PasswordHash, goodPassword), "password login keeps working")
	})

	t.Run("does not relink an account bound to another identity", func(t *testing.T) {
		u, err := svc.ResolveExternal(ctx, model.ExternalIdentity{ExternalID: "g-3", Email: "linked@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "g-2", u.ExternalID)
	})
}

func TestDashboard(t *testing.T) {
	svc, db, _ := newAccountService(t)
	ctx := context.Background()
	u := register(t, svc, "rep@example.com")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		testutil.NewTestConversation(t, db, u.ID, testutil.WithUpdatedAt(base.Add(time.Duration(i)*time.Hour)))
	}

	d, err := svc.Dashboard(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, d.User.ID)
	require.Len(t, d.RecentConversations, DashboardConversations)
	assert.Equal(t, base.Add(6*time.Hour), d.RecentConversations[0].UpdatedAt)

	_, err = svc.Dashboard(ctx, fmt.Sprintf("missing-%d", 1))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}
