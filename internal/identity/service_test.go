// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/identity"
	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/pkg/pointer"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ahmad@example.com", identity.NormalizeEmail("  Ahmad@Example.COM "))
	assert.Equal(t, identity.NormalizeEmail("a@B.id"), identity.NormalizeEmail("A@b.ID"))
}

/*
TestLogin_FailuresAreIndistinguishable verifies that unknown, inactive and
wrong-password attempts produce the same error.
*/
func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.repository.seed(t, fx.hasher, "active@example.com", "secret1", sec.RoleHafiz, "3201", true)
	fx.repository.seed(t, fx.hasher, "pending@example.com", "secret1", sec.RoleHafiz, "3201", false)

	attempts := []identity.LoginInput{
		{Email: "nobody@example.com", Password: "secret1"},
		{Email: "pending@example.com", Password: "secret1"},
		{Email: "active@example.com", Password: "wrong-password"},
	}

	var messages []string
	for _, attempt := range attempts {
		_, err := fx.service.Login(ctx, attempt)
		require.Error(t, err)
		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperr.CodeInvalidCredentials, appErr.Code)
		messages = append(messages, appErr.Message)
	}
	assert.Equal(t, messages[0], messages[1])
	assert.Equal(t, messages[1], messages[2])
}

func TestLogin_Success(t *testing.T) {
	fx := newFixture(t)
	seeded := fx.repository.seed(t, fx.hasher, "Admin@Example.com", "secret1", sec.RoleRegencyAdmin, "3201", true)

	got, err := fx.service.Login(context.Background(), identity.LoginInput{Email: "ADMIN@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, access.Principal{ID: seeded.ID, Role: sec.RoleRegencyAdmin, Region: "3201"}, got.Principal())
}

func TestLogin_StorageFailureIsNotMasked(t *testing.T) {
	fx := newFixture(t)
	fx.repository.failWith = errors.New("connection reset")

	_, err := fx.service.Login(context.Background(), identity.LoginInput{Email: "a@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.False(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))
}

func TestCurrentIdentity(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	active := fx.repository.seed(t, fx.hasher, "a@example.com", "secret1", sec.RoleHafiz, "3201", true)
	inactive := fx.repository.seed(t, fx.hasher, "b@example.com", "secret1", sec.RoleHafiz, "3201", false)

	got, err := fx.service.CurrentIdentity(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, active.Email, got.Email)

	_, err = fx.service.CurrentIdentity(ctx, inactive.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	_, err = fx.service.CurrentIdentity(ctx, "01960000-0000-7000-8000-000000000000")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

/*
TestRegister_PendingAccountAndMail covers the shape of a fresh registration.
*/
func TestRegister_PendingAccountAndMail(t *testing.T) {
	fx := newFixture(t)

	created, err := fx.service.Register(context.Background(), identity.RegisterInput{
		Email:       " Hafiz@Example.com",
		Password:    "secret1",
		DisplayName: "Hafiz One",
		Region:      "3201",
	})
	require.NoError(t, err)

	assert.Equal(t, "hafiz@example.com", created.Email)
	assert.Equal(t, sec.RoleHafiz, created.Role)
	assert.Equal(t, "3201", pointer.Val(created.Region))
	assert.False(t, created.IsActive)
	assert.False(t, created.IsVerified)
	assert.NotEqual(t, "secret1", created.PasswordHash)

	sent := fx.dispatcher.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hafiz@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "https://hafiz.test/verify-email?token=")
}

func TestRegister_DuplicateEmailInAnyCase(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	input := identity.RegisterInput{Email: "dup@example.com", Password: "secret1", DisplayName: "Dup", Region: "3201"}

	_, err := fx.service.Register(ctx, input)
	require.NoError(t, err)

	input.Email = "DUP@Example.Com"
	_, err = fx.service.Register(ctx, input)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input identity.RegisterInput
		field string
	}{
		{"short password", identity.RegisterInput{Email: "a@example.com", Password: "12345", DisplayName: "A", Region: "3201"}, identity.FieldPassword},
		{"bad email", identity.RegisterInput{Email: "not-an-email", Password: "secret1", DisplayName: "A", Region: "3201"}, identity.FieldEmail},
		{"missing region", identity.RegisterInput{Email: "a@example.com", Password: "secret1", DisplayName: "A"}, identity.FieldRegion},
		{"password beyond bcrypt limit", identity.RegisterInput{Email: "a@example.com", Password: strings.Repeat("x", 73), DisplayName: "A", Region: "3201"}, identity.FieldPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			_, err := fx.service.Register(context.Background(), tt.input)

			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, apperr.CodeValidation, appErr.Code)
			require.NotEmpty(t, appErr.Details)
			assert.Equal(t, tt.field, appErr.Details[0].Field)
			assert.Zero(t, fx.repository.writeCount())
		})
	}
}

func TestRegister_MailFailureKeepsAccount(t *testing.T) {
	fx := newFixture(t)
	fx.dispatcher.failWith = errors.New("smtp down")

	created, err := fx.service.Register(context.Background(), identity.RegisterInput{
		Email: "kept@example.com", Password: "secret1", DisplayName: "Kept", Region: "3201",
	})
	require.NoError(t, err)

	_, err = fx.repository.FindByID(context.Background(), created.ID)
	assert.NoError(t, err)
	assert.Contains(t, fx.logs.String(), "mail_dispatch_failed")
}

/*
TestVerify_SingleUse verifies that a token activates the account once and is
then rejected, and that login works only after verification.
*/
func TestVerify_SingleUse(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	input := identity.RegisterInput{Email: "v@example.com", Password: "secret1", DisplayName: "V", Region: "3201"}

	_, err := fx.service.Register(ctx, input)
	require.NoError(t, err)

	_, err = fx.service.Login(ctx, identity.LoginInput{Email: input.Email, Password: input.Password})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))

	token := fx.dispatcher.tokenFor(t, "v@example.com")
	require.NoError(t, fx.service.Verify(ctx, token))

	got, err := fx.service.Login(ctx, identity.LoginInput{Email: input.Email, Password: input.Password})
	require.NoError(t, err)
	assert.True(t, got.IsActive)
	assert.True(t, got.IsVerified)

	err = fx.service.Verify(ctx, token)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidToken))
}

func TestVerify_UnknownAndEmptyToken(t *testing.T) {
	fx := newFixture(t)
	for _, token := range []string{"", "   ", "never-issued"} {
		err := fx.service.Verify(context.Background(), token)
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidToken), "token %q", token)
	}
}

func TestVerify_ConcurrentConsumersOnlyOneWins(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	_, err := fx.service.Register(ctx, identity.RegisterInput{Email: "race@example.com", Password: "secret1", DisplayName: "R", Region: "3201"})
	require.NoError(t, err)
	token := fx.dispatcher.tokenFor(t, "race@example.com")

	const consumers = 8
	var wg sync.WaitGroup
	results := make(chan error, consumers)
	for range consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- fx.service.Verify(ctx, token)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidToken))
	}
	assert.Equal(t, 1, succeeded)
}

/*
TestPasswordReset_Flow covers request, validation, consumption and reuse.
*/
func TestPasswordReset_Flow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	seeded := fx.repository.seed(t, fx.hasher, "reset@example.com", "old-secret", sec.RoleHafiz, "3201", true)

	require.NoError(t, fx.service.RequestPasswordReset(ctx, "RESET@example.com"))
	token := fx.dispatcher.tokenFor(t, "reset@example.com")
	assert.Equal(t, sec.HashToken(token), fx.repository.resetHashOf(seeded.ID))

	require.NoError(t, fx.service.ValidateResetToken(ctx, token))
	require.NoError(t, fx.service.ResetPassword(ctx, token, "new-secret"))

	_, err := fx.service.Login(ctx, identity.LoginInput{Email: "reset@example.com", Password: "old-secret"})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))
	_, err = fx.service.Login(ctx, identity.LoginInput{Email: "reset@example.com", Password: "new-secret"})
	assert.NoError(t, err)

	err = fx.service.ResetPassword(ctx, token, "another-secret")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrExpiredToken))
	assert.Empty(t, fx.repository.resetHashOf(seeded.ID))
}

func TestPasswordReset_UnknownEmailIsSilent(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.service.RequestPasswordReset(context.Background(), "ghost@example.com"))
	assert.Empty(t, fx.dispatcher.sent())
	assert.Zero(t, fx.repository.writeCount())
}

func TestPasswordReset_ExpiredToken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.repository.seed(t, fx.hasher, "late@example.com", "old-secret", sec.RoleHafiz, "3201", true)

	require.NoError(t, fx.service.RequestPasswordReset(ctx, "late@example.com"))
	token := fx.dispatcher.tokenFor(t, "late@example.com")

	fx.clock.Advance(time.Hour + time.Second)

	err := fx.service.ValidateResetToken(ctx, token)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrExpiredToken))

	err = fx.service.ResetPassword(ctx, token, "new-secret")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidOrExpiredToken))
}

func TestPasswordReset_ShortPasswordRejectedFirst(t *testing.T) {
	fx := newFixture(t)

	err := fx.service.ResetPassword(context.Background(), "", "12345")
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestChangePassword covers validation order, credential check and the
onboarding flags.
*/
func TestChangePassword(t *testing.T) {
	t.Run("short password leaves storage untouched", func(t *testing.T) {
		fx := newFixture(t)
		seeded := fx.repository.seed(t, fx.hasher, "c@example.com", "secret1", sec.RoleHafiz, "3201", true)
		before := fx.repository.writeCount()

		err := fx.service.ChangePassword(context.Background(), seeded.ID, "secret1", "12345")

		appErr := apperr.As(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperr.CodeValidation, appErr.Code)
		assert.Equal(t, identity.FieldNewPassword, appErr.Details[0].Field)
		assert.Equal(t, before, fx.repository.writeCount())
	})

	t.Run("wrong current password", func(t *testing.T) {
		fx := newFixture(t)
		seeded := fx.repository.seed(t, fx.hasher, "c@example.com", "secret1", sec.RoleHafiz, "3201", true)

		err := fx.service.ChangePassword(context.Background(), seeded.ID, "not-it", "secret2")
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	})

	t.Run("finalizes onboarding", func(t *testing.T) {
		fx := newFixture(t)
		ctx := context.Background()
		admin := fx.repository.seed(t, fx.hasher, "prov@example.com", "secret1", sec.RoleProvinceAdmin, "", true)

		created, err := fx.service.Create(ctx, admin.Principal(), identity.CreateInput{
			Email: "new@example.com", Password: "initial1", DisplayName: "New", Role: sec.RoleHafiz, Region: "3201",
		})
		require.NoError(t, err)
		assert.True(t, created.IsActive)
		assert.False(t, created.IsVerified)

		require.NoError(t, fx.service.ChangePassword(ctx, created.ID, "initial1", "chosen1"))

		got, err := fx.service.CurrentIdentity(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.IsActive)
		assert.True(t, got.IsVerified)
		assert.True(t, fx.hasher.Verify("chosen1", got.PasswordHash))
	})
}

func TestLogout_RevokesPresentedSession(t *testing.T) {
	fx := newFixture(t)

	fx.service.Logout(context.Background(), nil)
	fx.service.Logout(context.Background(), &sec.SessionClaims{})

	assert.Len(t, fx.revoker.revoked, 1)
}

/*
TestCreate_RoleAndRegionRules verifies who may create which accounts.
*/
func TestCreate_RoleAndRegionRules(t *testing.T) {
	province := access.Principal{ID: "p1", Role: sec.RoleProvinceAdmin}
	regency := access.Principal{ID: "r1", Role: sec.RoleRegencyAdmin, Region: "3201"}
	hafiz := access.Principal{ID: "h1", Role: sec.RoleHafiz, Region: "3201"}

	tests := []struct {
		name  string
		actor access.Principal
		role  sec.Role
		want  string
	}{
		{"province creates regency admin", province, sec.RoleRegencyAdmin, ""},
		{"province creates hafiz", province, sec.RoleHafiz, ""},
		{"province cannot create province admin", province, sec.RoleProvinceAdmin, apperr.CodeForbidden},
		{"regency creates hafiz in own region", regency, sec.RoleHafiz, ""},
		{"regency cannot create regency admin", regency, sec.RoleRegencyAdmin, apperr.CodeForbidden},
		{"hafiz cannot create", hafiz, sec.RoleHafiz, apperr.CodeForbidden},
		{"unknown role rejected", province, sec.Role("superuser"), apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)
			_, err := fx.service.Create(context.Background(), tt.actor, identity.CreateInput{
				Email: "created@example.com", Password: "secret1", DisplayName: "Created", Role: tt.role, Region: "3201",
			})
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.HasCode(err, tt.want), "got %v", err)
		})
	}
}

func TestCreate_RegencyAdminOtherRegion(t *testing.T) {
	fx := newFixture(t)
	regency := access.Principal{ID: "r1", Role: sec.RoleRegencyAdmin, Region: "3201"}

	_, err := fx.service.Create(context.Background(), regency, identity.CreateInput{
		Email: "x@example.com", Password: "secret1", DisplayName: "X", Role: sec.RoleHafiz, Region: "3202",
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	assert.Zero(t, fx.repository.writeCount())
}

func TestCreate_RegionRequiredForScopedRoles(t *testing.T) {
	province := access.Principal{ID: "p1", Role: sec.RoleProvinceAdmin}

	for _, role := range []sec.Role{sec.RoleRegencyAdmin, sec.RoleHafiz} {
		fx := newFixture(t)
		_, err := fx.service.Create(context.Background(), province, identity.CreateInput{
			Email: "x@example.com", Password: "secret1", DisplayName: "X", Role: role, Region: "  ",
		})
		assert.True(t, apperr.HasCode(err, apperr.CodeValidation), "role %s: got %v", role, err)
		assert.Zero(t, fx.repository.writeCount())
	}
}

/*
TestListAndDeactivate_RegionIsolation verifies a regency admin neither sees
nor touches accounts outside their region.
*/
func TestListAndDeactivate_RegionIsolation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	admin := fx.repository.seed(t, fx.hasher, "admin-a@example.com", "secret1", sec.RoleRegencyAdmin, "A", true)
	peer := fx.repository.seed(t, fx.hasher, "admin-a2@example.com", "secret1", sec.RoleRegencyAdmin, "A", true)
	local := fx.repository.seed(t, fx.hasher, "hafiz-a@example.com", "secret1", sec.RoleHafiz, "A", true)
	foreign := fx.repository.seed(t, fx.hasher, "hafiz-b@example.com", "secret1", sec.RoleHafiz, "B", true)
	actor := admin.Principal()

	listed, total, err := fx.service.List(ctx, actor, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	for _, entity := range listed {
		assert.Equal(t, "A", pointer.Val(entity.Region))
	}

	err = fx.service.Deactivate(ctx, actor, foreign.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	err = fx.service.Deactivate(ctx, actor, peer.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	err = fx.service.Deactivate(ctx, actor, admin.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	require.NoError(t, fx.service.Deactivate(ctx, actor, local.ID))
	_, err = fx.service.Login(ctx, identity.LoginInput{Email: "hafiz-a@example.com", Password: "secret1"})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))

	province := access.Principal{ID: "p1", Role: sec.RoleProvinceAdmin}
	all, total, err := fx.service.List(ctx, province, 50, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)
	require.NoError(t, fx.service.Deactivate(ctx, province, foreign.ID))
}
