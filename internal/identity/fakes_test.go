// Copyright (c) 2026 Hafiz. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity_test

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/hafiz/internal/access"
	"github.com/taibuivan/hafiz/internal/identity"
	"github.com/taibuivan/hafiz/internal/platform/apperr"
	"github.com/taibuivan/hafiz/internal/platform/mail"
	"github.com/taibuivan/hafiz/internal/platform/sec"
	"github.com/taibuivan/hafiz/pkg/pointer"
	"github.com/taibuivan/hafiz/pkg/uuid"
)

// # In-memory Credential Store

type record struct {
	identity         identity.Identity
	verificationHash string
	resetHash        string
	resetExpiresAt   time.Time
}

// memoryRepository is a goroutine-safe [identity.Repository].
type memoryRepository struct {
	mu      sync.Mutex
	records map[string]*record
	writes  int

	// failWith, when set, is returned by every call.
	failWith error
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: make(map[string]*record)}
}

func (repository *memoryRepository) snapshot(rec *record) *identity.Identity {
	copied := rec.identity
	return &copied
}

func (repository *memoryRepository) FindByEmail(_ context.Context, email string) (*identity.Identity, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return nil, repository.failWith
	}
	for _, rec := range repository.records {
		if rec.identity.Email == email {
			return repository.snapshot(rec), nil
		}
	}
	return nil, apperr.NotFound("Identity")
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*identity.Identity, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return nil, repository.failWith
	}
	rec, found := repository.records[id]
	if !found {
		return nil, apperr.NotFound("Identity")
	}
	return repository.snapshot(rec), nil
}

func (repository *memoryRepository) FindByToken(_ context.Context, kind identity.TokenKind, tokenHash string, now time.Time) (*identity.Identity, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return nil, repository.failWith
	}
	for _, rec := range repository.records {
		switch kind {
		case identity.TokenVerification:
			if rec.verificationHash != "" && rec.verificationHash == tokenHash {
				return repository.snapshot(rec), nil
			}
		case identity.TokenReset:
			if rec.resetHash != "" && rec.resetHash == tokenHash && now.Before(rec.resetExpiresAt) {
				return repository.snapshot(rec), nil
			}
		}
	}
	return nil, apperr.NotFound("Identity")
}

func (repository *memoryRepository) Insert(_ context.Context, entity *identity.Identity, verificationTokenHash string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return repository.failWith
	}
	for _, rec := range repository.records {
		if rec.identity.Email == entity.Email {
			return apperr.Conflict("Identity already exists")
		}
	}
	now := time.Now()
	entity.CreatedAt, entity.UpdatedAt = now, now
	repository.records[entity.ID] = &record{identity: *entity, verificationHash: verificationTokenHash}
	repository.writes++
	return nil
}

func (repository *memoryRepository) UpdateFields(_ context.Context, id string, fields identity.Fields) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return repository.failWith
	}
	rec, found := repository.records[id]
	if !found {
		return apperr.NotFound("Identity")
	}
	if fields.PasswordHash != nil {
		rec.identity.PasswordHash = *fields.PasswordHash
	}
	if fields.IsActive != nil {
		rec.identity.IsActive = *fields.IsActive
	}
	if fields.IsVerified != nil {
		rec.identity.IsVerified = *fields.IsVerified
	}
	if fields.ResetTokenHash != nil {
		rec.resetHash = *fields.ResetTokenHash
	}
	if fields.ResetExpiresAt != nil {
		rec.resetExpiresAt = *fields.ResetExpiresAt
	}
	if fields.ClearResetToken {
		rec.resetHash, rec.resetExpiresAt = "", time.Time{}
	}
	repository.writes++
	return nil
}

func (repository *memoryRepository) ConsumeVerificationToken(_ context.Context, tokenHash string) (*identity.Identity, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return nil, repository.failWith
	}
	for _, rec := range repository.records {
		if rec.verificationHash != "" && rec.verificationHash == tokenHash {
			rec.verificationHash = ""
			rec.identity.IsVerified = true
			rec.identity.IsActive = true
			repository.writes++
			return repository.snapshot(rec), nil
		}
	}
	return nil, apperr.NotFound("Identity")
}

func (repository *memoryRepository) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string, now time.Time) (*identity.Identity, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return nil, repository.failWith
	}
	for _, rec := range repository.records {
		if rec.resetHash != "" && rec.resetHash == tokenHash && now.Before(rec.resetExpiresAt) {
			rec.identity.PasswordHash = passwordHash
			rec.resetHash, rec.resetExpiresAt = "", time.Time{}
			repository.writes++
			return repository.snapshot(rec), nil
		}
	}
	return nil, apperr.NotFound("Identity")
}

func (repository *memoryRepository) Deactivate(_ context.Context, id string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return repository.failWith
	}
	rec, found := repository.records[id]
	if !found {
		return apperr.NotFound("Identity")
	}
	rec.identity.IsActive = false
	repository.writes++
	return nil
}

func (repository *memoryRepository) List(_ context.Context, filter access.Filter, limit, offset int) ([]*identity.Identity, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failWith != nil {
		return nil, 0, repository.failWith
	}

	var visible []*identity.Identity
	for _, rec := range repository.records {
		if filter.AllowsRegion(pointer.Val(rec.identity.Region)) && filter.AllowsOwner(&rec.identity.ID) {
			visible = append(visible, repository.snapshot(rec))
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].Email < visible[j].Email })

	total := len(visible)
	if offset >= total {
		return []*identity.Identity{}, total, nil
	}
	end := min(offset+limit, total)
	return visible[offset:end], total, nil
}

// seed stores an account directly and returns it.
func (repository *memoryRepository) seed(t *testing.T, hasher sec.PasswordHasher, email, password string, role sec.Role, region string, active bool) *identity.Identity {
	t.Helper()
	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	entity := &identity.Identity{
		ID:           uuid.New(),
		Email:        identity.NormalizeEmail(email),
		PasswordHash: hash,
		DisplayName:  "Seeded",
		Role:         role,
		Region:       pointer.NilIfZero(region),
		IsActive:     active,
	}
	require.NoError(t, repository.Insert(context.Background(), entity, ""))
	return entity
}

func (repository *memoryRepository) writeCount() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return repository.writes
}

func (repository *memoryRepository) resetHashOf(id string) string {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return repository.records[id].resetHash
}

// # Recording Dispatcher

var tokenPattern = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []mail.Message
	failWith error
}

func (dispatcher *recordingDispatcher) Send(_ context.Context, message mail.Message) error {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	dispatcher.messages = append(dispatcher.messages, message)
	return dispatcher.failWith
}

func (dispatcher *recordingDispatcher) sent() []mail.Message {
	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	return append([]mail.Message(nil), dispatcher.messages...)
}

// tokenFor returns the bearer token from the last message sent to address.
func (dispatcher *recordingDispatcher) tokenFor(t *testing.T, address string) string {
	t.Helper()
	messages := dispatcher.sent()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].To != address {
			continue
		}
		match := tokenPattern.FindStringSubmatch(messages[i].Body)
		require.Len(t, match, 2, "no token in message body")
		return match[1]
	}
	t.Fatalf("no message sent to %s", address)
	return ""
}

// # Session Revoker

type recordingRevoker struct {
	mu      sync.Mutex
	revoked []string
}

func (revoker *recordingRevoker) Revoke(_ context.Context, claims *sec.SessionClaims) error {
	revoker.mu.Lock()
	defer revoker.mu.Unlock()
	revoker.revoked = append(revoker.revoked, claims.ID)
	return nil
}

// # Fixture

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	service    *identity.Service
	repository *memoryRepository
	dispatcher *recordingDispatcher
	revoker    *recordingRevoker
	hasher     sec.PasswordHasher
	clock      *clock
	logs       *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logs := &bytes.Buffer{}
	fx := &fixture{
		repository: newMemoryRepository(),
		dispatcher: &recordingDispatcher{},
		revoker:    &recordingRevoker{},
		hasher:     sec.NewBcryptHasher(bcrypt.MinCost),
		clock:      &clock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)},
		logs:       logs,
	}
	fx.service = identity.NewService(
		fx.repository,
		fx.hasher,
		sec.NewRandomTokenGenerator(32),
		fx.dispatcher,
		fx.revoker,
		identity.Options{AppBaseURL: "https://hafiz.test/", ResetTokenTTL: time.Hour, Now: fx.clock.Now},
		slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	)
	return fx
}
