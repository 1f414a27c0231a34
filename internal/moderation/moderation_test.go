package moderation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wardenbot/warden/internal/database/types"
	"github.com/wardenbot/warden/internal/database/types/enum"
	"github.com/wardenbot/warden/internal/moderation"
	"go.uber.org/zap"
)

type caseKey struct {
	guildID uint64
	caseID  int64
}

// memStore is an in-memory CaseStore with the same semantics as the real
// model: per-guild monotonic case numbers and value-copy reads.
type memStore struct {
	mu    sync.Mutex
	cases map[caseKey]*types.Case
}

func newMemStore() *memStore {
	return &memStore{cases: make(map[caseKey]*types.Case)}
}

func (s *memStore) Get(_ context.Context, guildID uint64, caseID int64) (*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.cases[caseKey{guildID, caseID}]
	if !ok {
		return nil, nil
	}

	return record.Clone(), nil
}

func (s *memStore) Insert(_ context.Context, record *types.Case) (*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next int64 = 1

	for key := range s.cases {
		if key.guildID == record.GuildID && key.caseID >= next {
			next = key.caseID + 1
		}
	}

	record.CaseID = next
	s.cases[caseKey{record.GuildID, record.CaseID}] = record.Clone()

	return record.Clone(), nil
}

func (s *memStore) Update(_ context.Context, record *types.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := caseKey{record.GuildID, record.CaseID}
	if _, ok := s.cases[key]; !ok {
		return fmt.Errorf("update of missing case %d", record.CaseID)
	}

	s.cases[key] = record.Clone()

	return nil
}

func (s *memStore) Delete(_ context.Context, guildID uint64, caseID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := caseKey{guildID, caseID}
	if _, ok := s.cases[key]; !ok {
		return false, nil
	}

	delete(s.cases, key)

	return true, nil
}

func (s *memStore) GetExpirableActive(
	_ context.Context, guildID uint64, caseType enum.CaseType,
) ([]*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*types.Case

	for key, record := range s.cases {
		if key.guildID == guildID && record.Type == caseType &&
			record.ExpiresAt != nil && record.RelatedCaseID == nil {
			records = append(records, record.Clone())
		}
	}

	return records, nil
}

func (s *memStore) GetByUserSince(
	_ context.Context, guildID, userID uint64, caseType enum.CaseType, after time.Time,
) ([]*types.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []*types.Case

	for key, record := range s.cases {
		if key.guildID == guildID && record.UserID == userID &&
			record.Type == caseType && record.CreatedAt.After(after) {
			records = append(records, record.Clone())
		}
	}

	return records, nil
}

// memBackend is an in-memory JobBackend.
type memBackend struct {
	mu      sync.Mutex
	nextID  int
	pending map[string]time.Time
}

func newMemBackend() *memBackend {
	return &memBackend{pending: make(map[string]time.Time)}
}

func (b *memBackend) ScheduleAt(_ context.Context, fireAt time.Time, _ uint64, _ int64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	jobID := fmt.Sprintf("job-%d", b.nextID)
	b.pending[jobID] = fireAt

	return jobID, nil
}

func (b *memBackend) Cancel(_ context.Context, jobID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	_, ok := b.pending[jobID]
	delete(b.pending, jobID)

	return ok, nil
}

func (b *memBackend) RescheduleOrReplace(
	_ context.Context, jobID string, fireAt time.Time, _ uint64, _ int64,
) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending[jobID] = fireAt

	return jobID, nil
}

func (b *memBackend) fireTime(jobID string) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.pending[jobID]

	return t, ok
}

func (b *memBackend) pendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.pending)
}

type memberKey struct {
	guildID uint64
	userID  uint64
}

// memActions is an in-memory ActionExecutor tracking platform state.
type memActions struct {
	mu             sync.Mutex
	banned         map[memberKey]bool
	timeouts       map[memberKey]time.Duration
	removeBanCalls int
	kickCalls      int
	timeoutErr     error
}

func newMemActions() *memActions {
	return &memActions{
		banned:   make(map[memberKey]bool),
		timeouts: make(map[memberKey]time.Duration),
	}
}

func (a *memActions) ApplyBan(_ context.Context, guildID, userID uint64, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.banned[memberKey{guildID, userID}] = true

	return nil
}

func (a *memActions) RemoveBan(_ context.Context, guildID, userID uint64, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.removeBanCalls++
	a.banned[memberKey{guildID, userID}] = false

	return nil
}

func (a *memActions) SetTimeout(_ context.Context, guildID, userID uint64, duration time.Duration, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.timeoutErr != nil {
		return a.timeoutErr
	}

	a.timeouts[memberKey{guildID, userID}] = duration

	return nil
}

func (a *memActions) RemoveTimeout(_ context.Context, guildID, userID uint64, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.timeouts, memberKey{guildID, userID})

	return nil
}

func (a *memActions) Kick(_ context.Context, _, _ uint64, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.kickCalls++

	return nil
}

func (a *memActions) IsBanned(_ context.Context, guildID, userID uint64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.banned[memberKey{guildID, userID}], nil
}

// memNotifier counts expiration notices.
type memNotifier struct {
	mu    sync.Mutex
	count int
	err   error
}

func (n *memNotifier) NotifyExpired(_ context.Context, _ *types.Case) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.count++

	return n.err
}

func (n *memNotifier) notified() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.count
}

type fixture struct {
	store    *memStore
	backend  *memBackend
	actions  *memActions
	notifier *memNotifier
	service  *moderation.Service
}

func setupTest(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    newMemStore(),
		backend:  newMemBackend(),
		actions:  newMemActions(),
		notifier: &memNotifier{},
	}
	f.service = moderation.NewService(f.store, f.backend, f.actions, f.notifier, zap.NewNop())

	return f
}

func durationPtr(d time.Duration) *time.Duration { return &d }

func createBan(t *testing.T, f *fixture, duration *time.Duration) *types.Case {
	t.Helper()

	record, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID:     100,
		UserID:      200,
		ModeratorID: 300,
		Type:        enum.CaseTypeBan,
		Reason:      "spamming invites",
		Duration:    duration,
	})
	require.NoError(t, err)

	return record
}

func TestCreateTemporaryBan(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(7*24*time.Hour))

	require.NotNil(t, record.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), *record.ExpiresAt, time.Minute)
	assert.NotEmpty(t, record.JobID)
	assert.True(t, record.IsActive(time.Now()))

	fireAt, pending := f.backend.fireTime(record.JobID)
	require.True(t, pending)
	assert.Equal(t, record.ExpiresAt.Unix(), fireAt.Unix())

	banned, err := f.actions.IsBanned(t.Context(), 100, 200)
	require.NoError(t, err)
	assert.True(t, banned)

	// The job handle must be persisted, not just returned.
	stored, err := f.store.Get(t.Context(), record.GuildID, record.CaseID)
	require.NoError(t, err)
	assert.Equal(t, record.JobID, stored.JobID)
}

func TestCreatePermanentBanSchedulesNothing(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, nil)

	assert.Nil(t, record.ExpiresAt)
	assert.Empty(t, record.JobID)
	assert.Zero(t, f.backend.pendingCount())
}

func TestCreateDurationOnNonExpirableType(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	_, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID:  100,
		UserID:   200,
		Type:     enum.CaseTypeWarn,
		Duration: durationPtr(time.Hour),
	})
	require.ErrorIs(t, err, moderation.ErrInvalidState)
}

func TestCreateNormalizesReason(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	record, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID: 100,
		UserID:  200,
		Type:    enum.CaseTypeWarn,
		Reason:  "   \t  ",
	})
	require.NoError(t, err)
	assert.Empty(t, record.Reason)
}

func TestApplyClearExpirationCancelsJob(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))
	jobID := record.JobID

	updated := record.Clone()
	updated.ExpiresAt = nil

	result, err := f.service.Apply(t.Context(), updated)
	require.NoError(t, err)
	assert.Empty(t, result.JobID)
	assert.Nil(t, result.ExpiresAt)

	_, pending := f.backend.fireTime(jobID)
	assert.False(t, pending)
}

func TestApplySetExpirationSchedulesJob(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, nil)

	expiresAt := time.Now().Add(time.Hour)
	updated := record.Clone()
	updated.ExpiresAt = &expiresAt

	result, err := f.service.Apply(t.Context(), updated)
	require.NoError(t, err)
	assert.NotEmpty(t, result.JobID)

	_, pending := f.backend.fireTime(result.JobID)
	assert.True(t, pending)
}

func TestApplyMoveExpirationReschedules(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	expiresAt := time.Now().Add(2 * time.Hour)
	updated := record.Clone()
	updated.ExpiresAt = &expiresAt

	result, err := f.service.Apply(t.Context(), updated)
	require.NoError(t, err)
	assert.Equal(t, record.JobID, result.JobID)

	fireAt, pending := f.backend.fireTime(result.JobID)
	require.True(t, pending)
	assert.Equal(t, expiresAt.Unix(), fireAt.Unix())
	assert.Equal(t, 1, f.backend.pendingCount())
}

func TestApplyRejectsPastExpiration(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	past := time.Now().Add(-time.Minute)
	updated := record.Clone()
	updated.ExpiresAt = &past

	_, err := f.service.Apply(t.Context(), updated)
	require.ErrorIs(t, err, moderation.ErrInvalidExpiration)
}

func TestApplyRejectsExpirationNotStrictlyFuture(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	// By the time the mutator checks, "now" has already passed.
	now := time.Now()
	updated := record.Clone()
	updated.ExpiresAt = &now

	_, err := f.service.Apply(t.Context(), updated)
	require.ErrorIs(t, err, moderation.ErrInvalidExpiration)
}

func TestApplyRejectsExpirationOnNonExpirableType(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	record, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID:     100,
		UserID:      200,
		ModeratorID: 300,
		Type:        enum.CaseTypeWarn,
		Reason:      "spamming invites",
	})
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	updated := record.Clone()
	updated.ExpiresAt = &future

	_, err = f.service.Apply(t.Context(), updated)
	require.ErrorIs(t, err, moderation.ErrInvalidState)
}

func TestApplyRejectsTypeChange(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, nil)

	updated := record.Clone()
	updated.Type = enum.CaseTypeMute

	_, err := f.service.Apply(t.Context(), updated)
	require.ErrorIs(t, err, moderation.ErrInvariantViolation)
}

func TestApplyRejectsJobIDChange(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	updated := record.Clone()
	updated.JobID = "forged-handle"

	_, err := f.service.Apply(t.Context(), updated)
	require.ErrorIs(t, err, moderation.ErrInvariantViolation)
}

func TestApplyRejectsPardonLinkEdit(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, nil)

	linked := int64(42)
	updated := record.Clone()
	updated.RelatedCaseID = &linked

	_, err := f.service.Apply(t.Context(), updated)
	require.ErrorIs(t, err, moderation.ErrInvariantViolation)
}

func TestApplyUnknownCase(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	_, err := f.service.Apply(t.Context(), &types.Case{GuildID: 100, CaseID: 999})
	require.ErrorIs(t, err, moderation.ErrCaseNotFound)
}

func TestApplyIdentityFieldsSurviveEdits(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, nil)

	updated := record.Clone()
	updated.Reason = "updated reason"
	updated.UserID = 999
	updated.ModeratorID = 888

	result, err := f.service.Apply(t.Context(), updated)
	require.NoError(t, err)
	assert.Equal(t, "updated reason", result.Reason)
	assert.Equal(t, record.UserID, result.UserID)
	assert.Equal(t, record.ModeratorID, result.ModeratorID)
	assert.Equal(t, record.CreatedAt, result.CreatedAt)
}

func TestApplyMuteUpdatesLiveTimeout(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	record, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID:  100,
		UserID:   200,
		Type:     enum.CaseTypeMute,
		Duration: durationPtr(time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, record.JobID)

	expiresAt := time.Now().Add(30 * time.Minute)
	updated := record.Clone()
	updated.ExpiresAt = &expiresAt

	_, err = f.service.Apply(t.Context(), updated)
	require.NoError(t, err)

	f.actions.mu.Lock()
	duration := f.actions.timeouts[memberKey{100, 200}]
	f.actions.mu.Unlock()
	assert.InDelta(t, (30 * time.Minute).Seconds(), duration.Seconds(), 5)
}

func TestApplyMuteTimeoutFailureDoesNotBlockWrite(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	record, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID:  100,
		UserID:   200,
		Type:     enum.CaseTypeMute,
		Duration: durationPtr(time.Hour),
	})
	require.NoError(t, err)

	f.actions.mu.Lock()
	f.actions.timeoutErr = errors.New("platform unavailable")
	f.actions.mu.Unlock()

	expiresAt := time.Now().Add(2 * time.Hour)
	updated := record.Clone()
	updated.ExpiresAt = &expiresAt

	_, err = f.service.Apply(t.Context(), updated)
	require.ErrorIs(t, err, moderation.ErrLiveTimeoutUpdate)

	// The store write still landed; the record is the durable intent.
	stored, err := f.store.Get(t.Context(), record.GuildID, record.CaseID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExpiresAt)
	assert.Equal(t, expiresAt.Unix(), stored.ExpiresAt.Unix())
}

func TestPardonMuteLinksBothDirections(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	record, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID:  100,
		UserID:   200,
		Type:     enum.CaseTypeMute,
		Duration: durationPtr(time.Hour),
	})
	require.NoError(t, err)

	reversal, err := f.service.Pardon(t.Context(), 100, record.CaseID, 300, "appealed")
	require.NoError(t, err)
	assert.Equal(t, enum.CaseTypeUnmute, reversal.Type)
	require.NotNil(t, reversal.RelatedCaseID)
	assert.Equal(t, record.CaseID, *reversal.RelatedCaseID)

	original, err := f.store.Get(t.Context(), 100, record.CaseID)
	require.NoError(t, err)
	require.NotNil(t, original.RelatedCaseID)
	assert.Equal(t, reversal.CaseID, *original.RelatedCaseID)
	assert.False(t, original.IsActive(time.Now()))

	// The timeout was actually lifted.
	f.actions.mu.Lock()
	_, stillTimedOut := f.actions.timeouts[memberKey{100, 200}]
	f.actions.mu.Unlock()
	assert.False(t, stillTimedOut)

	// A second pardon must fail: the case is no longer active.
	_, err = f.service.Pardon(t.Context(), 100, record.CaseID, 300, "again")
	require.ErrorIs(t, err, moderation.ErrInvalidState)
}

func TestPardonBanCancelsPendingJob(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	reversal, err := f.service.Pardon(t.Context(), 100, record.CaseID, 300, "appealed")
	require.NoError(t, err)
	assert.Equal(t, enum.CaseTypeUnban, reversal.Type)
	assert.Zero(t, f.backend.pendingCount())

	original, err := f.store.Get(t.Context(), 100, record.CaseID)
	require.NoError(t, err)
	assert.Empty(t, original.JobID)

	banned, err := f.actions.IsBanned(t.Context(), 100, 200)
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestPardonWarnNotPardonable(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	record, err := f.service.CreateCase(t.Context(), moderation.CreateParams{
		GuildID: 100,
		UserID:  200,
		Type:    enum.CaseTypeWarn,
	})
	require.NoError(t, err)

	_, err = f.service.Pardon(t.Context(), 100, record.CaseID, 300, "")
	require.ErrorIs(t, err, moderation.ErrNotPardonable)
}

func TestPardonMissingCase(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	_, err := f.service.Pardon(t.Context(), 100, 12345, 300, "")
	require.ErrorIs(t, err, moderation.ErrCaseNotFound)
}

// expire rewrites the stored case's expiration into the past, simulating the
// wall clock reaching the scheduled fire time.
func expire(t *testing.T, f *fixture, record *types.Case) {
	t.Helper()

	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	stored := f.store.cases[caseKey{record.GuildID, record.CaseID}]
	past := time.Now().Add(-time.Minute)
	stored.ExpiresAt = &past
}

func TestOnFireLiftsExpiredBan(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))
	expire(t, f, record)

	require.NoError(t, f.service.OnFire(t.Context(), 100, record.CaseID))

	banned, err := f.actions.IsBanned(t.Context(), 100, 200)
	require.NoError(t, err)
	assert.False(t, banned)
	assert.Equal(t, 1, f.notifier.notified())
}

func TestOnFireTwiceReversesOnce(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))
	expire(t, f, record)

	require.NoError(t, f.service.OnFire(t.Context(), 100, record.CaseID))
	require.NoError(t, f.service.OnFire(t.Context(), 100, record.CaseID))

	f.actions.mu.Lock()
	calls := f.actions.removeBanCalls
	f.actions.mu.Unlock()
	assert.Equal(t, 1, calls)
}

func TestOnFireMissingCase(t *testing.T) {
	t.Parallel()

	f := setupTest(t)

	require.NoError(t, f.service.OnFire(t.Context(), 100, 999))
}

func TestOnFireStaleWhenNewerBanExists(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))
	expire(t, f, record)

	// A newer permanent ban against the same user supersedes the old one.
	createBan(t, f, nil)

	require.NoError(t, f.service.OnFire(t.Context(), 100, record.CaseID))

	banned, err := f.actions.IsBanned(t.Context(), 100, 200)
	require.NoError(t, err)
	assert.True(t, banned)
	assert.Zero(t, f.notifier.notified())
}

func TestOnFirePardonedCase(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	// Simulate a pardon that raced the firing: the link is set but the user
	// was re-banned externally, so the ban check alone would not stop us.
	f.store.mu.Lock()
	stored := f.store.cases[caseKey{100, record.CaseID}]
	linked := int64(999)
	stored.RelatedCaseID = &linked
	past := time.Now().Add(-time.Minute)
	stored.ExpiresAt = &past
	f.store.mu.Unlock()

	require.NoError(t, f.service.OnFire(t.Context(), 100, record.CaseID))

	f.actions.mu.Lock()
	calls := f.actions.removeBanCalls
	f.actions.mu.Unlock()
	assert.Zero(t, calls)
}

func TestOnFireRescheduledAway(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	// The stored expiration is still in the future, so this firing is stale.
	require.NoError(t, f.service.OnFire(t.Context(), 100, record.CaseID))

	banned, err := f.actions.IsBanned(t.Context(), 100, 200)
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestOnFireExpirationClearedNoReversal(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	// The expiration is cleared, making the ban permanent. A firing already
	// pulled into a worker batch still arrives afterwards.
	updated := record.Clone()
	updated.ExpiresAt = nil

	_, err := f.service.Apply(t.Context(), updated)
	require.NoError(t, err)

	require.NoError(t, f.service.OnFire(t.Context(), 100, record.CaseID))

	banned, err := f.actions.IsBanned(t.Context(), 100, 200)
	require.NoError(t, err)
	assert.True(t, banned)

	f.actions.mu.Lock()
	calls := f.actions.removeBanCalls
	f.actions.mu.Unlock()
	assert.Zero(t, calls)
}

func TestDeleteCaseCancelsJob(t *testing.T) {
	t.Parallel()

	f := setupTest(t)
	record := createBan(t, f, durationPtr(time.Hour))

	require.NoError(t, f.service.DeleteCase(t.Context(), 100, record.CaseID))
	assert.Zero(t, f.backend.pendingCount())

	stored, err := f.store.Get(t.Context(), 100, record.CaseID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestSchedulerRoundTrip(t *testing.T) {
	t.Parallel()

	backend := newMemBackend()
	scheduler := moderation.NewScheduler(backend, zap.NewNop())
	ctx := t.Context()

	expiresAt := time.Now().Add(time.Hour)
	record := &types.Case{
		GuildID:   100,
		CaseID:    1,
		UserID:    200,
		Type:      enum.CaseTypeBan,
		CreatedAt: time.Now(),
		ExpiresAt: &expiresAt,
	}

	jobID, err := scheduler.Schedule(ctx, record)
	require.NoError(t, err)
	record.JobID = jobID

	moved := time.Now().Add(2 * time.Hour)
	record.ExpiresAt = &moved

	jobID, err = scheduler.Reschedule(ctx, record)
	require.NoError(t, err)
	record.JobID = jobID

	cancelled, err := scheduler.Cancel(ctx, record)
	require.NoError(t, err)
	assert.True(t, cancelled)
	record.JobID = ""

	// Cancelling again never errors and reports nothing cancelled.
	cancelled, err = scheduler.Cancel(ctx, record)
	require.NoError(t, err)
	assert.False(t, cancelled)
	assert.Zero(t, backend.pendingCount())
}

func TestSchedulerRejectsNonExpirableType(t *testing.T) {
	t.Parallel()

	scheduler := moderation.NewScheduler(newMemBackend(), zap.NewNop())

	expiresAt := time.Now().Add(time.Hour)
	record := &types.Case{
		GuildID:   100,
		CaseID:    1,
		Type:      enum.CaseTypeWarn,
		ExpiresAt: &expiresAt,
	}

	_, err := scheduler.Schedule(t.Context(), record)
	require.ErrorIs(t, err, moderation.ErrInvalidState)
}

func TestSchedulerRejectsRescheduleWithoutJob(t *testing.T) {
	t.Parallel()

	scheduler := moderation.NewScheduler(newMemBackend(), zap.NewNop())

	expiresAt := time.Now().Add(time.Hour)
	record := &types.Case{
		GuildID:   100,
		CaseID:    1,
		Type:      enum.CaseTypeBan,
		ExpiresAt: &expiresAt,
	}

	_, err := scheduler.Reschedule(t.Context(), record)
	require.ErrorIs(t, err, moderation.ErrInvalidState)
}
