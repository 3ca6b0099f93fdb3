package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"checkin-backend/models"
	"checkin-backend/store"
)

func event2() models.Event { return models.Event{ID: 2, Name: "Workshop"} }

type fixture struct {
	clock     *fakeClock
	store     *store.Memory
	issuer    *Issuer
	validator *Validator
}

func newFixture(enforceExpiry bool) *fixture {
	clock := newFakeClock(t0)
	s := store.NewMemory(event1, event2())
	return &fixture{
		clock:     clock,
		store:     s,
		issuer:    NewIssuer(s, s, IssuerConfig{TTL: DefaultTTL, Now: clock.Now}),
		validator: NewValidator(s, s, ValidatorConfig{EnforceExpiry: enforceExpiry, Now: clock.Now}),
	}
}

func TestValidator_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	cred, err := f.issuer.GetOrIssueCredential(ctx, 1)
	require.NoError(t, err)

	f.clock.Set(t0.Add(time.Hour))
	res, err := f.validator.Redeem(ctx, cred.Value, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Committed", res.Code())
	assert.Equal(t, int64(1), res.EventID)
	require.NotNil(t, res.CheckedInAt)
	assert.Equal(t, t0.Add(time.Hour), *res.CheckedInAt)

	f.clock.Set(t0.Add(2 * time.Hour))
	res, err = f.validator.Redeem(ctx, cred.Value, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rejected:AlreadyCheckedIn", res.Code())

	f.clock.Set(t0.Add(3 * time.Hour))
	res, err = f.validator.Redeem(ctx, cred.Value, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Committed", res.Code())
}

func TestValidator_RotatedCredentialStillRedeemable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	original, err := f.issuer.GetOrIssueCredential(ctx, 1)
	require.NoError(t, err)

	f.clock.Set(t0.Add(time.Hour))
	rotated, err := f.issuer.ForceRotate(ctx, 1)
	require.NoError(t, err)
	require.NotEqual(t, original.Value, rotated.Value)

	f.clock.Set(t0.Add(2 * time.Hour))
	res, err := f.validator.Redeem(ctx, original.Value, "u3")
	require.NoError(t, err)
	assert.Equal(t, "Committed", res.Code())
	assert.Equal(t, int64(1), res.EventID)
}

func TestValidator_DuplicateAcrossCredentials(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	original, err := f.issuer.GetOrIssueCredential(ctx, 1)
	require.NoError(t, err)
	rotated, err := f.issuer.ForceRotate(ctx, 1)
	require.NoError(t, err)

	res, err := f.validator.Redeem(ctx, original.Value, "u1")
	require.NoError(t, err)
	assert.True(t, res.Committed())

	res, err = f.validator.Redeem(ctx, rotated.Value, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rejected:AlreadyCheckedIn", res.Code())
}

func TestValidator_UnknownToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	for _, scan := range []string{"never-issued", "https://example.com/checkin?token=never-issued", "", "https://example.com/checkin"} {
		res, err := f.validator.Redeem(ctx, scan, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Rejected:InvalidToken", res.Code(), scan)
	}
}

func TestValidator_URLAndBareTokenAreEquivalent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	cred, err := f.issuer.GetOrIssueCredential(ctx, 1)
	require.NoError(t, err)

	res, err := f.validator.Redeem(ctx, CheckinURL("https://example.com", cred.Value), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Committed", res.Code())

	res, err = f.validator.Redeem(ctx, cred.Value, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rejected:AlreadyCheckedIn", res.Code())
}

func TestValidator_ExpiryPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("enforced", func(t *testing.T) {
		f := newFixture(true)
		cred, err := f.issuer.GetOrIssueCredential(ctx, 1)
		require.NoError(t, err)

		f.clock.Set(cred.ExpiresAt)
		res, err := f.validator.Redeem(ctx, cred.Value, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Rejected:InvalidToken", res.Code())
	})

	t.Run("existence only", func(t *testing.T) {
		f := newFixture(false)
		cred, err := f.issuer.GetOrIssueCredential(ctx, 1)
		require.NoError(t, err)

		f.clock.Set(cred.ExpiresAt.Add(48 * time.Hour))
		res, err := f.validator.Redeem(ctx, cred.Value, "u1")
		require.NoError(t, err)
		assert.Equal(t, "Committed", res.Code())
	})
}

func TestValidator_ConcurrentRedemptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true)

	cred, err := f.issuer.GetOrIssueCredential(ctx, 1)
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	results := make([]*models.CheckinResult, n)
	errs := make([]error, n)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = f.validator.Redeem(ctx, cred.Value, "u1")
		}(i)
	}
	close(start)
	wg.Wait()

	committed, duplicates := 0, 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		switch results[i].Code() {
		case "Committed":
			committed++
		case "Rejected:AlreadyCheckedIn":
			duplicates++
		default:
			t.Fatalf("unexpected result %s", results[i].Code())
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, n-1, duplicates)

	records, err := f.store.EventCheckins(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestValidator_InsertConflictIsAlreadyCheckedIn(t *testing.T) {
	ctx := context.Background()
	s := &flakyStore{Memory: store.NewMemory(event1), skipExists: true}
	issuer := NewIssuer(s, s, IssuerConfig{Now: newFakeClock(t0).Now})
	validator := NewValidator(s, s, ValidatorConfig{EnforceExpiry: true, Now: newFakeClock(t0).Now})

	cred, err := issuer.GetOrIssueCredential(ctx, 1)
	require.NoError(t, err)

	res, err := validator.Redeem(ctx, cred.Value, "u1")
	require.NoError(t, err)
	require.True(t, res.Committed())

	// the existence check misses the first record; the insert conflict decides
	res, err = validator.Redeem(ctx, cred.Value, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Rejected:AlreadyCheckedIn", res.Code())
}

func TestValidator_StorageErrors(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock(t0)

	seed := func() (*flakyStore, string) {
		s := &flakyStore{Memory: store.NewMemory(event1)}
		cred, err := NewIssuer(s, s, IssuerConfig{Now: clock.Now}).GetOrIssueCredential(ctx, 1)
		require.NoError(t, err)
		return s, cred.Value
	}

	tests := []struct {
		name string
		fail func(*flakyStore)
	}{
		{"resolve fails", func(s *flakyStore) { s.failLookup = true }},
		{"exists check fails", func(s *flakyStore) { s.failExists = true }},
		{"insert fails", func(s *flakyStore) { s.failCheckin = errDB }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, token := seed()
			tt.fail(s)
			validator := NewValidator(s, s, ValidatorConfig{EnforceExpiry: true, Now: clock.Now})

			res, err := validator.Redeem(ctx, token, "u1")
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrStorage)
			assert.ErrorIs(t, err, errDB)
		})
	}
}

func TestValidator_RequiresIdentity(t *testing.T) {
	f := newFixture(true)
	_, err := f.validator.Redeem(context.Background(), "abc", "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
