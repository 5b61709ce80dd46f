package credentials

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/storefront/internal/session"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var placeholder = TokenPair{Access: "local_dummy_token", Refresh: "local_dummy_refresh_token"}

type stubRefresher struct{}

func (stubRefresher) Refresh(context.Context, string) (string, error) {
	return "", errors.New("no backend")
}

func newFixture(t *testing.T) (Service, *kv.MemoryStore, *session.Store) {
	t.Helper()
	store := kv.NewMemoryStore()
	sess, err := session.NewStore(session.StoreParams{KV: store, Refresher: stubRefresher{}})
	require.NoError(t, err)
	sess.Initialize(context.Background())

	verifier, err := NewLocalVerifier(store, placeholder)
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{Store: store, Verifier: verifier, Session: sess})
	require.NoError(t, err)
	return svc, store, sess
}

func validUser() LocalUser {
	return LocalUser{FirstName: "Ada", LastName: "Lovelace", Mobile: "555-0100", Email: "  Ada@Example.COM ", Password: "x"}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)

	_, err = NewLocalVerifier(kv.NewMemoryStore(), TokenPair{})
	assert.Error(t, err)
}

func TestSignupNormalizesEmailAndOverwrites(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newFixture(t)

	require.NoError(t, svc.Signup(ctx, validUser()))
	raw, err := store.Get(ctx, kv.KeyLocalUser)
	require.NoError(t, err)
	assert.JSONEq(t, `{"firstName":"Ada","lastName":"Lovelace","mobile":"555-0100","email":"ada@example.com","password":"x"}`, raw)

	second := validUser()
	second.FirstName = "Grace"
	require.NoError(t, svc.Signup(ctx, second))
	raw, err = store.Get(ctx, kv.KeyLocalUser)
	require.NoError(t, err)
	assert.Contains(t, raw, `"firstName":"Grace"`)
}

func TestSignupRejectsMissingFields(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newFixture(t)

	user := validUser()
	user.Mobile = ""
	err := svc.Signup(ctx, user)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, "All fields are required!", typed.Message())
	assert.Equal(t, map[string]string{"mobile": "is required"}, typed.Details())
	assert.Empty(t, store.Snapshot())
}

func TestLoginSuccessStartsSession(t *testing.T) {
	ctx := context.Background()
	svc, store, sess := newFixture(t)
	require.NoError(t, svc.Signup(ctx, validUser()))

	require.NoError(t, svc.Login(ctx, " ADA@example.com", "x"))

	state := sess.Snapshot()
	assert.True(t, state.IsAuthenticated)
	assert.Equal(t, "local_dummy_token", state.AccessToken)

	refresh, err := store.Get(ctx, kv.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "local_dummy_refresh_token", refresh)
}

func TestLoginCredentialMismatchLeavesSessionUnchanged(t *testing.T) {
	ctx := context.Background()
	svc, store, sess := newFixture(t)
	require.NoError(t, store.Set(ctx, kv.KeyLocalUser, `{"email":"a@b.com","password":"x"}`))
	before := sess.Snapshot()

	err := svc.Login(ctx, "a@b.com", "y")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, "incorrect credentials", pkgerrors.As(err).Message())
	assert.Equal(t, before, sess.Snapshot())

	_, err = store.Get(ctx, kv.KeyAccessToken)
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestLoginWithoutUser(t *testing.T) {
	svc, _, sess := newFixture(t)

	err := svc.Login(context.Background(), "a@b.com", "x")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, "no user found", pkgerrors.As(err).Message())
	assert.False(t, sess.Snapshot().IsAuthenticated)
}

func TestLoginWithCorruptRecord(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newFixture(t)
	require.NoError(t, store.Set(ctx, kv.KeyLocalUser, `{broken`))

	err := svc.Login(ctx, "a@b.com", "x")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStorage))
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFixture(t)

	empty, err := svc.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, Profile{}, empty)

	require.NoError(t, svc.Signup(ctx, validUser()))
	require.NoError(t, svc.SetProfileImage(ctx, "file:///avatar.jpg"))

	profile, err := svc.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, Profile{
		Name:     "Ada Lovelace",
		Email:    "ada@example.com",
		Mobile:   "555-0100",
		Password: "x",
		ImageURI: "file:///avatar.jpg",
	}, profile)

	profile.Name = "Mary Ann Smith"
	profile.Mobile = "555-0199"
	require.NoError(t, svc.SaveProfile(ctx, profile))

	reloaded, err := svc.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Mary Ann Smith", reloaded.Name)
	assert.Equal(t, "555-0199", reloaded.Mobile)
}

func TestSaveProfileNormalizesEmailForLogin(t *testing.T) {
	ctx := context.Background()
	svc, store, sess := newFixture(t)
	require.NoError(t, svc.Signup(ctx, validUser()))

	profile, err := svc.LoadProfile(ctx)
	require.NoError(t, err)
	profile.Email = " New@Example.com"
	require.NoError(t, svc.SaveProfile(ctx, profile))

	raw, err := store.Get(ctx, kv.KeyLocalUser)
	require.NoError(t, err)
	assert.Contains(t, raw, `"email":"new@example.com"`)

	require.NoError(t, svc.Login(ctx, "NEW@example.com ", "x"))
	assert.True(t, sess.Snapshot().IsAuthenticated)
}

func TestSplitName(t *testing.T) {
	cases := map[string][2]string{
		"Ada Lovelace":   {"Ada", "Lovelace"},
		"  Cher  ":       {"Cher", ""},
		"Mary Ann Smith": {"Mary", "Ann Smith"},
		"":               {"", ""},
		"Jean  Paul":     {"Jean", " Paul"},
	}
	for input, want := range cases {
		first, last := SplitName(input)
		assert.Equal(t, want[0], first, input)
		assert.Equal(t, want[1], last, input)
	}
}
