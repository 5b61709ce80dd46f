package credentials

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
)

const (
	msgNoUser              = "no user found"
	msgIncorrectCredential = "incorrect credentials"
)

// TokenPair is what a successful verification hands to the session.
type TokenPair struct {
	Access  string
	Refresh string
}

// Verifier checks a login attempt. A remote backend can replace the local
// implementation without touching the session's refresh logic.
type Verifier interface {
	Verify(ctx context.Context, email, password string) (TokenPair, error)
}

// LocalVerifier compares against the stored user record and issues a fixed
// placeholder token pair.
type LocalVerifier struct {
	store  kv.Store
	tokens TokenPair
}

func NewLocalVerifier(store kv.Store, tokens TokenPair) (*LocalVerifier, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if tokens.Access == "" || tokens.Refresh == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "placeholder tokens are required")
	}
	return &LocalVerifier{store: store, tokens: tokens}, nil
}

func (v *LocalVerifier) Verify(ctx context.Context, email, password string) (TokenPair, error) {
	user, found, err := loadUser(ctx, v.store)
	if err != nil {
		return TokenPair{}, err
	}
	if !found {
		return TokenPair{}, pkgerrors.New(pkgerrors.CodeUnauthorized, msgNoUser)
	}
	if user.Email != NormalizeEmail(email) || user.Password != password {
		return TokenPair{}, pkgerrors.New(pkgerrors.CodeUnauthorized, msgIncorrectCredential)
	}
	return v.tokens, nil
}

func loadUser(ctx context.Context, store kv.Store) (LocalUser, bool, error) {
	raw, found, err := kv.GetOptional(ctx, store, kv.KeyLocalUser)
	if err != nil {
		return LocalUser{}, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read local user")
	}
	if !found || raw == "" {
		return LocalUser{}, false, nil
	}
	var user LocalUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return LocalUser{}, false, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "decode local user")
	}
	return user, true, nil
}

func saveUser(ctx context.Context, store kv.Store, user LocalUser) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode local user")
	}
	if err := store.Set(ctx, kv.KeyLocalUser, string(payload)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist local user")
	}
	return nil
}
