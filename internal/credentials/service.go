// Package credentials owns the single local user record: signup, login
// against it, and profile editing.
package credentials

import (
	"context"

	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/validate"
)

const msgAllFieldsRequired = "All fields are required!"

// SessionStarter is the part of the session store a successful login needs.
type SessionStarter interface {
	Login(ctx context.Context, access, refresh string) error
}

// ServiceParams groups dependencies for the credential service.
type ServiceParams struct {
	Store    kv.Store
	Verifier Verifier
	Session  SessionStarter
	Logger   *logger.Logger
}

// Service exposes the local credential operations.
type Service interface {
	Signup(ctx context.Context, user LocalUser) error
	Login(ctx context.Context, email, password string) error
	LoadProfile(ctx context.Context) (Profile, error)
	SaveProfile(ctx context.Context, profile Profile) error
	SetProfileImage(ctx context.Context, uri string) error
}

type service struct {
	store    kv.Store
	verifier Verifier
	session  SessionStarter
	logg     *logger.Logger
}

// NewService builds a credential service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "verifier is required")
	}
	if params.Session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		store:    params.Store,
		verifier: params.Verifier,
		session:  params.Session,
		logg:     logg,
	}, nil
}

// Signup overwrites the stored user. Every field must be non-empty.
func (s *service) Signup(ctx context.Context, user LocalUser) error {
	if err := validate.Struct(user, msgAllFieldsRequired); err != nil {
		return err
	}
	user.Email = NormalizeEmail(user.Email)
	if err := saveUser(ctx, s.store, user); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithComponent(ctx, "credentials"), "local user registered")
	return nil
}

// Login verifies the attempt and, on a match, starts a session. The session is
// untouched on failure.
func (s *service) Login(ctx context.Context, email, password string) error {
	tokens, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return err
	}
	return s.session.Login(ctx, tokens.Access, tokens.Refresh)
}

// LoadProfile returns the stored user and avatar. A missing user gives an
// empty profile.
func (s *service) LoadProfile(ctx context.Context) (Profile, error) {
	var profile Profile

	image, _, err := kv.GetOptional(ctx, s.store, kv.KeyProfileImage)
	if err != nil {
		return Profile{}, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "read profile image")
	}
	profile.ImageURI = image

	user, found, err := loadUser(ctx, s.store)
	if err != nil {
		return Profile{}, err
	}
	if !found {
		return profile, nil
	}
	profile.Name = user.DisplayName()
	profile.Email = user.Email
	profile.Mobile = user.Mobile
	profile.Password = user.Password
	return profile, nil
}

// SaveProfile rewrites the stored user from the edited profile. The name is
// split at its first space. Email is normalized the same way login compares it.
func (s *service) SaveProfile(ctx context.Context, profile Profile) error {
	first, last := SplitName(profile.Name)
	return saveUser(ctx, s.store, LocalUser{
		FirstName: first,
		LastName:  last,
		Mobile:    profile.Mobile,
		Email:     NormalizeEmail(profile.Email),
		Password:  profile.Password,
	})
}

// SetProfileImage stores the local URI of the avatar.
func (s *service) SetProfileImage(ctx context.Context, uri string) error {
	if err := s.store.Set(ctx, kv.KeyProfileImage, uri); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "persist profile image")
	}
	return nil
}
