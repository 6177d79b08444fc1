package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	// ErrInvalidCredentials covers unknown accounts, wrong passwords and
	// deactivated accounts alike; callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		QueryAllUsers(ctx context.Context) ([]User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) checkUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if svc.validate != nil {
		if err := svc.validate.Struct(nu); err != nil {
			return User{}, err
		}
	}
	if err := ValidatePassword(nu.Password, nu.Name, nu.Username, nu.Email); err != nil {
		return User{}, err
	}
	if err := svc.checkUniqueness(ctx, nu.Username, nu.Email); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryAllUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

// Authenticate verifies credentials. All failure modes collapse into
// ErrInvalidCredentials so the endpoint cannot be used as an account oracle.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by username or email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrInvalidCredentials
	}
	return svc.SetLastLogin(ctx, usr)
}

func (svc *Service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := ValidatePassword(pwd, usr.Name, usr.Username, usr.Email); err != nil {
		return User{}, err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, err
	}
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

// Login authenticates and issues a fresh token pair.
func (svc *Service) Login(ctx context.Context, uname, pwd string) (User, TokenPair, error) {
	usr, err := svc.Authenticate(ctx, uname, pwd)
	if err != nil {
		return User{}, TokenPair{}, err
	}
	pair, err := IssueTokens(usr)
	if err != nil {
		return User{}, TokenPair{}, errors.Wrap(err, "issuing tokens")
	}
	return usr, pair, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair. The previous
// refresh token is superseded: the user's token version is bumped so it can
// no longer be exchanged.
func (svc *Service) RefreshTokens(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := VerifyToken(refreshToken, TokenUseRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	usr, err := svc.repo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		return TokenPair{}, ErrTokenInvalid
	}
	if !usr.IsActive || usr.TokenVersion != claims.TokenVersion {
		return TokenPair{}, ErrTokenInvalid
	}

	usr.TokenVersion++
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return TokenPair{}, errors.Wrap(err, "rotating refresh token")
	}
	pair, err := IssueTokens(usr)
	return pair, errors.Wrap(err, "issuing tokens")
}
