package echoapi

import (
	"net/http"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    core.Conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(user.Claims),
	}
	contextActorKey = "actor"
)

func getContextClaims(ctx echo.Context) (user.Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*user.Claims); ok {
			return *claims, nil
		}
	}
	return user.Claims{}, errUnauthorized
}

func getContextActor(ctx echo.Context) (access.Actor, error) {
	if actor, ok := ctx.Get(contextActorKey).(access.Actor); ok {
		return actor, nil
	}
	return access.Actor{}, errUnauthorized
}

// actorMiddleware resolves the calling identity into an Actor. The identity
// and its linked profile are looked up fresh on every request so deactivation
// and relationship changes take effect immediately.
func actorMiddleware(svc *user.Service, resolver *access.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			// refresh tokens only buy new tokens, never resources
			if claims.Use != user.TokenUseAccess {
				return errUnauthorized
			}

			usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding user by ID")
			}
			if !usr.IsActive {
				return errUnauthorized
			}

			actor, err := resolver.LoadActor(ctx.Request().Context(), usr)
			if err != nil {
				return errors.Wrap(err, "loading actor")
			}
			ctx.Set(contextActorKey, actor)
			return next(ctx)
		}
	}
}

type authApi struct {
	svc      *user.Service
	validate *validator.Validate
}

// registerAuthAPI mounts the un-authed auth endpoints. The refresh endpoint
// authenticates itself with the refresh token in the body.
func registerAuthAPI(g *echo.Group, svc *user.Service, validate *validator.Validate) {
	api := authApi{svc: svc, validate: validate}

	ag := g.Group("/auth")
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken)
}

func (api *authApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	_, tokens, err := api.svc.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == user.ErrInvalidCredentials {
			return core.NewValidationError(errors.New("invalid credentials"))
		}
		return errors.Wrap(err, "logging in")
	}
	return ctx.JSON(http.StatusOK, tokens)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	tokens, err := api.svc.RefreshTokens(ctx.Request().Context(), data.Refresh)
	if err != nil {
		if errors.Cause(err) == user.ErrTokenInvalid {
			return errUnauthorized
		}
		return errors.Wrap(err, "refreshing tokens")
	}
	return ctx.JSON(http.StatusOK, tokens)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	RefreshRequest struct {
		Refresh string `json:"refresh" validate:"required"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}

func (rr *RefreshRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(rr)
}
