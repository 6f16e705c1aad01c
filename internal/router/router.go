package router

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"workshopbuddy/internal/auth"
	"workshopbuddy/internal/config"
	apperrors "workshopbuddy/internal/errors"
	"workshopbuddy/internal/handler"
	"workshopbuddy/internal/metrics"
)

// Authenticator resolves a bearer token to its claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// Handlers groups the HTTP handlers mounted under /api.
type Handlers struct {
	Auth        *handler.AuthHandler
	Materials   *handler.StockHandler
	Consumables *handler.StockHandler
	Items       *handler.ItemHandler
}

// Register wires routes and middleware. m may be nil when metrics are disabled.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log zerolog.Logger,
	m *metrics.Metrics,
	authenticator Authenticator,
	h Handlers,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(middleware.Recover())
	if m != nil {
		e.Use(m.Middleware())
	}

	e.Validator = NewCustomValidator()

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if cfg.Swagger.Enabled {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}
	if m != nil && cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(m.Handler()))
	}

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		ContextKey:  auth.ContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return authenticator.Authenticate(c.Request().Context(), token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			zerolog.Ctx(c.Request().Context()).Debug().Err(err).Msg("authentication failed")
			httpErr := apperrors.MapErrorToHTTP(apperrors.ErrUnauthorized)
			return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
		},
	}))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/me", h.Auth.Me)

	mountStock(secured.Group("/materials"), h.Materials)
	mountStock(secured.Group("/consumables"), h.Consumables)

	items := secured.Group("/items")
	items.GET("", h.Items.List)
	items.POST("", h.Items.Create)
	items.GET("/:id", h.Items.Get)
	items.PUT("/:id", h.Items.Update)
	items.DELETE("/:id", h.Items.Delete)
	items.POST("/:id/materials", h.Items.LinkMaterial)
	items.DELETE("/:id/materials/:materialId", h.Items.UnlinkMaterial)
}

func mountStock(g *echo.Group, sh *handler.StockHandler) {
	g.GET("", sh.List)
	g.POST("", sh.Create)
	g.GET("/:id", sh.Get)
	g.PUT("/:id", sh.Update)
	g.DELETE("/:id", sh.Delete)
}

// requestLogger attaches a request-scoped zerolog logger to the request
// context and writes one access log line per request.
func requestLogger(base zerolog.Logger) echo.MiddlewareFunc {
	access := middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := zerolog.Ctx(c.Request().Context()).Info()
			if v.Status >= http.StatusInternalServerError {
				event = zerolog.Ctx(c.Request().Context()).Warn()
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		logged := access(next)
		return func(c echo.Context) error {
			l := base.With().Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Logger()
			c.SetRequest(c.Request().WithContext(l.WithContext(c.Request().Context())))
			return logged(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator reports fields by their JSON names.
func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface. The first failing field is
// returned as a ValidationError.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return apperrors.NewValidationError(fe.Field(), "is required")
		}
		return apperrors.NewValidationError(fe.Field(), "failed "+fe.Tag()+" validation")
	}
	return err
}
