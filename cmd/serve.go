package cmd

import (
	"database/sql"
	"net"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/controller"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/middleware"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/queue"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/repository"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/service"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/app/store"
	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP (Echo) server for the authentication and todo service.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	redisClient, err := store.NewRedisClient(cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to redis")
	}
	defer redisClient.Close()

	mailPublisher, err := queue.NewMailPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.MailQueue)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to rabbitmq")
	}
	defer mailPublisher.Close()

	userRepo := repository.NewUserRepository(db)
	revokedTokenRepo := repository.NewRevokedTokenRepository(db)
	todoRepo := repository.NewTodoRepository(db)
	codes := store.NewVerificationStore(redisClient, cfg.Tokens.VerificationCodeTTL, cfg.Tokens.ResetCodeTTL)

	tokenIssuer := service.NewTokenIssuer(cfg.JWT)
	authService := service.NewAuthService(userRepo, revokedTokenRepo, codes, mailPublisher, tokenIssuer, cfg)
	googleService := service.NewGoogleAuthService(userRepo, tokenIssuer, cfg)
	todoService := service.NewTodoService(todoRepo)

	startHTTPServer(cfg, authService, googleService, todoService, tokenIssuer)
}

func startHTTPServer(
	cfg *config.Config,
	authService service.AuthService,
	googleService service.GoogleAuthService,
	todoService service.TodoService,
	tokenIssuer *service.TokenIssuer,
) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	authController := controller.NewAuthController(authService)
	googleController := controller.NewGoogleAuthController(googleService)
	todoController := controller.NewTodoController(todoService)
	authMiddleware := middleware.NewAuthMiddleware(tokenIssuer)

	auth := e.Group("/auth")
	auth.POST("/request-verification", authController.RequestVerification)
	auth.POST("/verify-code", authController.VerifyCode)
	auth.POST("/register", authController.Register)
	auth.POST("/login", authController.Login)
	auth.POST("/logout", authController.Logout)
	auth.POST("/refresh", authController.Refresh)
	auth.POST("/request-password-reset", authController.RequestPasswordReset)
	auth.POST("/confirm-password-reset", authController.ConfirmPasswordReset)
	auth.GET("/google/callback", googleController.Callback)

	authProtected := auth.Group("")
	authProtected.Use(authMiddleware.RequireAuth)
	authProtected.GET("/me", authController.Me)
	authProtected.GET("/revoked-tokens", authController.RevokedTokens)

	todos := e.Group("/todos")
	todos.Use(authMiddleware.RequireAuth)
	todos.POST("", todoController.Create)
	todos.GET("", todoController.List)
	todos.GET("/:id", todoController.Get)
	todos.PATCH("/:id", todoController.Update)
	todos.DELETE("/:id", todoController.Delete)

	httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
