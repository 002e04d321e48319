package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/accountd/accountd/internal/account"
	"github.com/accountd/accountd/internal/config"
	"github.com/accountd/accountd/internal/mailer"
)

// AppState holds all application services
type AppState struct {
	Logger         *zap.Logger
	Config         *config.Config
	DB             *bun.DB
	AccountService account.AccountManager
}

func main() {
	// Load .env (if present) before resolving configuration
	_ = godotenv.Load()

	// Load configuration
	config.Load()

	// Initialize logger with config
	logger := initLogger()

	// Initialize application state
	as, err := newAppState(logger)
	if err != nil {
		logger.Fatal("Failed to initialize application state", zap.Error(err))
	}

	// Run schema migrations
	ctx := context.Background()
	if err := account.RunMigrations(ctx, as.DB.DB); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Create HTTP server
	router := setupRouter(as)

	addr := fmt.Sprintf("%s:%d", config.Http().Host, config.Http().Port)

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Setup graceful shutdown
	done := setupSignalHandler(as, server, logger)

	// Start server
	logger.Info("Starting accountd server", zap.String("address", addr))

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	<-done
	logger.Info("Server shutdown complete")
}

// newAppState creates and initializes the application state
func newAppState(logger *zap.Logger) (*AppState, error) {
	pgConfig := config.Postgres()

	logger.Info("Database configuration",
		zap.String("host", pgConfig.Host),
		zap.Int("port", pgConfig.Port),
		zap.String("database", pgConfig.Database),
		zap.String("user", pgConfig.User))

	db := initializeDatabase(pgConfig.DSN(), pgConfig.MaxOpenConnections)

	smtpConfig := config.Smtp()
	mail := mailer.NewSMTPMailer(mailer.SMTPConfig{
		Addr:     smtpConfig.Addr(),
		Username: smtpConfig.Username,
		Password: smtpConfig.Password,
		From:     smtpConfig.From,
	})

	userStore := account.NewPostgresUserStore(db)
	accountService := account.NewService(userStore, mail, config.Register().ValidateBaseURL)

	return &AppState{
		Logger:         logger,
		Config:         config.Get(),
		DB:             db,
		AccountService: accountService,
	}, nil
}

// initializeDatabase initializes the PostgreSQL database connection
func initializeDatabase(databaseURL string, maxConnections int) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(databaseURL)))
	sqldb.SetMaxOpenConns(maxConnections)
	sqldb.SetMaxIdleConns(maxConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)

	return bun.NewDB(sqldb, pgdialect.New())
}

func initLogger() *zap.Logger {
	logConfig := config.Logger()

	var config zap.Config
	if logConfig.Format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch logConfig.Level {
	case "debug":
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		config.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	return logger
}

func setupRouter(as *AppState) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Add CORS middleware
	router.Use(cors.Default())

	// Add logging middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx := c.Request.Context()

		if err := as.DB.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"timestamp": time.Now().Format(time.RFC3339),
				"error":     err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"services": gin.H{
				"database": "healthy",
			},
		})
	})

	// User account routes. Every response is HTTP 200 with the result
	// envelope; domain failures travel in the envelope code, not the
	// transport status.
	user := router.Group("/user")
	{
		user.GET("/findById/:id", findUserByID(as))
		user.POST("/addUser", addUser(as))
		user.POST("/register/:email/:password", register(as))
		user.GET("/validate", validate(as))
		user.GET("/login/:email/:password", login(as))
		user.POST("/changePassword", changePassword(as))
		user.POST("/update", updateProfile(as))
		user.GET("/findAll", findAll(as))
		user.GET("/delete/:id", deleteUserByID(as))
	}

	return router
}

func setupSignalHandler(as *AppState, server *http.Server, logger *zap.Logger) chan struct{} {
	done := make(chan struct{}, 1)

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalCh

		logger.Info("Shutting down server...")

		// Create context with timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// Shutdown server
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during server shutdown", zap.Error(err))
		}

		// Close database
		if err := as.DB.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}

		done <- struct{}{}
	}()

	return done
}

// Account handlers

func findUserByID(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusOK, account.Result{Code: account.CodeServerError, Message: "invalid id"})
			return
		}

		user, err := as.AccountService.FindByID(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		c.JSON(http.StatusOK, account.OK(user))
	}
}

func addUser(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()

		var req account.AddUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, account.Result{Code: account.CodeServerError, Message: "invalid request body"})
			return
		}

		user, err := as.AccountService.AddUser(c.Request.Context(), &req)
		if err != nil {
			as.Logger.Error("Failed to add user",
				zap.String("request_id", requestID),
				zap.String("email", req.Email),
				zap.Error(err))
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		as.Logger.Info("User added",
			zap.String("request_id", requestID),
			zap.String("email", user.Email),
			zap.Int64("user_id", user.ID))
		c.JSON(http.StatusOK, account.OK(user))
	}
}

func register(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		email := c.Param("email")
		password := c.Param("password")

		link, err := as.AccountService.Register(c.Request.Context(), email, password)
		if err != nil {
			as.Logger.Error("Failed to register user",
				zap.String("request_id", requestID),
				zap.String("email", email),
				zap.Error(err))
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		as.Logger.Info("Validation mail dispatched",
			zap.String("request_id", requestID),
			zap.String("email", email))
		c.JSON(http.StatusOK, account.OK(link))
	}
}

func validate(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Query("email")
		password := c.Query("password")

		user, err := as.AccountService.Validate(c.Request.Context(), email, password)
		if err != nil {
			as.Logger.Error("Failed to validate registration",
				zap.String("email", email),
				zap.Error(err))
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		as.Logger.Info("Registration completed",
			zap.String("email", user.Email),
			zap.Int64("user_id", user.ID))
		c.JSON(http.StatusOK, account.OK(user))
	}
}

func login(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.Param("email")
		password := c.Param("password")

		user, err := as.AccountService.Login(c.Request.Context(), email, password)
		if err != nil {
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		c.JSON(http.StatusOK, account.OK(user))
	}
}

func changePassword(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()

		var req account.ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, account.Result{Code: account.CodeServerError, Message: "invalid request body"})
			return
		}

		user, err := as.AccountService.ChangePassword(c.Request.Context(), &req)
		if err != nil {
			as.Logger.Error("Failed to change password",
				zap.String("request_id", requestID),
				zap.String("email", req.Email),
				zap.Error(err))
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		as.Logger.Info("Password changed",
			zap.String("request_id", requestID),
			zap.String("email", user.Email))
		c.JSON(http.StatusOK, account.OK(user))
	}
}

func updateProfile(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req account.UpdateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, account.Result{Code: account.CodeServerError, Message: "invalid request body"})
			return
		}

		user, err := as.AccountService.UpdateProfile(c.Request.Context(), &req)
		if err != nil {
			as.Logger.Error("Failed to update profile",
				zap.String("email", req.Email),
				zap.Error(err))
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		c.JSON(http.StatusOK, account.OK(user))
	}
}

func findAll(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		users, err := as.AccountService.ListAll(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		c.JSON(http.StatusOK, account.OK(users))
	}
}

func deleteUserByID(as *AppState) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusOK, account.Result{Code: account.CodeServerError, Message: "invalid id"})
			return
		}

		user, err := as.AccountService.DeleteByID(c.Request.Context(), id)
		if err != nil {
			as.Logger.Error("Failed to delete user",
				zap.Int64("user_id", id),
				zap.Error(err))
			c.JSON(http.StatusOK, account.Fail(err))
			return
		}

		as.Logger.Info("User deleted",
			zap.Int64("user_id", id),
			zap.String("email", user.Email))
		c.JSON(http.StatusOK, account.OK(user))
	}
}
