package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ifuryst/scribe/internal/config"
	"github.com/ifuryst/scribe/internal/metrics"
	"github.com/ifuryst/scribe/internal/models"
	"github.com/ifuryst/scribe/internal/server"
	"github.com/ifuryst/scribe/internal/service"
	"github.com/ifuryst/scribe/pkg/logger"
)

var (
	configPath string
	version    = "0.1.0"
	gitCommit  = "unknown"
	buildTime  = "unknown"

	generateCount int
	adminName     string
	adminRole     string
)

var rootCmd = &cobra.Command{
	Use:   "scribe",
	Short: "Scribe - automated article generation service",
	Long:  `Scribe drafts travel articles with a language model, finds cover images and publishes them with a few reader comments.`,
	RunE:  runServer,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run one scheduled generation batch and print the result",
	RunE:  runGenerate,
}

var adminCmd = &cobra.Command{
	Use:   "admin <email>",
	Short: "Create or update a dashboard account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdmin,
}

var totpCmd = &cobra.Command{
	Use:   "totp-secret",
	Short: "Generate a TOTP secret for auth.totp_secret",
	RunE: func(cmd *cobra.Command, args []string) error {
		auth := service.NewAuthService(zap.NewNop(), nil, config.AuthConfig{}, "")
		secret, url, err := auth.GenerateSecret("Scribe", "admin")
		if err != nil {
			return err
		}
		fmt.Printf("Secret: %s\n", secret)
		fmt.Printf("URL:    %s\n", url)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Scribe %s\n", version)
		fmt.Printf("Git commit: %s\n", gitCommit)
		fmt.Printf("Build time: %s\n", buildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/server.yaml", "config file path")

	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "number of articles (defaults to scheduler.batch_size)")
	adminCmd.Flags().StringVar(&adminName, "name", "", "display name")
	adminCmd.Flags().StringVar(&adminRole, "role", models.RoleAdmin, "account role (admin or member)")

	rootCmd.AddCommand(generateCmd, adminCmd, totpCmd, versionCmd)
}

func setup() (*config.Config, *zap.Logger, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, appLogger, nil
}

func runServer(*cobra.Command, []string) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Scribe server", zap.String("version", version))
	metrics.Init(version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svcs, err := server.NewServices(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}
	defer func() {
		if err := svcs.Close(context.Background()); err != nil {
			appLogger.Warn("Failed to close services cleanly", zap.Error(err))
		}
	}()

	srv := server.NewServer(cfg, svcs, appLogger)

	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("Server failed to start", zap.Error(err))
			cancel()
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		appLogger.Info("Shutting down server...")
	case <-ctx.Done():
		appLogger.Info("Server context cancelled")
	}

	if err := srv.Shutdown(context.Background()); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	appLogger.Info("Server exited")
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	if generateCount > 0 {
		cfg.Scheduler.BatchSize = generateCount
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svcs, err := server.NewServices(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}
	defer svcs.Close(context.Background())

	result, err := svcs.Scheduler.RunOnce(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func runAdmin(cmd *cobra.Command, args []string) error {
	if adminRole != models.RoleAdmin && adminRole != models.RoleMember {
		return fmt.Errorf("unknown role %q", adminRole)
	}

	cfg, appLogger, err := setup()
	if err != nil {
		return err
	}
	defer appLogger.Sync()

	svcs, err := server.NewServices(cmd.Context(), cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to create services: %w", err)
	}
	defer svcs.Close(context.Background())

	user := &models.User{Email: args[0], Name: adminName, Role: adminRole}
	if err := svcs.Store.UpsertUser(cmd.Context(), user); err != nil {
		return err
	}
	fmt.Printf("Saved %s (%s)\n", user.Email, user.Role)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
