package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/origincircle/origin/internal/assist"
	"github.com/origincircle/origin/internal/auth"
	"github.com/origincircle/origin/internal/chat"
	"github.com/origincircle/origin/internal/config"
	"github.com/origincircle/origin/internal/database"
	"github.com/origincircle/origin/internal/feed"
	"github.com/origincircle/origin/internal/logging"
	"github.com/origincircle/origin/internal/notify"
	"github.com/origincircle/origin/internal/places"
	"github.com/origincircle/origin/internal/remote"
	"github.com/origincircle/origin/internal/server"
	syncpolicy "github.com/origincircle/origin/internal/sync"
	"github.com/origincircle/origin/internal/users"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "origin-app",
		Short: "Origin private journal service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("repository-url", defaults.GetString("repository.url"), "Moment repository base URL")
	cmd.PersistentFlags().String("repository-anon-key", "", "Moment repository anonymous key")
	cmd.PersistentFlags().String("identity-url", defaults.GetString("identity.url"), "Identity provider base URL")
	cmd.PersistentFlags().String("identity-anon-key", "", "Identity provider anonymous key")
	cmd.PersistentFlags().String("assistant-url", defaults.GetString("assistant.url"), "Generative assistant base URL")
	cmd.PersistentFlags().String("assistant-api-key", "", "Generative assistant API key")
	cmd.PersistentFlags().String("assistant-model", defaults.GetString("assistant.model"), "Generative assistant model")
	cmd.PersistentFlags().String("locator-url", defaults.GetString("locator.url"), "Position lookup base URL")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "repository.url", "repository-url")
	bindFlag(cmd, "repository.anon_key", "repository-anon-key")
	bindFlag(cmd, "identity.url", "identity-url")
	bindFlag(cmd, "identity.anon_key", "identity-anon-key")
	bindFlag(cmd, "assistant.url", "assistant-url")
	bindFlag(cmd, "assistant.api_key", "assistant-api-key")
	bindFlag(cmd, "assistant.model", "assistant-model")
	bindFlag(cmd, "locator.url", "locator-url")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	profiles, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		return err
	}

	identityURL := appConfig.IdentityURL
	if identityURL == "" {
		identityURL = appConfig.RepositoryURL
	}
	identityKey := appConfig.IdentityKey
	if identityKey == "" {
		identityKey = appConfig.RepositoryKey
	}
	identity, err := auth.NewProvider(auth.ProviderConfig{
		BaseURL: identityURL,
		APIKey:  identityKey,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	tokenIssuer := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SessionSigningKey),
	})
	sessionValidator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.SessionSigningKey),
		CookieName:    appConfig.SessionCookieName,
	})
	if err != nil {
		return err
	}

	repository, err := remote.NewClient(remote.ClientConfig{
		BaseURL: appConfig.RepositoryURL,
		APIKey:  appConfig.RepositoryKey,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	store := feed.NewStore(feed.StoreConfig{})
	idProvider := syncpolicy.NewUUIDProvider()
	publisher, err := syncpolicy.NewPublisher(syncpolicy.PublisherConfig{
		Store:      store,
		Repository: repository,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	dispatcher := chat.NewDispatcher()
	chatService, err := chat.NewService(chat.ServiceConfig{
		IDProvider: idProvider,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	notifications, err := notify.NewService(notify.ServiceConfig{IDProvider: idProvider})
	if err != nil {
		return err
	}

	var assistant server.Assistant
	if appConfig.AssistantURL != "" && appConfig.AssistantKey != "" {
		client, err := assist.NewClient(assist.ClientConfig{
			BaseURL: appConfig.AssistantURL,
			APIKey:  appConfig.AssistantKey,
			Model:   appConfig.AssistantModel,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		assistant = client
	} else {
		logger.Info("assistant not configured, suggestions pass text through unchanged")
		assistant = passthroughAssistant{}
	}

	var positions places.Source
	if appConfig.LocatorURL != "" {
		locator, err := places.NewLocator(places.LocatorConfig{
			BaseURL: appConfig.LocatorURL,
			Logger:  logger,
		})
		if err != nil {
			return err
		}
		positions = locator
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		IdentityProvider: identity,
		TokenIssuer:      tokenIssuer,
		SessionValidator: sessionValidator,
		Store:            store,
		Publisher:        publisher,
		Profiles:         profiles,
		Chat:             chatService,
		ChatDispatcher:   dispatcher,
		Notifications:    notifications,
		Assistant:        assistant,
		Positions:        positions,
		IDProvider:       idProvider,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// passthroughAssistant keeps the surface functional when no assistant
// endpoint is configured: text comes back untouched and the place list is
// the static fallback.
type passthroughAssistant struct{}

func (passthroughAssistant) RefineThought(_ context.Context, text string) string { return text }
func (passthroughAssistant) SuggestSong(_ context.Context, text string) string   { return text }
func (passthroughAssistant) RefineBio(_ context.Context, bio string) string      { return bio }
func (passthroughAssistant) NearbyPlaces(context.Context, float64, float64) []assist.Place {
	return assist.FallbackPlaces()
}
