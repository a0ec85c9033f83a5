package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/oauth2"

	"keai-site/internal/airtable"
	"keai-site/internal/cache"
	"keai-site/internal/generate"
	"keai-site/internal/gmetrics"
	"keai-site/internal/httpapi"
	"keai-site/internal/objstore"
	"keai-site/internal/telegram"
	"keai-site/pkg/keai"
	llmconfig "keai-site/pkg/llm/config"
)

const (
	envConfigFile           = "KEAI_CONFIG_FILE"
	defaultConfigFilePath   = "config/server.json"
	alternateConfigFilePath = "bin/config/server.json"

	defaultListenAddr      = ":8080"
	defaultShutdownTimeout = 10 * time.Second
)

// Secrets never live in the config file.
const (
	envAirtableToken     = "AIRTABLE_TOKEN"
	envR2AccessKeyID     = "R2_ACCESS_KEY_ID"
	envR2SecretAccessKey = "R2_SECRET_ACCESS_KEY"
	envGoogleClientEmail = "GOOGLE_CLIENT_EMAIL"
	envGooglePrivateKey  = "GOOGLE_PRIVATE_KEY"
	envTelegramBotToken  = "TELEGRAM_BOT_TOKEN"
	envAdminPassword     = "ADMIN_PASSWORD"
	envCronSecret        = "CRON_SECRET"
)

type appConfig struct {
	logLevel        slog.Level
	listenAddr      string
	shutdownTimeout time.Duration
	siteURL         string

	airtableToken  string
	airtableBaseID string
	tablePosts     string
	tableLeads     string
	tablePopups    string
	tableImages    string
	tableAnalytics string

	r2AccountID       string
	r2AccessKeyID     string
	r2SecretAccessKey string
	r2Bucket          string
	r2PublicURL       string

	cacheTTL  time.Duration
	cacheKey  string
	pinnedIDs []string

	llm                llmconfig.Config
	generationProvider string
	generationModel    string

	googleClientEmail string
	googlePrivateKey  string
	ga4PropertyID     string
	searchConsoleSite string

	telegramBotToken string
	telegramChatID   string

	adminPassword string
	cronSecret    string
}

type fileConfig struct {
	LogLevel        string `json:"log_level"`
	ListenAddr      string `json:"listen_addr"`
	ShutdownTimeout string `json:"shutdown_timeout"`
	SiteURL         string `json:"site_url"`

	Airtable struct {
		BaseID string `json:"base_id"`
		Tables struct {
			Posts     string `json:"posts"`
			Leads     string `json:"leads"`
			Popups    string `json:"popups"`
			Images    string `json:"images"`
			Analytics string `json:"analytics"`
		} `json:"tables"`
	} `json:"airtable"`

	R2 struct {
		AccountID string `json:"account_id"`
		Bucket    string `json:"bucket"`
		PublicURL string `json:"public_url"`
	} `json:"r2"`

	Cache struct {
		TTL       string   `json:"ttl"`
		Key       string   `json:"key"`
		PinnedIDs []string `json:"pinned_ids"`
	} `json:"cache"`

	LLM json.RawMessage `json:"llm"`

	Generation struct {
		Provider string `json:"provider"`
		Model    string `json:"model"`
	} `json:"generation"`

	Google struct {
		PropertyID string `json:"property_id"`
		SiteURL    string `json:"site_url"`
	} `json:"google"`

	Telegram struct {
		ChatID string `json:"chat_id"`
	} `json:"telegram"`
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, manager, err := buildServer(ctx, logger, cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.listenAddr,
		Handler: server.Handler(),
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()
	logger.Info("server listening", "addr", cfg.listenAddr)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	// Detached cache tasks finish before the process exits.
	manager.Wait()
	logger.Info("server stopped")

	return nil
}

func buildServer(ctx context.Context, logger *slog.Logger, cfg appConfig) (*httpapi.Server, *cache.Manager, error) {
	client, err := airtable.NewClient(airtable.Config{
		Token:  cfg.airtableToken,
		BaseID: cfg.airtableBaseID,
		Logger: logger,
	})
	if err != nil {
		return nil, nil, err
	}

	posts, err := airtable.NewPostStore(client, cfg.tablePosts)
	if err != nil {
		return nil, nil, err
	}
	leads, err := airtable.NewLeadStore(client, cfg.tableLeads)
	if err != nil {
		return nil, nil, err
	}
	popups, err := airtable.NewPopupStore(client, cfg.tablePopups)
	if err != nil {
		return nil, nil, err
	}
	images, err := airtable.NewImageStore(client, cfg.tableImages)
	if err != nil {
		return nil, nil, err
	}
	analytics, err := airtable.NewAnalyticsStore(client, cfg.tableAnalytics)
	if err != nil {
		return nil, nil, err
	}

	objects, err := objstore.New(ctx, objstore.Config{
		AccountID:       cfg.r2AccountID,
		AccessKeyID:     cfg.r2AccessKeyID,
		SecretAccessKey: cfg.r2SecretAccessKey,
		Bucket:          cfg.r2Bucket,
		PublicURL:       cfg.r2PublicURL,
		Logger:          logger,
	})
	if err != nil {
		return nil, nil, err
	}

	listingCache, err := cache.NewObjectBacked(objects, cfg.cacheKey)
	if err != nil {
		return nil, nil, err
	}
	manager, err := cache.NewManager(posts, listingCache,
		cache.WithTTL(cfg.cacheTTL),
		cache.WithPinnedIDs(cfg.pinnedIDs),
		cache.WithLogger(logger),
	)
	if err != nil {
		return nil, nil, err
	}

	registry, err := llmconfig.BuildRegistry(cfg.llm)
	if err != nil {
		return nil, nil, fmt.Errorf("build llm registry: %w", err)
	}
	generateOptions := []generate.Option{generate.WithLogger(logger)}
	if cfg.generationProvider != "" {
		generateOptions = append(generateOptions, generate.WithProvider(cfg.generationProvider))
	}
	if cfg.generationModel != "" {
		generateOptions = append(generateOptions, generate.WithModel(cfg.generationModel))
	}
	generator, err := generate.NewService(registry, posts, manager, generateOptions...)
	if err != nil {
		return nil, nil, err
	}

	tokenSource, err := gmetrics.NewTokenSource(ctx, cfg.googleClientEmail, cfg.googlePrivateKey)
	if err != nil {
		return nil, nil, err
	}
	metricsClient, err := gmetrics.NewClient(gmetrics.ClientConfig{
		PropertyID: cfg.ga4PropertyID,
		SiteURL:    cfg.searchConsoleSite,
		HTTPClient: oauth2.NewClient(ctx, tokenSource),
	})
	if err != nil {
		return nil, nil, err
	}
	syncer := gmetrics.NewSyncer(metricsClient, analytics, leads, gmetrics.WithLogger(logger))

	var notifier keai.Notifier
	if cfg.telegramBotToken != "" && cfg.telegramChatID != "" {
		notifier, err = telegram.NewNotifier(telegram.Config{
			BotToken: cfg.telegramBotToken,
			ChatID:   cfg.telegramChatID,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, err
		}
	} else {
		logger.Warn("telegram notifier disabled: missing bot token or chat id")
	}

	server, err := httpapi.NewServer(httpapi.Config{
		Listing:       manager,
		Posts:         posts,
		Leads:         leads,
		Popups:        popups,
		Images:        images,
		Analytics:     analytics,
		Uploader:      objects,
		Generator:     generator,
		Syncer:        syncer,
		Notifier:      notifier,
		AdminPassword: cfg.adminPassword,
		CronSecret:    cfg.cronSecret,
		SiteURL:       cfg.siteURL,
		Logger:        logger,
	})
	if err != nil {
		return nil, nil, err
	}

	return server, manager, nil
}

func loadConfig() (appConfig, error) {
	cfg := defaultAppConfig()

	configFile, err := resolveConfigFilePath()
	if err != nil {
		return appConfig{}, err
	}
	if err := applyConfigFile(&cfg, configFile); err != nil {
		return appConfig{}, err
	}
	applyEnvironment(&cfg)

	if err := validateAppConfig(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("validate config file %s: %w", configFile, err)
	}

	return cfg, nil
}

func resolveConfigFilePath() (string, error) {
	if configFile := strings.TrimSpace(os.Getenv(envConfigFile)); configFile != "" {
		return configFile, nil
	}

	candidates := []string{defaultConfigFilePath, alternateConfigFilePath}
	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config file %s is a directory", candidate)
			}
			return candidate, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat config file %s: %w", candidate, err)
		}
	}

	return "", fmt.Errorf(
		"config file not found; create %s or %s, or set %s",
		defaultConfigFilePath,
		alternateConfigFilePath,
		envConfigFile,
	)
}

func defaultAppConfig() appConfig {
	return appConfig{
		logLevel:        slog.LevelInfo,
		listenAddr:      defaultListenAddr,
		shutdownTimeout: defaultShutdownTimeout,
		cacheTTL:        cache.DefaultTTL,
		cacheKey:        cache.DefaultObjectKey,
	}
}

func applyConfigFile(cfg *appConfig, path string) error {
	if cfg == nil {
		return fmt.Errorf("apply config file: nil config")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var parsed fileConfig
	if err := json.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if rawLevel := strings.TrimSpace(parsed.LogLevel); rawLevel != "" {
		level, err := parseLogLevel(rawLevel)
		if err != nil {
			return fmt.Errorf("parse log_level: %w", err)
		}
		cfg.logLevel = level
	}
	if addr := strings.TrimSpace(parsed.ListenAddr); addr != "" {
		cfg.listenAddr = addr
	}
	if rawTimeout := strings.TrimSpace(parsed.ShutdownTimeout); rawTimeout != "" {
		timeout, err := time.ParseDuration(rawTimeout)
		if err != nil {
			return fmt.Errorf("parse shutdown_timeout: %w", err)
		}
		if timeout <= 0 {
			return fmt.Errorf("parse shutdown_timeout: must be > 0")
		}
		cfg.shutdownTimeout = timeout
	}
	cfg.siteURL = strings.TrimSpace(parsed.SiteURL)

	cfg.airtableBaseID = strings.TrimSpace(parsed.Airtable.BaseID)
	cfg.tablePosts = strings.TrimSpace(parsed.Airtable.Tables.Posts)
	cfg.tableLeads = strings.TrimSpace(parsed.Airtable.Tables.Leads)
	cfg.tablePopups = strings.TrimSpace(parsed.Airtable.Tables.Popups)
	cfg.tableImages = strings.TrimSpace(parsed.Airtable.Tables.Images)
	cfg.tableAnalytics = strings.TrimSpace(parsed.Airtable.Tables.Analytics)

	cfg.r2AccountID = strings.TrimSpace(parsed.R2.AccountID)
	cfg.r2Bucket = strings.TrimSpace(parsed.R2.Bucket)
	cfg.r2PublicURL = strings.TrimSpace(parsed.R2.PublicURL)

	if rawTTL := strings.TrimSpace(parsed.Cache.TTL); rawTTL != "" {
		ttl, err := time.ParseDuration(rawTTL)
		if err != nil {
			return fmt.Errorf("parse cache.ttl: %w", err)
		}
		if ttl <= 0 {
			return fmt.Errorf("parse cache.ttl: must be > 0")
		}
		cfg.cacheTTL = ttl
	}
	if key := strings.TrimSpace(parsed.Cache.Key); key != "" {
		cfg.cacheKey = key
	}
	cfg.pinnedIDs = append([]string(nil), parsed.Cache.PinnedIDs...)

	if len(parsed.LLM) > 0 {
		llmCfg, err := llmconfig.Parse(parsed.LLM)
		if err != nil {
			return fmt.Errorf("parse llm: %w", err)
		}
		cfg.llm = llmCfg
	}
	cfg.generationProvider = strings.TrimSpace(parsed.Generation.Provider)
	cfg.generationModel = strings.TrimSpace(parsed.Generation.Model)

	cfg.ga4PropertyID = strings.TrimSpace(parsed.Google.PropertyID)
	cfg.searchConsoleSite = strings.TrimSpace(parsed.Google.SiteURL)

	cfg.telegramChatID = strings.TrimSpace(parsed.Telegram.ChatID)

	return nil
}

// applyEnvironment reads the secrets. Values win over anything in the file;
// the file never carries them in the first place.
func applyEnvironment(cfg *appConfig) {
	cfg.airtableToken = cleanEnv(envAirtableToken)
	cfg.r2AccessKeyID = cleanEnv(envR2AccessKeyID)
	cfg.r2SecretAccessKey = cleanEnv(envR2SecretAccessKey)
	cfg.googleClientEmail = cleanEnv(envGoogleClientEmail)
	cfg.googlePrivateKey = os.Getenv(envGooglePrivateKey)
	cfg.telegramBotToken = cleanEnv(envTelegramBotToken)
	cfg.adminPassword = cleanEnv(envAdminPassword)
	cfg.cronSecret = cleanEnv(envCronSecret)
}

// cleanEnv trims whitespace and stray newlines that copy-pasted secrets often
// carry.
func cleanEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	value = strings.ReplaceAll(value, "\r", "")
	return strings.ReplaceAll(value, "\n", "")
}

func validateAppConfig(cfg *appConfig) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	required := []struct {
		value string
		name  string
	}{
		{cfg.airtableToken, envAirtableToken},
		{cfg.airtableBaseID, "airtable.base_id"},
		{cfg.tablePosts, "airtable.tables.posts"},
		{cfg.tableLeads, "airtable.tables.leads"},
		{cfg.tablePopups, "airtable.tables.popups"},
		{cfg.tableImages, "airtable.tables.images"},
		{cfg.tableAnalytics, "airtable.tables.analytics"},
		{cfg.r2AccountID, "r2.account_id"},
		{cfg.r2AccessKeyID, envR2AccessKeyID},
		{cfg.r2SecretAccessKey, envR2SecretAccessKey},
		{cfg.r2Bucket, "r2.bucket"},
		{cfg.googleClientEmail, envGoogleClientEmail},
		{cfg.googlePrivateKey, envGooglePrivateKey},
		{cfg.ga4PropertyID, "google.property_id"},
		{cfg.searchConsoleSite, "google.site_url"},
		{cfg.adminPassword, envAdminPassword},
		{cfg.cronSecret, envCronSecret},
	}
	for _, field := range required {
		if field.value == "" {
			return fmt.Errorf("%s is required", field.name)
		}
	}

	if len(cfg.llm.Providers) == 0 {
		return fmt.Errorf("llm.providers is required")
	}

	return nil
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unsupported level %q", raw)
	}
}
