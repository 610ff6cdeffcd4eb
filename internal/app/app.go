package app

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/andy/apothecary/internal/config"
	"github.com/andy/apothecary/internal/crypto"
	"github.com/andy/apothecary/internal/db"
	"github.com/andy/apothecary/internal/repository"
	"github.com/andy/apothecary/internal/service"
)

// App is the dependency injection container for all application components
type App struct {
	Config *config.Config
	DB     *db.DB
	Store  *repository.Store

	Logger *zap.Logger
	// Level can be raised or lowered at runtime, e.g. by `serve`
	Level zap.AtomicLevel

	// Services
	OrderService   service.OrderService
	InvoiceService service.InvoiceService
	StockService   service.StockService
	ReportService  service.ReportService
}

// New creates a new App instance, initializing all dependencies
// It handles:
// 1. Loading config
// 2. Getting encryption key from keyring
// 3. Opening database
// 4. Running migrations
// 5. Creating services
func New(ctx context.Context) (*App, error) {
	cfg, err := config.LoadDefault()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

// NewWithConfig creates an App with a provided config (useful for testing)
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	logger, level, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	password, err := databaseKey()
	if err != nil {
		return nil, err
	}

	database, err := db.Open(cfg.Database.Path, password)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return wire(cfg, database, logger, level), nil
}

// wire builds the store and services over an open, migrated database
func wire(cfg *config.Config, database *db.DB, logger *zap.Logger, level zap.AtomicLevel) *App {
	store := repository.NewStore(database)

	invoiceSettings := service.InvoiceSettings{
		NumberPrefix:   cfg.Invoice.NumberPrefix,
		DefaultDueDays: cfg.Invoice.DefaultDueDays,
		DefaultTerms:   cfg.Invoice.DefaultTerms,
	}

	return &App{
		Config:         cfg,
		DB:             database,
		Store:          store,
		Logger:         logger,
		Level:          level,
		OrderService:   service.NewOrderService(store, logger),
		InvoiceService: service.NewInvoiceService(store, invoiceSettings, logger),
		StockService:   service.NewStockService(store, logger),
		ReportService:  service.NewReportService(store, cfg.Stock.LowThreshold),
	}
}

// NewLogger builds a zap logger from config. JSON uses the production
// encoder, console the development one. The returned level is shared with
// the logger so it can be changed later.
func NewLogger(cfg config.LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}
	return logger, level, nil
}

// Close cleanly shuts down the application
func (a *App) Close() error {
	_ = a.Logger.Sync()
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

// OperatorID is the staff user recorded for CLI and TUI actions
func (a *App) OperatorID() int64 {
	return a.Config.Operator.UserID
}

// SaveConfig saves the current configuration to disk
func (a *App) SaveConfig() error {
	return a.Config.Save(config.DefaultConfigPath())
}

// databaseKey fetches the passphrase, asking for a new one on first run
func databaseKey() (string, error) {
	keyring := crypto.NewKeyring()

	password, err := keyring.GetKey()
	if err == nil {
		return password, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("no database key available and stdin is not a terminal: %w", err)
	}

	fmt.Println("Setting up database encryption for the first time...")
	password, err = promptForPassword()
	if err != nil {
		return "", fmt.Errorf("failed to set password: %w", err)
	}

	if err := keyring.SetKey(password); err != nil {
		return "", fmt.Errorf("failed to store encryption key: %w", err)
	}
	return password, nil
}

// promptForPassword prompts user for a new database password (first run)
func promptForPassword() (string, error) {
	fmt.Println()
	fmt.Println("Pharmacy records will be encrypted with a password.")
	fmt.Println("This password will be stored securely in your system keyring.")
	fmt.Println()
	fmt.Print("Enter a password for database encryption: ")

	fd := int(os.Stdin.Fd())

	// Read password securely (no echo)
	password, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read confirmation: %w", err)
	}

	if string(password) != string(confirm) {
		return "", fmt.Errorf("passwords do not match")
	}

	fmt.Println()
	fmt.Println("✓ Database encryption configured successfully")
	fmt.Println()

	return string(password), nil
}
