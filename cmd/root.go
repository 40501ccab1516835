package cmd

import (
	"context"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mau.fi/whatsmeow"
	"gorm.io/gorm"

	coreConfig "github.com/ofertazap/ofertazap/core/config"
	coreDB "github.com/ofertazap/ofertazap/core/database"
	domainChannel "github.com/ofertazap/ofertazap/domains/channel"
	domainCreative "github.com/ofertazap/ofertazap/domains/creative"
	domainGroup "github.com/ofertazap/ofertazap/domains/group"
	domainProgram "github.com/ofertazap/ofertazap/domains/program"
	"github.com/ofertazap/ofertazap/engine"
	"github.com/ofertazap/ofertazap/infrastructure/tiktok"
	infraWhatsapp "github.com/ofertazap/ofertazap/infrastructure/whatsapp"
	"github.com/ofertazap/ofertazap/integrations/gemini"
	"github.com/ofertazap/ofertazap/integrations/openai"
	"github.com/ofertazap/ofertazap/repository"
	"github.com/ofertazap/ofertazap/ui/websocket"
	"github.com/ofertazap/ofertazap/usecase"
)

var (
	cfg      *coreConfig.Config
	location *time.Location
	db       *gorm.DB

	// Whatsapp
	whatsappCli *whatsmeow.Client

	// Repositories
	programRepo *repository.ProgramRepository
	catalogRepo *repository.CatalogRepository
	groupRepo   *repository.GroupRepository

	// Usecase
	programUsecase domainProgram.IProgramUsecase
	groupDirectory *infraWhatsapp.Directory
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ofertazap",
	Short: "Recurring product campaign dispatcher for WhatsApp groups",
	Long: `OfertaZap runs recurring promotional programs: each program picks a
product from the catalog on its own schedule, composes a message and
delivers it to the configured WhatsApp groups.`,
}

func init() {
	// Load environment variables first
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	initFlags()

	cobra.OnInitialize(initApp)
}

func initFlags() {
	rootCmd.PersistentFlags().StringP(
		"port", "p", "",
		"change port number with --port <number> | example: --port=8080",
	)
	rootCmd.PersistentFlags().BoolP(
		"debug", "d", false,
		"hide or displaying log with --debug <true/false> | example: --debug=true",
	)
	rootCmd.PersistentFlags().String(
		"timezone", "",
		`program schedule timezone --timezone <string> | example: --timezone="America/Sao_Paulo"`,
	)

	_ = viper.BindPFlag("app_port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("app_debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("scheduler_timezone", rootCmd.PersistentFlags().Lookup("timezone"))
}

// initApp loads configuration and opens the database. The WhatsApp client
// and the dispatch engine are wired later by initEngine, so commands like
// seed never touch the messaging session.
func initApp() {
	var err error
	cfg, err = coreConfig.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	// Flag overrides
	if v := viper.GetString("app_port"); v != "" {
		cfg.App.Port = v
	}
	if viper.GetBool("app_debug") {
		cfg.App.Debug = true
	}
	if v := viper.GetString("scheduler_timezone"); v != "" {
		cfg.Scheduler.Timezone = v
	}

	if cfg.App.Debug {
		cfg.WhatsApp.LogLevel = "DEBUG"
		logrus.SetLevel(logrus.DebugLevel)
	}

	location, err = cfg.Scheduler.Location()
	if err != nil {
		logrus.Fatalln(err)
	}

	db, err = coreDB.Connect(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect database: %v", err)
	}

	programRepo, err = repository.NewProgramRepository(db)
	if err != nil {
		logrus.Fatalf("Failed to init program repository: %v", err)
	}
	catalogRepo, err = repository.NewCatalogRepository(db)
	if err != nil {
		logrus.Fatalf("Failed to init catalog repository: %v", err)
	}
	groupRepo, err = repository.NewGroupRepository(db)
	if err != nil {
		logrus.Fatalf("Failed to init group repository: %v", err)
	}
}

// initEngine connects the WhatsApp session and assembles the dispatch
// pipeline on top of the repositories initApp prepared.
func initEngine() {
	ctx := context.Background()

	var err error
	whatsappCli, err = infraWhatsapp.InitClient(ctx, cfg.WhatsApp)
	if err != nil {
		logrus.Fatalf("Failed to init WhatsApp client: %v", err)
	}

	groupDirectory = infraWhatsapp.NewDirectory(whatsappCli)
	transport := infraWhatsapp.NewTransport(whatsappCli)

	// Dispatch resolves targets from the live group list by default; the
	// database source switches to the curated targets table instead.
	var directory domainGroup.IGroupDirectory = groupDirectory
	if cfg.Scheduler.TargetSource == "database" {
		directory = groupRepo
	}

	var secondary domainChannel.ISecondaryPublisher
	if cfg.TikTok.AccessToken != "" {
		secondary = tiktok.NewPublisher(cfg.TikTok)
	}

	composer := engine.NewComposer(
		initGenerativeComposer(),
		time.Duration(cfg.Scheduler.CreativeTimeoutSeconds)*time.Second,
	)
	dispatcher := engine.NewDispatcher(
		directory,
		transport,
		secondary,
		time.Duration(cfg.Scheduler.SendTimeoutSeconds)*time.Second,
	)

	coordinator := engine.NewCoordinator(
		programRepo,
		catalogRepo,
		engine.NewSelector(),
		composer,
		dispatcher,
		location,
	)
	coordinator.OnResult = websocket.BroadcastRunResult

	programUsecase = usecase.NewProgramService(programRepo, coordinator, location)
}

// initGenerativeComposer wires the configured AI provider, or none when no
// key is available; programs with AI creatives then use the template.
func initGenerativeComposer() domainCreative.IGenerativeComposer {
	switch cfg.AI.Provider {
	case "gemini":
		if cfg.AI.GeminiAPIKey != "" {
			return gemini.NewCreativeComposer(cfg.AI.GeminiAPIKey, cfg.AI.Model)
		}
	default:
		if cfg.AI.OpenAIAPIKey != "" {
			return openai.NewCreativeComposer(cfg.AI.OpenAIAPIKey, cfg.AI.Model)
		}
	}
	logrus.Warn("[CREATIVE] No AI provider configured, falling back to template composition")
	return nil
}

// StopApp performs a clean shutdown of the database and WhatsApp client.
func StopApp() {
	if whatsappCli != nil {
		whatsappCli.Disconnect()
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	logrus.Info("[APP] Shutdown complete")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatalln(err)
	}
}
