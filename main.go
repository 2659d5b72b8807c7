package main

import (
	"context"
	"embed"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/linux"
	"google.golang.org/genai"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DickShmiggleTM/RepoFusion/internal/database"
	"github.com/DickShmiggleTM/RepoFusion/internal/events"
	"github.com/DickShmiggleTM/RepoFusion/internal/llm/catalog"
	"github.com/DickShmiggleTM/RepoFusion/internal/llm/resolver"
	"github.com/DickShmiggleTM/RepoFusion/internal/services"
	"github.com/DickShmiggleTM/RepoFusion/internal/utils"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	// A missing .env is fine; keys can come from the environment or keychain.
	_ = utils.LoadEnv()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if database.IsDevelopment() {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	app := NewApp()

	db, err := database.Init(database.Config{
		Path:     database.GetDefaultDBPath(),
		LogLevel: gormlogger.Warn,
		Logger:   log.With().Str("component", "gorm").Logger(),
	})
	if err != nil {
		log.Error().Err(err).Msg("could not open database")
		return
	}
	if sqlDB, err := db.DB(); err == nil {
		app.dbClose = sqlDB.Close
	}

	// The shared default backend. Absent a key it stays nil and gemini
	// requests fail at generation time with an actionable message.
	var sharedClient *genai.Client
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		sharedClient, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			log.Warn().Err(err).Msg("could not create shared gemini backend")
		}
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, no shared default backend")
	}

	// Local endpoint overrides; OLLAMA_HOST carries the bare host URL, the
	// resolver speaks to its OpenAI-compatible /v1 surface.
	ollamaHost := strings.TrimSuffix(os.Getenv("OLLAMA_HOST"), "/")
	llamafileURL := strings.TrimSuffix(os.Getenv("LLAMAFILE_BASE_URL"), "/")

	keyringService := services.NewKeyringService()
	settingsService := services.NewSettingsService(keyringService, log.With().Str("component", "settings").Logger())
	modelCatalog := catalog.New(catalog.Options{
		OllamaBaseURL: ollamaHost,
		Logger:        log.With().Str("component", "catalog").Logger(),
	})
	modelListService := services.NewModelListService(modelCatalog, log.With().Str("component", "models").Logger())
	archiveService := services.NewArchiveService()
	emitterService := services.NewEventEmitterService()
	dbServices := services.NewDbServices(db, log)

	resolverOpts := resolver.Options{
		Logger: log.With().Str("component", "resolver").Logger(),
	}
	if ollamaHost != "" {
		resolverOpts.OllamaBaseURL = ollamaHost + "/v1"
	}
	if llamafileURL != "" {
		// Taken verbatim; the llamafile server exposes /v1 itself.
		resolverOpts.LlamafileBaseURL = llamafileURL
	}
	modelResolver := resolver.New(sharedClient, resolverOpts)
	mergeService := services.NewMergeService(
		modelResolver,
		settingsService,
		dbServices.MergeSessionRepo,
		log.With().Str("component", "merge").Logger(),
	)

	err = wails.Run(&options.App{
		Title:  "RepoFusion",
		Width:  1200,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		Linux: &linux.Options{
			WindowIsTranslucent: false,
			WebviewGpuPolicy:    linux.WebviewGpuPolicyAlways,
			ProgramName:         "RepoFusion",
		},
		BackgroundColour: &options.RGBA{R: 24, G: 24, B: 27, A: 1},
		OnStartup: func(ctx context.Context) {
			app.startup(ctx)
			events.EnableRuntimeEmitter()
			settingsService.Startup(ctx)
			mergeService.Startup(ctx)
			dbServices.MergeSessions.Startup(ctx)
			archiveService.Startup(ctx)
			emitterService.Startup(ctx)
			if err := modelListService.Startup(ctx); err != nil {
				log.Error().Err(err).Msg("could not load model catalog")
			}
		},
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
			settingsService,
			mergeService,
			dbServices.MergeSessions,
			modelListService,
			archiveService,
			keyringService,
			emitterService,
		},
	})

	if err != nil {
		log.Error().Err(err).Msg("application exited with error")
	}
}
