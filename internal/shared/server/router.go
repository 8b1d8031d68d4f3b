package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	googleauth "cvscreen-backend/internal/auth"
	"cvscreen-backend/internal/evaluations"
	"cvscreen-backend/internal/extract"
	"cvscreen-backend/internal/llm"
	"cvscreen-backend/internal/llm/openai"
	"cvscreen-backend/internal/shared/config"
	"cvscreen-backend/internal/shared/metrics"
	"cvscreen-backend/internal/shared/server/middleware"
	"cvscreen-backend/internal/shared/server/respond"
	"cvscreen-backend/internal/shared/storage/db"
	"cvscreen-backend/internal/shared/storage/object"
	localstore "cvscreen-backend/internal/shared/storage/object/local"
	s3store "cvscreen-backend/internal/shared/storage/object/s3"
)

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Auth(cfg.Env),
	)

	// Dependencies
	store := buildStore(cfg)
	sqlDB := buildDB(cfg)

	var repo evaluations.Repo
	if sqlDB != nil {
		repo = evaluations.NewPGRepo(sqlDB)
	} else {
		repo = evaluations.NewMemoryRepo()
	}

	extractor := buildExtractor(cfg, store)
	scorer := buildScorer(cfg)

	svc := evaluations.NewService(repo, store, extractor, scorer, evaluations.ServiceConfig{
		RubricVersion:    cfg.RubricVersion,
		CriteriaMismatch: cfg.CriteriaMismatch,
		Provider:         cfg.LLMProvider,
		Model:            cfg.LLMModel,
	}, evaluations.LogSink{})
	evalHandler := evaluations.NewHandler(svc)

	googleAuth := googleauth.NewGoogleAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	googleAuth.Register(api)
	registerMeRoutes(api)
	evalHandler.Register(api)

	admin := api.Group("/admin", middleware.RequireAdmin(cfg.AdminEmails))
	evalHandler.RegisterAdmin(admin)

	r.GET("/metrics", metrics.Handler())

	return r
}

func buildStore(cfg config.Config) object.ObjectStore {
	if cfg.ObjectStoreType == "s3" {
		store, err := s3store.New(context.Background(), cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			log.Printf("s3 store init failed, falling back to local: %v", err)
		} else {
			return store
		}
	}
	return localstore.New(cfg.LocalStoreDir)
}

func buildDB(cfg config.Config) *sql.DB {
	if cfg.DatabaseURL == "" {
		return nil
	}
	ctx := context.Background()
	dbConn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return nil
	}
	if err := db.RunMigrations(ctx, dbConn); err != nil {
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		dbConn.Close()
		return nil
	}
	return dbConn
}

func buildExtractor(cfg config.Config, store object.ObjectStore) extract.TextExtractor {
	if cfg.ExtractorURL != "" {
		extractor, err := extract.NewServiceExtractor(store, extract.ServiceConfig{
			URL:          cfg.ExtractorURL,
			Mode:         cfg.ExtractorMode,
			SendPII:      cfg.ExtractorSendPII,
			Timeout:      cfg.ExtractorTimeout,
			SignedURLTTL: cfg.SignedURLTTL,
			MinLength:    cfg.MinExtractedChars,
		})
		if err == nil {
			return extractor
		}
		log.Printf("service extractor init failed, falling back to local: %v", err)
	}
	return extract.NewLocalExtractor(store, cfg.MinExtractedChars)
}

func buildScorer(cfg config.Config) llm.Client {
	if cfg.OpenAIAPIKey == "" {
		log.Printf("OPENAI_API_KEY not set; scoring is disabled")
		return llm.PlaceholderClient{}
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, openai.DefaultProfile(cfg.LLMModel), cfg.OpenAITimeout)
	if err != nil {
		log.Printf("openai client init failed; scoring is disabled: %v", err)
		return llm.PlaceholderClient{}
	}
	return client
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
