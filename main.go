package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	activitymod "github.com/example/todo-tracker/modules/activity"
	apimod "github.com/example/todo-tracker/modules/api"
	authmod "github.com/example/todo-tracker/modules/auth"
	cachemod "github.com/example/todo-tracker/modules/cache"
	imagesmod "github.com/example/todo-tracker/modules/images"
	mediamod "github.com/example/todo-tracker/modules/media"
	todomod "github.com/example/todo-tracker/modules/todo"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
)

func main() {
	// Load configuration from environment
	httpAddr := getEnv("HTTP_ADDR", ":8080")
	mediaAddr := getEnv("MEDIA_ADDR", ":8081")
	publicBaseURL := getEnv("PUBLIC_BASE_URL", "http://localhost:8081")
	authDBPath := getEnv("AUTH_DB_PATH", "./users.db")
	todoDBPath := getEnv("TODO_DB_PATH", "./todos.db")
	databaseURL := getEnv("DATABASE_URL", "")
	redisAddr := getEnv("REDIS_ADDR", "")
	cacheTTL := getEnvDuration("CACHE_TTL", 5*time.Minute)
	storageDir := getEnv("STORAGE_DIR", "/tmp/todo-tracker")
	shutdownTimeout := getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	jwtConfig := authmod.DefaultJWTConfig()
	jwtConfig.SecretKey = getEnv("JWT_SECRET_KEY", jwtConfig.SecretKey)
	jwtConfig.Issuer = getEnv("JWT_ISSUER", jwtConfig.Issuer)
	jwtConfig.AccessTokenDuration = getEnvDuration("JWT_ACCESS_TTL", jwtConfig.AccessTokenDuration)
	jwtConfig.RefreshTokenDuration = getEnvDuration("JWT_REFRESH_TTL", jwtConfig.RefreshTokenDuration)

	apiConfig := apimod.DefaultConfig()
	apiConfig.Addr = httpAddr
	apiConfig.AuthRateLimit = getEnvInt("AUTH_RATE_LIMIT", apiConfig.AuthRateLimit)

	log.Println("=== Todo Tracker ===")
	log.Printf("API: %s", httpAddr)
	log.Printf("Media: %s (public base %s)", mediaAddr, publicBaseURL)
	log.Printf("Storage dir: %s", storageDir)
	if databaseURL != "" {
		log.Println("Todo store: postgres")
	} else {
		log.Printf("Todo store: sqlite %s", todoDBPath)
	}
	if redisAddr != "" {
		log.Printf("Redis: %s (ttl %s)", redisAddr, cacheTTL)
	}
	if jwtConfig.SecretKey == authmod.DefaultJWTConfig().SecretKey {
		log.Println("Warning: JWT_SECRET_KEY not set, using the development secret")
	}

	logLevel := mono.WithLogLevel(mono.LogLevelInfo)
	if strings.EqualFold(getEnv("LOG_LEVEL", "info"), "error") {
		logLevel = mono.WithLogLevel(mono.LogLevelError)
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		logLevel,
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(storageDir),
	)
	if err != nil {
		log.Fatalf("Failed to create mono application: %v", err)
	}

	storagePlugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        imagesmod.BucketName,
				Description: "Todo images",
				MaxBytes:    1024 * 1024 * 1024,
				Storage:     fsjetstream.FileStorage,
			},
		},
	})
	if err != nil {
		log.Fatalf("Failed to create storage plugin: %v", err)
	}
	if err := app.RegisterPlugin(storagePlugin, "storage"); err != nil {
		log.Fatalf("Failed to register storage plugin: %v", err)
	}

	if redisAddr != "" {
		cachePlugin := cachemod.NewPluginModule(redisAddr, "todos:", cacheTTL, app.Logger())
		if err := app.RegisterPlugin(cachePlugin, "cache"); err != nil {
			log.Fatalf("Failed to register cache plugin: %v", err)
		}
	}

	// Create modules
	authModule := authmod.NewModule(authmod.Config{
		DBPath:     authDBPath,
		JWT:        jwtConfig,
		BcryptCost: getEnvInt("BCRYPT_COST", authmod.DefaultBcryptCost),
	}, app.Logger())
	imagesModule := imagesmod.NewModule(publicBaseURL, app.Logger())
	todoModule := todomod.NewModule(todomod.Config{
		DBPath:      todoDBPath,
		DatabaseURL: databaseURL,
	}, app.Logger())
	activityModule := activitymod.NewModule(getEnvInt("ACTIVITY_CAPACITY", activitymod.DefaultCapacity), app.Logger())
	mediaModule := mediamod.NewModule(mediaAddr, app.Logger())
	apiModule := apimod.NewModule(apiConfig, app.Logger())

	// Wire up dependencies
	todoModule.SetImageModule(imagesModule)
	mediaModule.SetImageModule(imagesModule)
	apiModule.SetTodoModule(todoModule)
	apiModule.SetActivityModule(activityModule)

	// Register modules; images must start before todo and media use its store
	app.Register(authModule)
	app.Register(imagesModule)
	app.Register(todoModule)
	app.Register(activityModule)
	app.Register(mediaModule)
	app.Register(apiModule)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}

	log.Println("=== Application Started ===")
	log.Println("Endpoints:")
	log.Println("  POST   /auth/register                 - Create an account")
	log.Println("  POST   /auth/login                    - Log in")
	log.Println("  POST   /auth/refresh                  - Refresh tokens")
	log.Println("  GET    /api/v1/todos                  - List todos (?search=&filter=)")
	log.Println("  POST   /api/v1/todos                  - Create a todo")
	log.Println("  PATCH  /api/v1/todos/:id              - Update a todo")
	log.Println("  POST   /api/v1/todos/:id/toggle       - Set completion")
	log.Println("  DELETE /api/v1/todos/:id              - Delete a todo")
	log.Println("  POST   /api/v1/todos/:id/image        - Attach an image")
	log.Println("  DELETE /api/v1/todos/:id/image        - Remove the image")
	log.Println("  GET    /api/v1/todos/stats            - Counts")
	log.Println("  GET    /api/v1/activity               - Recent activity")
	log.Printf("  GET    %s/storage/v1/object/public/%s/* - Images", publicBaseURL, imagesmod.BucketName)
	log.Println("")
	log.Println("Press Ctrl+C to shutdown")

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration returns environment variable as duration or default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: invalid duration value for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
