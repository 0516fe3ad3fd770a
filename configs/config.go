package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ServerPort      string
	NumberOfWorkers int
	JWTSecret       string

	JudgeStream string
	JudgeGroup  string

	EngineURL         string
	EngineAuthToken   string
	EngineRapidAPIKey string
	EngineRapidHost   string
	EngineHTTPTimeout time.Duration

	PollInterval    time.Duration
	PollMaxAttempts int
	CacheTTL        time.Duration
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	return &Config{
		AppEnv: getEnv("APP_ENV", "development"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "codejudge"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		ServerPort:      getEnv("SERVER_PORT", "8080"),
		NumberOfWorkers: getEnvAsInt("NUM_OF_WORKERS", 2),
		JWTSecret:       getEnv("JWT_SECRET", ""),

		JudgeStream: getEnv("JUDGE_STREAM", "code_submissions"),
		JudgeGroup:  getEnv("JUDGE_GROUP", "judgers"),

		EngineURL:         getEnv("JUDGE0_URL", "http://localhost:2358"),
		EngineAuthToken:   getEnv("JUDGE0_AUTH_TOKEN", ""),
		EngineRapidAPIKey: getEnv("JUDGE0_RAPIDAPI_KEY", ""),
		EngineRapidHost:   getEnv("JUDGE0_RAPIDAPI_HOST", ""),
		EngineHTTPTimeout: getEnvAsDuration("JUDGE0_HTTP_TIMEOUT", 10*time.Second),

		PollInterval:    getEnvAsDuration("POLL_INTERVAL", 2*time.Second),
		PollMaxAttempts: getEnvAsInt("POLL_MAX_ATTEMPTS", 60),
		CacheTTL:        getEnvAsDuration("CACHE_TTL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return fallback
}
