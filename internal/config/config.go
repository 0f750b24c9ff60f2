package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	BridgeAddr string
	PageURL    string

	CandidateCap     int
	PlatformScan     bool
	RemovalSettleMs  int
	BrowserHeadless  bool
	BrowserTimeoutMs int

	LagerAPIBaseURL   string
	LagerAPIToken     string
	LagerRateLimitRPS int
	LagerTimeoutMs    int
	AutoBulkCheck     bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		BridgeAddr: getEnv("BRIDGE_ADDR", "127.0.0.1:8765"),
		PageURL:    getEnv("PAGE_URL", ""),

		CandidateCap:     getEnvInt("CANDIDATE_CAP", 50),
		PlatformScan:     getEnvBool("EXTRACT_PLATFORM_SCAN", true),
		RemovalSettleMs:  getEnvInt("REMOVAL_SETTLE_MS", 500),
		BrowserHeadless:  getEnvBool("BROWSER_HEADLESS", true),
		BrowserTimeoutMs: getEnvInt("BROWSER_TIMEOUT_MS", 30000),

		LagerAPIBaseURL:   getEnv("LAGER_API_BASE_URL", "https://lager-9ree.onrender.com"),
		LagerAPIToken:     getEnv("LAGER_API_TOKEN", ""),
		LagerRateLimitRPS: getEnvInt("LAGER_RATE_LIMIT_RPS", 5),
		LagerTimeoutMs:    getEnvInt("LAGER_TIMEOUT_MS", 30000),
		AutoBulkCheck:     getEnvBool("AUTO_BULK_CHECK", false),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
