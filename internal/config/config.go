package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr string

	// DB
	Env    string // "dev" | "prod"
	DBPath string // e.g. "./data/gatehouse.db"

	// Ledger tables
	LedgerTable  string
	ArchiveTable string

	// Engine tuning
	WindowSize int // recent rows scanned for presence resolution
	LockWaitMS int // bounded wait for the engine lock, in milliseconds

	// Shift-close exports
	ExportDir string
}

func FromEnv() Config {
	addr := getenvDefault("GATEHOUSE_HTTP_ADDR", ":8080")

	env := strings.ToLower(getenvDefault("GATEHOUSE_ENV", "dev"))
	if env != "dev" && env != "prod" {
		// fail-soft: treat unknown as dev
		env = "dev"
	}

	dbPath := getenvDefault("GATEHOUSE_DB_PATH", "./data/gatehouse.db")

	ledgerTable := getenvDefault("GATEHOUSE_LEDGER_TABLE", "AccessLog")
	archiveTable := getenvDefault("GATEHOUSE_ARCHIVE_TABLE", "AccessLogArchive")

	windowSize := getenvInt("GATEHOUSE_WINDOW_SIZE", 100)
	lockWaitMS := getenvInt("GATEHOUSE_LOCK_WAIT_MS", 20000)

	exportDir := getenvDefault("GATEHOUSE_EXPORT_DIR", "./exports")

	return Config{
		HTTPAddr: addr,
		Env:      env,
		DBPath:   dbPath,

		LedgerTable:  ledgerTable,
		ArchiveTable: archiveTable,

		WindowSize: windowSize,
		LockWaitMS: lockWaitMS,

		ExportDir: exportDir,
	}
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
