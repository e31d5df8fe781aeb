package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/tagtree/plugin/tagpath"
)

// Profile is configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo".
	Mode string
	// Addr is the binding address for server.
	Addr string
	// Port is the binding port for server.
	Port int
	// UNIXSock is the path to the unix socket, overrides Addr and Port.
	UNIXSock string
	// Data is the data directory.
	Data string
	// Driver is the database driver, "sqlite" or "postgres".
	Driver string
	// DSN is the database source name.
	DSN string
	// InstanceURL is the public url of the instance.
	InstanceURL string
	// Version is the current version of server.
	Version string

	// Separator is the tag hierarchy separator. Persisted paths keep the
	// separator in force at write time; changing it on existing data is
	// not migrated.
	Separator string
	// Secret signs mutation tokens.
	Secret string
	// TokenTTLSeconds bounds the lifetime of issued mutation tokens.
	TokenTTLSeconds int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.Separator = getEnvOrDefault("TAGTREE_SEPARATOR", p.Separator)
	p.Secret = getEnvOrDefault("TAGTREE_SECRET", p.Secret)
	p.TokenTTLSeconds = getEnvOrDefaultInt("TAGTREE_TOKEN_TTL_SECONDS", p.TokenTTLSeconds)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Separator == "" {
		p.Separator = tagpath.DefaultSeparator
	}
	if p.TokenTTLSeconds <= 0 {
		p.TokenTTLSeconds = 3600
	}
	if p.Secret == "" {
		if p.Mode == "prod" {
			return errors.New("secret required in prod mode")
		}
		// Throwaway secret for dev/demo; issued tokens die with the process.
		p.Secret = p.Mode
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "tagtree")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/tagtree"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("tagtree_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	return nil
}
