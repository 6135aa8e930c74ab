package internal

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	BackendDisk   = "disk"
	BackendBadger = "badger"
	BackendMinio  = "minio"
)

type Config struct {
	Host            string        `env:"HOST,default=0.0.0.0" validate:"required"`
	Port            int           `env:"PORT,default=1234" validate:"min=0,max=65535"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	OutboxSize      int           `env:"OUTBOX_SIZE,default=256" validate:"min=1"`
	MaxTransferSize int64         `env:"MAX_TRANSFER_SIZE,default=104857600" validate:"min=0"`
	StorageBackend  string        `env:"STORAGE_BACKEND,default=disk" validate:"oneof=disk badger minio"`
	StorageDir      string        `env:"STORAGE_DIR,default=." validate:"required_if=StorageBackend disk"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,default=./data/blobs" validate:"required_if=StorageBackend badger"`
	MinioEndpoint   string        `env:"MINIO_ENDPOINT" validate:"required_if=StorageBackend minio"`
	MinioAccessKey  string        `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey  string        `env:"MINIO_SECRET_KEY"`
	MinioBucket     string        `env:"MINIO_BUCKET,default=chat-relay" validate:"required_if=StorageBackend minio"`
	MinioUseSSL     bool          `env:"MINIO_USE_SSL,default=false"`
	ModerationWords string        `env:"MODERATION_WORDS"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
	StatsInterval   time.Duration `env:"STATS_INTERVAL,default=1m" validate:"gt=0"`
	DebugPort       int           `env:"DEBUG_PORT,default=0" validate:"min=0,max=65535"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms" validate:"gte=0"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Words splits MODERATION_WORDS; an empty list disables moderation.
func (c Config) Words() []string {
	words := lo.Map(strings.Split(c.ModerationWords, ","), func(w string, _ int) string {
		return strings.TrimSpace(w)
	})
	return lo.Compact(words)
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
