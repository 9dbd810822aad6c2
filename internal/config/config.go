package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	NATS        NATSConfig        `yaml:"nats"`
	MinIO       MinIOConfig       `yaml:"minio"`
	Vision      VisionConfig      `yaml:"vision"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Switching   SwitchingConfig   `yaml:"switching"`
	Agent       AgentConfig       `yaml:"agent"`
	ASR         ASRConfig         `yaml:"asr"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	FramePort int    `yaml:"frame_port"`
	WSPort    int     `yaml:"ws_port"`
	AdminPort int    `yaml:"admin_port"`
	APIKey    string `yaml:"api_key"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL               string `yaml:"url"`
	InvalidateSubject string `yaml:"invalidate_subject"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type VisionConfig struct {
	ModelsDir          string  `yaml:"models_dir"`
	DetectionThreshold float64 `yaml:"detection_threshold"`
	IntraOpThreads     int     `yaml:"intra_op_threads"`
	InterOpThreads     int     `yaml:"inter_op_threads"`
}

// RecognitionConfig tunes the Recognition Worker (component B).
type RecognitionConfig struct {
	// MatchThreshold is the minimum cosine similarity for a gallery hit.
	// spec.md §9 resolves the source's two competing thresholds (0.2, 0.45)
	// in favor of the lower, WebSocket-path value.
	MatchThreshold float64       `yaml:"match_threshold"`
	GalleryTTL     time.Duration `yaml:"gallery_ttl"`
	QueueCapacity  int           `yaml:"queue_capacity"`
	MaxReadErrors  int           `yaml:"max_read_errors"`
	FrameReadTimeout time.Duration `yaml:"frame_read_timeout"`
}

// SwitchingConfig tunes the Switch Detector (component C).
type SwitchingConfig struct {
	DefaultFPS   float64 `yaml:"default_fps"`
	MinWindow    int     `yaml:"min_window"`
	MaxWindow    int     `yaml:"max_window"`
	FPSSamples   int     `yaml:"fps_samples"`
}

type AgentConfig struct {
	Provider        string        `yaml:"provider"`
	APIKey          string        `yaml:"api_key"`
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	RecapTimeout    time.Duration `yaml:"recap_timeout"`
	TavilyAPIKey    string        `yaml:"tavily_api_key"`
}

type ASRConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.FramePort == 0 {
		cfg.Server.FramePort = 9000
	}
	if cfg.Server.WSPort == 0 {
		cfg.Server.WSPort = 8080
	}
	if cfg.Server.AdminPort == 0 {
		cfg.Server.AdminPort = 8090
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 5
	}
	if cfg.NATS.InvalidateSubject == "" {
		cfg.NATS.InvalidateSubject = "gallery.invalidate"
	}
	if cfg.Vision.DetectionThreshold == 0 {
		cfg.Vision.DetectionThreshold = 0.5
	}
	if cfg.Recognition.MatchThreshold == 0 {
		cfg.Recognition.MatchThreshold = 0.2
	}
	if cfg.Recognition.GalleryTTL == 0 {
		cfg.Recognition.GalleryTTL = 5 * time.Second
	}
	if cfg.Recognition.QueueCapacity == 0 {
		cfg.Recognition.QueueCapacity = 2
	}
	if cfg.Recognition.MaxReadErrors == 0 {
		cfg.Recognition.MaxReadErrors = 10
	}
	if cfg.Recognition.FrameReadTimeout == 0 {
		cfg.Recognition.FrameReadTimeout = 5 * time.Second
	}
	if cfg.Switching.DefaultFPS == 0 {
		cfg.Switching.DefaultFPS = 10
	}
	if cfg.Switching.MinWindow == 0 {
		cfg.Switching.MinWindow = 5
	}
	if cfg.Switching.MaxWindow == 0 {
		cfg.Switching.MaxWindow = 30
	}
	if cfg.Switching.FPSSamples == 0 {
		cfg.Switching.FPSSamples = 30
	}
	if cfg.Agent.Model == "" {
		cfg.Agent.Model = "claude-sonnet-4-5"
	}
	if cfg.Agent.RecapTimeout == 0 {
		cfg.Agent.RecapTimeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GLASSCORE_FRAME_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.FramePort = n
		}
	}
	if v := os.Getenv("GLASSCORE_WS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.WSPort = n
		}
	}
	if v := os.Getenv("GLASSCORE_ADMIN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.AdminPort = n
		}
	}
	if v := os.Getenv("GLASSCORE_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("GLASSCORE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GLASSCORE_DB_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = n
		}
	}
	if v := os.Getenv("GLASSCORE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GLASSCORE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GLASSCORE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GLASSCORE_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("GLASSCORE_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("GLASSCORE_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("GLASSCORE_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("GLASSCORE_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("GLASSCORE_MODELS_DIR"); v != "" {
		cfg.Vision.ModelsDir = v
	}
	if v := os.Getenv("GLASSCORE_MATCH_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Recognition.MatchThreshold = f
		}
	}
	if v := os.Getenv("GLASSCORE_AGENT_API_KEY"); v != "" {
		cfg.Agent.APIKey = v
	}
	if v := os.Getenv("GLASSCORE_TAVILY_API_KEY"); v != "" {
		cfg.Agent.TavilyAPIKey = v
	}
}
