package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Torrent   TorrentConfig   `yaml:"torrent"`
	Indexers  IndexersConfig  `yaml:"indexers"`
	Subtitles SubtitlesConfig `yaml:"subtitles"`
}

type ServerConfig struct {
	HTTPPort    int `yaml:"http_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type TorrentConfig struct {
	MetadataFolder  string `yaml:"metadata_folder"`
	DownloadsFolder string `yaml:"downloads_folder"`
	AddTimeout      int    `yaml:"add_timeout"`   // seconds
	ReadyTimeout    int    `yaml:"ready_timeout"` // seconds
	ItemsTTL        int    `yaml:"items_ttl"`     // hours, DHT item store
}

type IndexersConfig struct {
	NyaaURL        string `yaml:"nyaa_url"`
	NyaaTimeout    int    `yaml:"nyaa_timeout"` // seconds
	TorznabURL     string `yaml:"torznab_url"`
	TorznabAPIKey  string `yaml:"torznab_api_key"`
	TorznabTimeout int    `yaml:"torznab_timeout"` // seconds
}

type SubtitlesConfig struct {
	CacheDir    string `yaml:"cache_dir"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
}

// DefaultConfig returns configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:    3000,
			MetricsPort: 9090,
		},
		Torrent: TorrentConfig{
			MetadataFolder:  "./data/torrents",
			DownloadsFolder: "./data/downloads",
			AddTimeout:      60,
			ReadyTimeout:    15,
			ItemsTTL:        24,
		},
		Indexers: IndexersConfig{
			NyaaURL:        "https://nyaa.si",
			NyaaTimeout:    6,
			TorznabTimeout: 15,
		},
		Subtitles: SubtitlesConfig{
			CacheDir: "./data/subs",
		},
	}
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Environment override for the one secret that should not live on disk.
	if key := os.Getenv("ANIMESTREM_TORZNAB_API_KEY"); key != "" {
		cfg.Indexers.TorznabAPIKey = key
	}

	return cfg, nil
}

// EnsureDirectories creates required directories
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Torrent.MetadataFolder,
		c.Torrent.DownloadsFolder,
		c.Subtitles.CacheDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// PeerIDPath is where the persistent BitTorrent peer identity lives.
func (c *Config) PeerIDPath() string {
	return filepath.Join(c.Torrent.MetadataFolder, "peer-id")
}

// ItemStorePath is the Badger database directory for DHT items.
func (c *Config) ItemStorePath() string {
	return filepath.Join(c.Torrent.MetadataFolder, "dht-items")
}
