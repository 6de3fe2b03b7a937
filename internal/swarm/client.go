package swarm

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/anacrolix/dht/v2"
	"github.com/anacrolix/dht/v2/bep44"
	tlog "github.com/anacrolix/log"
	"github.com/anacrolix/torrent"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/anacrolix/torrent/storage"

	"github.com/yorunoma/animestrem/internal/config"
)

// ClientConfig holds all components needed for client creation.
type ClientConfig struct {
	Storage         storage.ClientImpl
	ItemStore       bep44.Store
	PeerID          [20]byte
	PieceCompletion storage.PieceCompletion
}

// torrentLogHandler adapts slog for anacrolix/torrent's logger.
type torrentLogHandler struct {
	log *slog.Logger
}

func (h *torrentLogHandler) Handle(r tlog.Record) {
	level := slog.LevelDebug
	switch r.Level {
	case tlog.Critical, tlog.Error:
		level = slog.LevelError
	case tlog.Warning:
		level = slog.LevelWarn
	case tlog.Info:
		level = slog.LevelInfo
	case tlog.Debug:
		level = slog.LevelDebug
	}
	h.log.Log(nil, level, r.Msg.String())
}

// InitStorage creates the download storage layer. Torrent payloads are
// written as plain files under downloadsDir/<infohash>/ so that external
// tools can open them directly; piece completion state lives in a BoltDB
// under metadataFolder.
func InitStorage(metadataFolder, downloadsDir string) (storage.ClientImpl, storage.PieceCompletion, error) {
	if err := os.MkdirAll(downloadsDir, 0755); err != nil {
		return nil, nil, err
	}

	pcDir := filepath.Join(metadataFolder, "piece-completion")
	if err := os.MkdirAll(pcDir, 0755); err != nil {
		return nil, nil, err
	}

	pc, err := storage.NewBoltPieceCompletion(pcDir)
	if err != nil {
		return nil, nil, err
	}

	st := storage.NewFileOpts(storage.NewFileClientOpts{
		ClientBaseDir: downloadsDir,
		TorrentDirMaker: func(baseDir string, info *metainfo.Info, infoHash metainfo.Hash) string {
			return filepath.Join(baseDir, infoHash.HexString())
		},
		FilePathMaker: func(opts storage.FilePathMakerOpts) string {
			parts := opts.File.BestPath()
			if len(parts) == 0 {
				return opts.Info.BestName()
			}
			return filepath.Join(parts...)
		},
		PieceCompletion: pc,
	})

	slog.Info("swarm storage initialized",
		"downloads_dir", downloadsDir,
		"piece_completion_dir", pcDir,
	)

	return st, pc, nil
}

// NewClient creates a new torrent client with the given configuration.
func NewClient(cfg *config.TorrentConfig, cc *ClientConfig) (*torrent.Client, error) {
	log := slog.With("component", "swarm-client")

	torrentCfg := torrent.NewDefaultClientConfig()
	torrentCfg.Seed = true
	torrentCfg.PeerID = string(cc.PeerID[:])
	torrentCfg.DefaultStorage = cc.Storage

	// Disable IPv6 for simpler networking
	torrentCfg.DisableIPv6 = true

	// Configure logging
	tl := tlog.NewLogger()
	tl.SetHandlers(&torrentLogHandler{log: log})
	torrentCfg.Logger = tl

	// Configure DHT server with item store
	torrentCfg.ConfigureAnacrolixDhtServer = func(dhtCfg *dht.ServerConfig) {
		dhtCfg.Store = cc.ItemStore
		dhtCfg.Exp = 2 * time.Hour
		dhtCfg.NoSecurity = false
	}

	client, err := torrent.NewClient(torrentCfg)
	if err != nil {
		return nil, err
	}

	log.Info("swarm client created",
		"seeding", true,
		"ipv6_disabled", true,
	)

	return client, nil
}
