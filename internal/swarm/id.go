package swarm

import (
	"crypto/rand"
	"os"
)

var emptyPeerID [20]byte

// GetOrCreatePeerID returns the client's 20-byte swarm identity, minting and
// persisting a random one under the metadata folder on first run. A stable
// peer ID keeps the client recognizable to trackers and peers across
// restarts.
func GetOrCreatePeerID(path string) ([20]byte, error) {
	idb, err := os.ReadFile(path)
	if err == nil && len(idb) >= 20 {
		var out [20]byte
		copy(out[:], idb)
		return out, nil
	}

	if err != nil && !os.IsNotExist(err) {
		return emptyPeerID, err
	}

	var out [20]byte
	if _, err := rand.Read(out[:]); err != nil {
		return emptyPeerID, err
	}

	if err := os.WriteFile(path, out[:], 0644); err != nil {
		return emptyPeerID, err
	}

	return out, nil
}
