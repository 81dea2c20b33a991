package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/disk"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/slot"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/sqlite"
	"github.com/xlerion/ivachain/foundation/kvstore"
)

// readChain loads the blocks from the source without validating them.
func readChain(ctx context.Context, kind string, path string, key string) ([]ledger.Block, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("source %s: %w", path, err)
	}

	if kind == "json" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ledger.Decode(data)
	}

	var strg ledger.Storage
	switch kind {
	case "disk":
		d, err := disk.New(path)
		if err != nil {
			return nil, err
		}
		strg = d

	case "leveldb":
		store, err := kvstore.NewLevelDB(path)
		if err != nil {
			return nil, err
		}
		strg = slot.New(store, key)

	case "sqlite":
		s, err := sqlite.OpenReadOnly(ctx, path)
		if err != nil {
			return nil, err
		}
		strg = s

	default:
		return nil, fmt.Errorf("unknown source %q", kind)
	}
	defer strg.Close()

	blocks, err := strg.Read(ctx)
	if err != nil {
		if errors.Is(err, ledger.ErrNoChain) {
			return []ledger.Block{}, nil
		}
		return nil, err
	}

	return blocks, nil
}
