// Package disk implements the ability to read and write the chain to disk
// with every block in its own file.
package disk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
)

// Disk represents the storage implementation for reading and storing blocks
// in their own separate files on disk. This implements the ledger.Storage
// interface.
type Disk struct {
	dbPath string
}

// New constructs a Disk value for use, creating the directory if needed.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write stores every block in a file labeled with the block index. Block
// files past the end of the chain are removed.
func (d *Disk) Write(ctx context.Context, blocks []ledger.Block) error {
	for _, block := range blocks {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := d.writeBlock(block); err != nil {
			return fmt.Errorf("block %d: %w", block.Index, err)
		}
	}

	indexes, err := d.indexes()
	if err != nil {
		return err
	}

	for _, num := range indexes {
		if num < uint64(len(blocks)) {
			continue
		}
		if err := os.Remove(d.getPath(num)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	return nil
}

// Read returns every block file in index order. Blocks after a missing file
// are still returned, so validation fails at the gap. It returns
// ledger.ErrNoChain when the directory holds no block files.
func (d *Disk) Read(ctx context.Context) ([]ledger.Block, error) {
	var blocks []ledger.Block

	iter, err := d.ForEach()
	if err != nil {
		return nil, err
	}

	for !iter.Done() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		block, err := iter.Next()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if len(blocks) == 0 {
		return nil, ledger.ErrNoChain
	}

	return blocks, nil
}

// GetBlock searches the chain on disk to locate and return the contents of
// the specified block by index.
func (d *Disk) GetBlock(num uint64) (ledger.Block, error) {
	f, err := os.Open(d.getPath(num))
	if err != nil {
		return ledger.Block{}, err
	}
	defer f.Close()

	var block ledger.Block
	if err := json.NewDecoder(f).Decode(&block); err != nil {
		return ledger.Block{}, fmt.Errorf("%w: block %d: %w", ledger.ErrChainCorrupted, num, err)
	}

	if block.Trace == nil {
		block.Trace = []ledger.TraceEvent{}
	}

	// The payload was indented on write.
	var payload bytes.Buffer
	if err := json.Compact(&payload, block.Payload); err != nil {
		return ledger.Block{}, fmt.Errorf("%w: block %d: %w", ledger.ErrChainCorrupted, num, err)
	}
	block.Payload = payload.Bytes()

	return block, nil
}

// ForEach returns an iterator over the block files found on disk, lowest
// index first.
func (d *Disk) ForEach() (*Iterator, error) {
	indexes, err := d.indexes()
	if err != nil {
		return nil, err
	}

	return &Iterator{disk: d, indexes: indexes}, nil
}

// Reset removes every block file.
func (d *Disk) Reset() error {
	return d.Write(context.Background(), nil)
}

// writeBlock writes the block to a temporary file and renames it into
// place so a crash never leaves a half written block.
func (d *Disk) writeBlock(block ledger.Block) error {

	// Encode the block for writing to disk in a more human readable format.
	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(block); err != nil {
		return err
	}

	path := d.getPath(block.Index)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, data.Bytes(), 0600); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return filepath.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// indexes lists the block indexes that have a file on disk, sorted.
// Temporary files and anything else in the directory are ignored.
func (d *Disk) indexes() ([]uint64, error) {
	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}

	var indexes []uint64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}

		name, ok := strings.CutSuffix(e.Name(), ".json")
		if !ok {
			continue
		}

		num, err := strconv.ParseUint(name, 10, 64)
		if err != nil || strconv.FormatUint(num, 10) != name {
			continue
		}
		indexes = append(indexes, num)
	}

	slices.Sort(indexes)

	return indexes, nil
}

// =============================================================================

// Iterator walks the block files on disk in index order.
type Iterator struct {
	disk    *Disk
	indexes []uint64
	pos     int
}

// Next reads the next block file.
func (it *Iterator) Next() (ledger.Block, error) {
	if it.Done() {
		return ledger.Block{}, errors.New("end of chain")
	}

	num := it.indexes[it.pos]
	it.pos++

	return it.disk.GetBlock(num)
}

// Done reports whether every block file was read.
func (it *Iterator) Done() bool {
	return it.pos >= len(it.indexes)
}
