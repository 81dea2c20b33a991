package disk_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/disk"
)

func Test_Disk(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	strg, err := disk.New(dir)
	require.NoError(t, err)

	_, err = strg.Read(ctx)
	assert.ErrorIs(t, err, ledger.ErrNoChain)

	ch := ledger.New()
	ch.Reset()
	for _, n := range []string{"A", "B & Co", "C"} {
		_, err := ch.Append(map[string]any{"number": n, "iva": 19.5}, []ledger.TraceEvent{
			ledger.NewTraceEvent(time.Now(), "Received", "<"+n+">"),
		})
		require.NoError(t, err)
	}

	require.NoError(t, ch.Save(ctx, strg))

	blocks, err := strg.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, ch.Blocks(), blocks)
	assert.NoError(t, ledger.ValidateTraces(blocks))

	// Shrinking the chain removes the stale files.
	require.NoError(t, strg.Write(ctx, blocks[:2]))
	_, err = os.Stat(filepath.Join(dir, "3.json"))
	assert.True(t, os.IsNotExist(err))

	blocks, err = strg.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, blocks, 2)

	require.NoError(t, strg.Reset())
	_, err = strg.Read(ctx)
	assert.ErrorIs(t, err, ledger.ErrNoChain)
}

func Test_DiskCorruptFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	strg, err := disk.New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "0.json"), []byte("{not json"), 0600))

	_, err = strg.Read(ctx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrChainCorrupted)
}

func Test_DiskMissingBlock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	strg, err := disk.New(dir)
	require.NoError(t, err)

	ch := ledger.New()
	ch.Reset()
	for _, n := range []string{"A", "B", "C", "D"} {
		_, err := ch.Append(map[string]any{"number": n}, nil)
		require.NoError(t, err)
	}
	require.NoError(t, ch.Save(ctx, strg))

	require.NoError(t, os.Remove(filepath.Join(dir, "2.json")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0600))

	// The blocks after the gap are still read.
	blocks, err := strg.Read(ctx)
	require.NoError(t, err)
	require.Len(t, blocks, 4)
	assert.Equal(t, uint64(3), blocks[2].Index)

	ve := ledger.AsValidationError(ledger.Validate(blocks))
	require.NotNil(t, ve)
	assert.Equal(t, uint64(2), ve.Index)
	assert.Equal(t, ledger.ReasonLinkage, ve.Reason)

	loaded := ledger.New()
	assert.ErrorIs(t, loaded.Load(blocks), ledger.ErrChainCorrupted)

	for _, name := range []string{"0.json", "1.json", "3.json", "4.json"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func Test_DiskWriteRemovesPastGap(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	strg, err := disk.New(dir)
	require.NoError(t, err)

	ch := ledger.New()
	ch.Reset()
	_, err = ch.Append(map[string]any{"number": "A"}, nil)
	require.NoError(t, err)
	require.NoError(t, ch.Save(ctx, strg))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "7.json"), []byte("{}"), 0600))

	require.NoError(t, ch.Save(ctx, strg))

	_, err = os.Stat(filepath.Join(dir, "7.json"))
	assert.True(t, os.IsNotExist(err))

	blocks, err := strg.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, ch.Blocks(), blocks)
}
