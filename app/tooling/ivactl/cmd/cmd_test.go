package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/state"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/disk"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/memory"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/sqlite"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func chain(t *testing.T) []ledger.Block {
	t.Helper()

	ch := ledger.New()
	ch.Reset()

	for _, n := range []string{"FV-1", "FV-2", "FV-3"} {
		if _, err := ch.Append(map[string]any{"number": n, "iva": 19}, nil); err != nil {
			t.Fatalf("Should be able to append %s: %v", n, err)
		}
	}

	return ch.Blocks()
}

func Test_ReadAndReport(t *testing.T) {
	blocks := chain(t)
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "ledger.json")
	data, err := ledger.Encode(blocks)
	if err != nil {
		t.Fatalf("Should be able to encode the chain: %v", err)
	}
	if err := os.WriteFile(jsonPath, data, 0600); err != nil {
		t.Fatalf("Should be able to write the chain: %v", err)
	}

	diskPath := filepath.Join(dir, "blocks")
	d, err := disk.New(diskPath)
	if err != nil {
		t.Fatalf("Should be able to open disk storage: %v", err)
	}
	if err := d.Write(context.Background(), blocks); err != nil {
		t.Fatalf("Should be able to write the chain to disk: %v", err)
	}

	tt := []struct {
		kind string
		path string
	}{
		{"json", jsonPath},
		{"disk", diskPath},
	}

	t.Log("Given the need to validate a persisted chain.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got, err := readChain(context.Background(), tst.kind, tst.path, "")
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to read the chain : %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to read the chain.", success, testID)

				if err := report(got, true); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould report a valid chain : %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould report a valid chain.", success, testID)

				got[2].Payload = json.RawMessage(`{"number":"FV-2","iva":0}`)
				err = report(got, false)
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("\t%s\tTest %d:\tShould report an invalid chain : %v", failed, testID, err)
				}
				if ve := ledger.AsValidationError(err); ve == nil || ve.Index != 2 {
					t.Fatalf("\t%s\tTest %d:\tShould point at block 2 : %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould report block 2 as the first bad block.", success, testID)
			}

			t.Run(tst.kind, f)
		}
	}
}

func Test_ReadMissingBlock(t *testing.T) {
	blocks := chain(t)
	dir := t.TempDir()

	d, err := disk.New(dir)
	if err != nil {
		t.Fatalf("Should be able to open disk storage: %v", err)
	}
	if err := d.Write(context.Background(), blocks); err != nil {
		t.Fatalf("Should be able to write the chain to disk: %v", err)
	}

	t.Log("Given the need to catch a block file removed from the middle of the chain.")
	{
		testID := 0
		if err := os.Remove(filepath.Join(dir, "2.json")); err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould be able to remove block 2 : %v", failed, testID, err)
		}

		got, err := readChain(context.Background(), "disk", dir, "")
		if err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould still read the remaining blocks : %v", failed, testID, err)
		}
		if len(got) != 3 {
			t.Fatalf("\t%s\tTest %d:\tShould read the blocks past the gap : got %d", failed, testID, len(got))
		}
		t.Logf("\t%s\tTest %d:\tShould read the blocks past the gap.", success, testID)

		err = report(got, false)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("\t%s\tTest %d:\tShould report an invalid chain : %v", failed, testID, err)
		}
		if ve := ledger.AsValidationError(err); ve == nil || ve.Index != 2 || ve.Reason != ledger.ReasonLinkage {
			t.Fatalf("\t%s\tTest %d:\tShould report a broken link at 2 : %v", failed, testID, err)
		}
		t.Logf("\t%s\tTest %d:\tShould report a broken link at 2.", success, testID)
	}
}

func Test_ReadSQLiteReadOnly(t *testing.T) {
	blocks := chain(t)
	path := filepath.Join(t.TempDir(), "ledger.db")

	strg, err := sqlite.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Should be able to open sqlite storage: %v", err)
	}
	if err := strg.Write(context.Background(), blocks); err != nil {
		t.Fatalf("Should be able to write the chain to sqlite: %v", err)
	}
	strg.Close()

	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Should be able to read the database file: %v", err)
	}

	t.Log("Given the need to inspect a sqlite ledger without changing it.")
	{
		testID := 0
		got, err := readChain(context.Background(), "sqlite", path, "")
		if err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould be able to read the chain : %v", failed, testID, err)
		}
		if err := report(got, true); err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould report a valid chain : %v", failed, testID, err)
		}
		t.Logf("\t%s\tTest %d:\tShould report a valid chain.", success, testID)

		after, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("\t%s\tTest %d:\tShould be able to read the database file : %v", failed, testID, err)
		}
		if !bytes.Equal(before, after) {
			t.Fatalf("\t%s\tTest %d:\tShould leave the database file untouched.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould leave the database file untouched.", success, testID)

		testID++
		missing := filepath.Join(t.TempDir(), "missing.db")
		if _, err := readChain(context.Background(), "sqlite", missing, ""); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould fail on a missing database.", failed, testID)
		}
		if _, err := os.Stat(missing); !os.IsNotExist(err) {
			t.Fatalf("\t%s\tTest %d:\tShould not create the missing database.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould not create the missing database.", success, testID)
	}
}

func Test_ReadErrors(t *testing.T) {
	t.Log("Given the need to reject unusable sources.")
	{
		testID := 0
		if _, err := readChain(context.Background(), "json", filepath.Join(t.TempDir(), "missing.json"), ""); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould fail on a missing file.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould fail on a missing file.", success, testID)

		testID++
		if _, err := readChain(context.Background(), "tape", t.TempDir(), ""); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould fail on an unknown source.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould fail on an unknown source.", success, testID)

		testID++
		bad := filepath.Join(t.TempDir(), "bad.json")
		os.WriteFile(bad, []byte("{not json"), 0600)
		if _, err := readChain(context.Background(), "json", bad, ""); !errors.Is(err, ledger.ErrChainCorrupted) {
			t.Fatalf("\t%s\tTest %d:\tShould report unparseable data as corrupted : %v", failed, testID, err)
		}
		t.Logf("\t%s\tTest %d:\tShould report unparseable data as corrupted.", success, testID)
	}
}

func Test_VerifyReceipt(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %v", err)
	}

	strg, _ := memory.New()
	st, err := state.New(context.Background(), state.Config{Storage: strg, SealerKey: key})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %v", err)
	}
	defer st.Shutdown()

	rct, err := st.Receipt(0)
	if err != nil {
		t.Fatalf("Should be able to sign a receipt: %v", err)
	}
	data, _ := json.Marshal(rct)

	t.Log("Given the need to verify a receipt offline.")
	{
		testID := 0
		addr, err := verifyReceipt(data, st.SealerAddress())
		if err != nil || addr != st.SealerAddress() {
			t.Fatalf("\t%s\tTest %d:\tShould recover the sealer : %s %v", failed, testID, addr, err)
		}
		t.Logf("\t%s\tTest %d:\tShould recover the sealer.", success, testID)

		testID++
		if _, err := verifyReceipt(data, "0x0000000000000000000000000000000000000001"); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould reject a different sealer.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould reject a different sealer.", success, testID)

		testID++
		rct.Hash = "forged"
		data, _ = json.Marshal(rct)
		if addr, err := verifyReceipt(data, st.SealerAddress()); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould not accept a forged hash : got %s", failed, testID, addr)
		}
		t.Logf("\t%s\tTest %d:\tShould not accept a forged hash.", success, testID)
	}
}
