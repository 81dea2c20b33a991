package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/xlerion/ivachain/foundation/blockchain/ledger"
	"github.com/xlerion/ivachain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type invoice struct {
	Number      string  `json:"number"`
	CompanyNIT  string  `json:"companyNit"`
	CompanyName string  `json:"companyName"`
	Subtotal    float64 `json:"subtotal"`
	IVA         float64 `json:"iva"`
}

// seed returns a chain with genesis plus the invoices A, B and C.
func seed(t *testing.T) *ledger.Chain {
	t.Helper()

	ch := ledger.New()
	ch.Reset()

	for _, n := range []string{"A", "B", "C"} {
		inv := invoice{Number: n, CompanyNIT: "900123456", CompanyName: "ACME", Subtotal: 100, IVA: 19}
		if _, err := ch.Append(inv, nil); err != nil {
			t.Fatalf("\t%s\tShould be able to append invoice %s: %v", failed, n, err)
		}
	}

	return ch
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to create the genesis block.")
	{
		g := ledger.Genesis(time.Now())

		if g.PreviousHash != ledger.GenesisPreviousHash {
			t.Fatalf("\t%s\tShould have previous hash %q: got %q", failed, ledger.GenesisPreviousHash, g.PreviousHash)
		}
		t.Logf("\t%s\tShould have previous hash %q.", success, ledger.GenesisPreviousHash)

		if g.Hash != g.ComputeHash() || len(g.Hash) != 64 {
			t.Fatalf("\t%s\tShould be sealed with a 64 char digest: got %q", failed, g.Hash)
		}
		t.Logf("\t%s\tShould be sealed with a 64 char digest.", success)

		var payload string
		if err := g.Decode(&payload); err != nil || payload != ledger.GenesisPayload {
			t.Fatalf("\t%s\tShould carry the sentinel payload: got %q, %v", failed, payload, err)
		}
		t.Logf("\t%s\tShould carry the sentinel payload.", success)

		if !ledger.IsValid([]ledger.Block{g}) {
			t.Fatalf("\t%s\tShould be a valid chain on its own.", failed)
		}
		t.Logf("\t%s\tShould be a valid chain on its own.", success)

		if !ledger.IsValid(nil) {
			t.Fatalf("\t%s\tShould treat an empty chain as valid.", failed)
		}
		t.Logf("\t%s\tShould treat an empty chain as valid.", success)
	}
}

func Test_Append(t *testing.T) {
	t.Log("Given the need to append three invoices to a chain.")
	{
		ch := seed(t)
		blocks := ch.Blocks()

		if len(blocks) != 4 {
			t.Fatalf("\t%s\tShould have 4 blocks including genesis: got %d", failed, len(blocks))
		}
		t.Logf("\t%s\tShould have 4 blocks including genesis.", success)

		if blocks[3].PreviousHash != blocks[2].Hash {
			t.Fatalf("\t%s\tShould link block 3 to block 2.", failed)
		}
		t.Logf("\t%s\tShould link block 3 to block 2.", success)

		for i, b := range blocks {
			if b.Index != uint64(i) {
				t.Fatalf("\t%s\tShould have sequential indexes: got %d at %d", failed, b.Index, i)
			}
		}
		t.Logf("\t%s\tShould have sequential indexes.", success)

		if !ch.IsValid() {
			t.Fatalf("\t%s\tShould be a valid chain: %v", failed, ch.Validate())
		}
		t.Logf("\t%s\tShould be a valid chain.", success)

		latest, err := ch.Latest()
		if err != nil || latest.Hash != blocks[3].Hash {
			t.Fatalf("\t%s\tShould return the last block as latest: %v", failed, err)
		}
		t.Logf("\t%s\tShould return the last block as latest.", success)
	}
}

func Test_AppendEmpty(t *testing.T) {
	t.Log("Given the need to work with an uninitialized chain.")
	{
		ch := ledger.New()

		if _, err := ch.Latest(); !errors.Is(err, ledger.ErrEmptyChain) {
			t.Fatalf("\t%s\tShould get ErrEmptyChain from latest: got %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrEmptyChain from latest.", success)

		b, err := ch.Append(invoice{Number: "A"}, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to append: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to append.", success)

		if b.Index != 1 || ch.Len() != 2 {
			t.Fatalf("\t%s\tShould create genesis first: index %d, len %d", failed, b.Index, ch.Len())
		}
		t.Logf("\t%s\tShould create genesis first.", success)

		if _, err := ch.Append(json.RawMessage(`{"a":`), nil); err == nil {
			t.Fatalf("\t%s\tShould reject a payload that is not JSON.", failed)
		}
		if ch.Len() != 2 {
			t.Fatalf("\t%s\tShould not grow on a rejected payload: len %d", failed, ch.Len())
		}
		t.Logf("\t%s\tShould reject a payload that is not JSON.", success)
	}
}

func Test_Tamper(t *testing.T) {
	type table struct {
		name   string
		mutate func(blocks []ledger.Block) []ledger.Block
		index  uint64
		reason string
	}

	tt := []table{
		{
			name: "payload",
			mutate: func(blocks []ledger.Block) []ledger.Block {
				blocks[2].Payload = json.RawMessage(`{"number":"B","iva":0}`)
				return blocks
			},
			index:  2,
			reason: ledger.ReasonHash,
		},
		{
			name: "previous-hash",
			mutate: func(blocks []ledger.Block) []ledger.Block {
				blocks[3].PreviousHash = blocks[1].Hash
				return blocks
			},
			index:  3,
			reason: ledger.ReasonHash,
		},
		{
			name: "relinked",
			mutate: func(blocks []ledger.Block) []ledger.Block {
				blocks[3].PreviousHash = blocks[1].Hash
				blocks[3] = blocks[3].Seal()
				return blocks
			},
			index:  3,
			reason: ledger.ReasonLinkage,
		},
		{
			name: "gap",
			mutate: func(blocks []ledger.Block) []ledger.Block {
				return append(blocks[:2], blocks[3:]...)
			},
			index:  2,
			reason: ledger.ReasonLinkage,
		},
		{
			name: "reorder",
			mutate: func(blocks []ledger.Block) []ledger.Block {
				blocks[2], blocks[3] = blocks[3], blocks[2]
				return blocks
			},
			index:  2,
			reason: ledger.ReasonLinkage,
		},
		{
			name: "genesis",
			mutate: func(blocks []ledger.Block) []ledger.Block {
				blocks[0].PreviousHash = "1"
				blocks[0] = blocks[0].Seal()
				return blocks
			},
			index:  0,
			reason: ledger.ReasonGenesis,
		},
	}

	t.Log("Given the need to detect tampering in a chain.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s mutation.", testID, tst.name)
			{
				f := func(t *testing.T) {
					blocks := tst.mutate(seed(t).Blocks())

					if ledger.IsValid(blocks) {
						t.Fatalf("\t%s\tTest %d:\tShould detect the mutation.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould detect the mutation.", success, testID)

					ve := ledger.AsValidationError(ledger.Validate(blocks))
					if ve == nil {
						t.Fatalf("\t%s\tTest %d:\tShould get a validation error.", failed, testID)
					}

					if ve.Index != tst.index || ve.Reason != tst.reason {
						t.Logf("\t%s\tTest %d:\tgot: %d %s", failed, testID, ve.Index, ve.Reason)
						t.Logf("\t%s\tTest %d:\texp: %d %s", failed, testID, tst.index, tst.reason)
						t.Fatalf("\t%s\tTest %d:\tShould attribute the failure to the right block.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould attribute the failure to the right block.", success, testID)

					ch := ledger.New()
					err := ch.Load(blocks)
					if !errors.Is(err, ledger.ErrChainCorrupted) {
						t.Fatalf("\t%s\tTest %d:\tShould refuse to load the chain: %v", failed, testID, err)
					}
					if ch.Len() != 0 {
						t.Fatalf("\t%s\tTest %d:\tShould leave the chain untouched.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould refuse to load the chain.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_RoundTrip(t *testing.T) {
	t.Log("Given the need to save and load a chain.")
	{
		ctx := context.Background()
		ch := seed(t)

		if _, err := ch.AddTrace(1, ledger.NewTraceEvent(time.Now(), "Sealed", "block 1")); err != nil {
			t.Fatalf("\t%s\tShould be able to add a trace event: %v", failed, err)
		}

		strg, _ := memory.New()
		if err := ch.Save(ctx, strg); err != nil {
			t.Fatalf("\t%s\tShould be able to save the chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to save the chain.", success)

		data, err := ledger.Encode(ch.Blocks())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to encode the chain: %v", failed, err)
		}

		decoded, err := ledger.Decode(data)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to decode the chain: %v", failed, err)
		}

		loaded := ledger.New()
		if err := loaded.Load(decoded); err != nil {
			t.Fatalf("\t%s\tShould be able to load the decoded chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the decoded chain.", success)

		if !reflect.DeepEqual(loaded.Blocks(), ch.Blocks()) {
			t.Fatalf("\t%s\tShould reproduce an equal chain.", failed)
		}
		t.Logf("\t%s\tShould reproduce an equal chain.", success)

		stored, err := strg.Read(ctx)
		if err != nil || !reflect.DeepEqual(stored, ch.Blocks()) {
			t.Fatalf("\t%s\tShould read back what was saved: %v", failed, err)
		}
		t.Logf("\t%s\tShould read back what was saved.", success)
	}
}

func Test_CanonicalPayload(t *testing.T) {
	t.Log("Given the need for a hash that doesn't depend on key order.")
	{
		a := ledger.NewBlock(1, "2024-01-01T00:00:00.000Z", json.RawMessage(`{"b":2,"a":1}`), "x", nil).Seal()
		b := ledger.NewBlock(1, "2024-01-01T00:00:00.000Z", json.RawMessage(`{ "a": 1, "b": 2 }`), "x", nil).Seal()

		if a.Hash != b.Hash {
			t.Fatalf("\t%s\tShould get the same hash for reordered keys.", failed)
		}
		t.Logf("\t%s\tShould get the same hash for reordered keys.", success)

		c := ledger.NewBlock(2, "2024-01-01T00:00:00.000Z", json.RawMessage(`{"b":2,"a":1}`), "x", nil).Seal()
		if a.Hash == c.Hash {
			t.Fatalf("\t%s\tShould get a different hash for a different index.", failed)
		}
		t.Logf("\t%s\tShould get a different hash for a different index.", success)
	}
}

func Test_Trace(t *testing.T) {
	t.Log("Given the need to commit trace events.")
	{
		now := time.Now()
		ch := ledger.New()
		ch.Reset()

		initial := []ledger.TraceEvent{
			ledger.NewTraceEvent(now, "Received", "invoice A received"),
			ledger.NewTraceEvent(now, "Validating", "invoice A validating"),
		}

		b, err := ch.Append(invoice{Number: "A"}, initial)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to append: %v", failed, err)
		}

		if initial[0].Hash != "" {
			t.Fatalf("\t%s\tShould not modify the caller's trace.", failed)
		}
		t.Logf("\t%s\tShould not modify the caller's trace.", success)

		b, err = ch.AddTrace(b.Index, ledger.NewTraceEvent(now, "Sealed", "sealed"))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to add a trace event: %v", failed, err)
		}

		if len(b.Trace) != 3 || b.VerifyTrace() != nil {
			t.Fatalf("\t%s\tShould have 3 committed events: %d, %v", failed, len(b.Trace), b.VerifyTrace())
		}
		t.Logf("\t%s\tShould have 3 committed events.", success)

		if _, err := ch.AddTrace(99, ledger.NewTraceEvent(now, "X", "")); !errors.Is(err, ledger.ErrBlockNotFound) {
			t.Fatalf("\t%s\tShould get ErrBlockNotFound for an unknown index: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrBlockNotFound for an unknown index.", success)

		blocks := ch.Blocks()
		blocks[1].Trace[1].Details = "rewritten"

		if !ledger.IsValid(blocks) {
			t.Fatalf("\t%s\tShould keep the chain valid since trace isn't hashed.", failed)
		}
		t.Logf("\t%s\tShould keep the chain valid since trace isn't hashed.", success)

		ve := ledger.AsValidationError(ledger.ValidateTraces(blocks))
		if ve == nil || ve.Index != 1 {
			t.Fatalf("\t%s\tShould detect the rewritten trace event: %v", failed, ve)
		}
		t.Logf("\t%s\tShould detect the rewritten trace event.", success)
	}
}
