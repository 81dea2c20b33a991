package nameservice_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xlerion/ivachain/foundation/blockchain/signature"
	"github.com/xlerion/ivachain/foundation/nameservice"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Lookup(t *testing.T) {
	root := t.TempDir()

	dian, err := signature.GenerateKey(filepath.Join(root, "dian.ecdsa"))
	if err != nil {
		t.Fatalf("Should be able to generate a key: %v", err)
	}

	treasury, err := signature.GenerateKey(filepath.Join(root, "nested", "treasury.ecdsa"))
	if err != nil {
		t.Fatalf("Should be able to generate a key: %v", err)
	}

	os.WriteFile(filepath.Join(root, "notes.txt"), []byte("ignored"), 0600)

	t.Log("Given the need to name the sealers found in a key folder.")
	{
		ns, err := nameservice.New(root)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build the name service : %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to build the name service.", success)

		tt := map[string]string{
			signature.Address(dian):                      "dian",
			signature.Address(treasury):                  "treasury",
			"0x0000000000000000000000000000000000000001": "0x0000000000000000000000000000000000000001",
		}
		for address, name := range tt {
			if got := ns.Lookup(address); got != name {
				t.Fatalf("\t%s\tShould name %s %q : got %q", failed, address, name, got)
			}
			t.Logf("\t%s\tShould name %s %q.", success, address, name)
		}

		if n := len(ns.Copy()); n != 2 {
			t.Fatalf("\t%s\tShould know 2 sealers : got %d", failed, n)
		}
		t.Logf("\t%s\tShould know 2 sealers.", success)
	}
}
