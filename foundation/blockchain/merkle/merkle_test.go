package merkle_test

import (
	"crypto/sha256"
	"errors"
	"strconv"
	"testing"

	"github.com/xlerion/ivachain/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type data string

func (d data) MerkleHash() ([]byte, error) {
	h := sha256.Sum256([]byte(d))
	return h[:], nil
}

type broken struct{}

func (broken) MerkleHash() ([]byte, error) {
	return nil, errors.New("no hash")
}

func values(n int) []data {
	vs := make([]data, n)
	for i := range vs {
		vs[i] = data(rune('a' + i))
	}
	return vs
}

// =============================================================================

func Test_Proofs(t *testing.T) {
	t.Log("Given the need to prove every leaf belongs to the tree.")
	{
		for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 13} {
			f := func(t *testing.T) {
				vs := values(n)

				tree, err := merkle.NewTree(vs)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to build the tree : %v", failed, n, err)
				}

				for i, v := range vs {
					proof, err := tree.Proof(i)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to get proof %d : %v", failed, n, i, err)
					}

					leaf, _ := v.MerkleHash()
					if err := merkle.Verify(leaf, proof, tree.RootHex()); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould verify leaf %d : %v", failed, n, i, err)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould verify every leaf.", success, n)

				other, _ := data("zz").MerkleHash()
				proof, _ := tree.Proof(0)
				if n > 1 {
					if err := merkle.Verify(other, proof, tree.RootHex()); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould reject a leaf not in the tree.", failed, n)
					}
					t.Logf("\t%s\tTest %d:\tShould reject a leaf not in the tree.", success, n)
				}
			}

			t.Run(strconv.Itoa(n), f)
		}
	}
}

func Test_Root(t *testing.T) {
	t.Log("Given the need to summarize the values in one root.")
	{
		testID := 0
		a, _ := merkle.NewTree(values(5))
		b, _ := merkle.NewTree(values(5))
		if a.RootHex() != b.RootHex() {
			t.Fatalf("\t%s\tTest %d:\tShould produce the same root for the same values.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould produce the same root for the same values.", success, testID)

		testID++
		vs := values(5)
		vs[3] = "x"
		c, _ := merkle.NewTree(vs)
		if a.RootHex() == c.RootHex() {
			t.Fatalf("\t%s\tTest %d:\tShould produce a different root when a value changes.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould produce a different root when a value changes.", success, testID)

		testID++
		if len(a.Values()) != 5 {
			t.Fatalf("\t%s\tTest %d:\tShould return the values : got %d", failed, testID, len(a.Values()))
		}
		t.Logf("\t%s\tTest %d:\tShould return the values.", success, testID)

		testID++
		if _, err := merkle.NewTree([]data{}); !errors.Is(err, merkle.ErrEmpty) {
			t.Fatalf("\t%s\tTest %d:\tShould reject an empty tree : %v", failed, testID, err)
		}
		if _, err := merkle.NewTree([]broken{{}}); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould surface a leaf hash error.", failed, testID)
		}
		if _, err := a.Proof(5); err == nil {
			t.Fatalf("\t%s\tTest %d:\tShould reject a proof out of range.", failed, testID)
		}
		t.Logf("\t%s\tTest %d:\tShould reject bad input.", success, testID)
	}
}
