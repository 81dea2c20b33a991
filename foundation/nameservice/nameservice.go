// Package nameservice reads a folder of sealer keys and creates a name
// service lookup for the sealer addresses.
package nameservice

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/xlerion/ivachain/foundation/blockchain/signature"
)

const keyExtension = ".ecdsa"

// NameService maintains a map of sealer addresses for name lookup.
type NameService struct {
	sealers map[string]string
}

// New constructs a name service from the key files found under root. The
// name of a sealer is its key file name without the extension.
func New(root string) (*NameService, error) {
	ns := NameService{
		sealers: make(map[string]string),
	}

	fn := func(fileName string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if d.IsDir() || filepath.Ext(fileName) != keyExtension {
			return nil
		}

		privateKey, err := signature.LoadKey(fileName, false)
		if err != nil {
			return err
		}

		address := strings.ToLower(signature.Address(privateKey))
		ns.sealers[address] = strings.TrimSuffix(filepath.Base(fileName), keyExtension)

		return nil
	}

	if err := filepath.WalkDir(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address, or the address itself
// when the sealer is unknown.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.sealers[strings.ToLower(address)]
	if !exists {
		return address
	}
	return name
}

// Copy returns a copy of the map of addresses and names.
func (ns *NameService) Copy() map[string]string {
	cpy := make(map[string]string, len(ns.sealers))
	for address, name := range ns.sealers {
		cpy[address] = name
	}
	return cpy
}
