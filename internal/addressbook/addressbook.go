// Package addressbook persists the deployed component addresses by name.
package addressbook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Book maps component names to addresses.
type Book map[string]common.Address

// Set records name. Names are case-insensitive and stored lower case.
func (b Book) Set(name string, addr common.Address) {
	b[normalize(name)] = addr
}

func (b Book) Get(name string) (common.Address, bool) {
	addr, ok := b[normalize(name)]
	return addr, ok
}

// Lookup resolves a name or a hex address.
func (b Book) Lookup(ref string) (common.Address, error) {
	ref = strings.TrimSpace(ref)
	if common.IsHexAddress(ref) {
		return common.HexToAddress(ref), nil
	}
	if addr, ok := b.Get(ref); ok {
		return addr, nil
	}
	return common.Address{}, fmt.Errorf("unknown address %q", ref)
}

// Names returns the recorded names in sorted order.
func (b Book) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Load reads a book from path. A missing file yields an empty book.
func Load(path string) (Book, error) {
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Book{}, nil
		}
		return nil, fmt.Errorf("stat address book: %w", err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("address book path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read address book: %w", err)
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse address book: %w", err)
	}
	book := make(Book, len(raw))
	for name, hex := range raw {
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("address book entry %s: invalid address %q", name, hex)
		}
		book.Set(name, common.HexToAddress(hex))
	}
	return book, nil
}

// Save writes the book to path atomically.
func (b Book) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create address book dir: %w", err)
		}
	}

	raw := make(map[string]string, len(b))
	for name, addr := range b {
		raw[name] = addr.Hex()
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal address book: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write address book tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename address book: %w", err)
	}
	return nil
}
