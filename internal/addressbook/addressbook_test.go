package addressbook

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy", "addresses.json")

	missing, err := Load(path)
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing file should load empty: %v %v", missing, err)
	}

	book := Book{}
	book.Set("Dispatcher", common.HexToAddress("0x01"))
	book.Set(" v1.FeeManager ", common.HexToAddress("0x02"))
	if err := book.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, book) {
		t.Fatalf("round trip: got %v want %v", loaded, book)
	}
	if got := loaded.Names(); !reflect.DeepEqual(got, []string{"dispatcher", "v1.feemanager"}) {
		t.Fatalf("names: %v", got)
	}
}

func TestLookup(t *testing.T) {
	book := Book{}
	book.Set("alice", common.HexToAddress("0xa11ce"))

	if addr, err := book.Lookup("ALICE"); err != nil || addr != common.HexToAddress("0xa11ce") {
		t.Fatalf("lookup by name: %s %v", addr.Hex(), err)
	}
	hex := "0x00000000000000000000000000000000000000b0"
	if addr, err := book.Lookup(hex); err != nil || addr != common.HexToAddress(hex) {
		t.Fatalf("lookup by hex: %s %v", addr.Hex(), err)
	}
	if _, err := book.Lookup("bob"); err == nil {
		t.Fatalf("unknown name should fail")
	}
}

func TestLoadRejectsBadAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "addresses.json")
	if err := os.WriteFile(path, []byte(`{"x":"nope"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("invalid address should fail")
	}
}
