package stake

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestSecretRoundTrip(t *testing.T) {
	wallet := solana.NewWallet()
	got := secretToKey(keyToSecret(wallet.PrivateKey))
	if !got.PublicKey().Equals(wallet.PublicKey()) {
		t.Fatal("secret round trip changed the key")
	}
}

func TestLoadHouseKeyFromFile(t *testing.T) {
	t.Setenv("HOUSE_KEY_SECRET", "")
	path := filepath.Join(t.TempDir(), "house.json")
	wallet := solana.NewWallet()

	first, err := LoadHouseKey(path)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if first.PublicKey().Equals(wallet.PublicKey()) {
		t.Fatal("generated key should be fresh")
	}

	// A second load must return the persisted key, not a new one.
	second, err := LoadHouseKey(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !second.PublicKey().Equals(first.PublicKey()) {
		t.Fatal("reload should return the persisted key")
	}
}

func TestLoadHouseKeyFromEnv(t *testing.T) {
	wallet := solana.NewWallet()
	data, err := json.Marshal(keyToSecret(wallet.PrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOUSE_KEY_SECRET", string(data))

	got, err := LoadHouseKey(filepath.Join(t.TempDir(), "ignored.json"))
	if err != nil {
		t.Fatalf("load from env: %v", err)
	}
	if !got.PublicKey().Equals(wallet.PublicKey()) {
		t.Fatal("env key should win over file")
	}
}

func TestLoadHouseKeyRejectsGarbageEnv(t *testing.T) {
	t.Setenv("HOUSE_KEY_SECRET", "not json")
	if _, err := LoadHouseKey(filepath.Join(t.TempDir(), "house.json")); err == nil {
		t.Fatal("garbage env secret should error")
	}
}

func TestLoadHouseKeyRejectsGarbageFile(t *testing.T) {
	t.Setenv("HOUSE_KEY_SECRET", "")
	path := filepath.Join(t.TempDir(), "house.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHouseKey(path); err == nil {
		t.Fatal("garbage key file should error")
	}
}
