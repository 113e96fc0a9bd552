package stake

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// Verification polls the ledger for up to verifyAttempts * verifyWait.
	verifyAttempts = 20
	verifyWait     = 2 * time.Second
)

// SolanaGateway verifies entry-fee transactions and pays out winners from the
// house wallet over JSON-RPC.
type SolanaGateway struct {
	client *rpc.Client
	house  solana.PrivateKey
	clock  clockwork.Clock
}

// NewSolanaGateway creates a gateway against the given RPC endpoint.
func NewSolanaGateway(rpcURL string, house solana.PrivateKey) *SolanaGateway {
	return &SolanaGateway{
		client: rpc.New(rpcURL),
		house:  house,
		clock:  clockwork.NewRealClock(),
	}
}

// HousePublicKey returns the wallet that receives entry fees and funds
// payouts.
func (g *SolanaGateway) HousePublicKey() solana.PublicKey {
	return g.house.PublicKey()
}

// Verify polls for the entry transaction until it is confirmed, errored, or
// the retry budget runs out. A transaction that exists with an error status
// fails immediately; one that never appears fails after the budget. The
// payer is recorded for auditing; amount and source verification stay with
// the ledger-side program.
func (g *SolanaGateway) Verify(ctx context.Context, signature, payer string) (bool, error) {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return false, fmt.Errorf("invalid transaction signature: %w", err)
	}

	maxVersion := uint64(0)
	for attempt := 1; attempt <= verifyAttempts; attempt++ {
		out, err := g.client.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxVersion,
		})
		switch {
		case err != nil || out == nil:
			log.Debug().
				Int("attempt", attempt).
				Str("signature", signature).
				Str("payer", payer).
				Msg("stake transaction not found yet")
		case out.Meta != nil && out.Meta.Err != nil:
			log.Warn().
				Str("signature", signature).
				Interface("tx_err", out.Meta.Err).
				Msg("stake transaction failed on chain")
			return false, nil
		default:
			log.Info().
				Str("signature", signature).
				Str("payer", payer).
				Int("attempt", attempt).
				Msg("stake transaction verified")
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-g.clock.After(verifyWait):
		}
	}

	log.Warn().Str("signature", signature).Msg("stake verification timed out")
	return false, nil
}

// Payout transfers lamports from the house wallet to destination and returns
// the transaction signature.
func (g *SolanaGateway) Payout(ctx context.Context, destination string, lamports uint64) (string, error) {
	dest, err := solana.PublicKeyFromBase58(destination)
	if err != nil {
		return "", fmt.Errorf("invalid payout destination: %w", err)
	}

	recent, err := g.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to fetch blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(lamports, g.house.PublicKey(), dest).Build(),
		},
		recent.Value.Blockhash,
		solana.TransactionPayer(g.house.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to build payout transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(g.house.PublicKey()) {
			return &g.house
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("failed to sign payout transaction: %w", err)
	}

	sig, err := g.client.SendTransaction(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("failed to send payout transaction: %w", err)
	}

	log.Info().
		Str("destination", destination).
		Uint64("lamports", lamports).
		Str("signature", sig.String()).
		Msg("payout sent")
	return sig.String(), nil
}

const houseKeyFile = "house_key.json"

// The key file and HOUSE_KEY_SECRET both use the standard Solana CLI format:
// a JSON array of byte values.
type houseKeyData struct {
	Secret []int `json:"secret"`
}

func secretToKey(secret []int) solana.PrivateKey {
	raw := make([]byte, len(secret))
	for i, v := range secret {
		raw[i] = byte(v)
	}
	return solana.PrivateKey(raw)
}

func keyToSecret(key solana.PrivateKey) []int {
	secret := make([]int, len(key))
	for i, b := range key {
		secret[i] = int(b)
	}
	return secret
}

// LoadHouseKey resolves the house wallet, in order: the HOUSE_KEY_SECRET env
// var (JSON byte array), the key file at path, or a freshly generated keypair
// persisted best-effort to the key file. An empty path uses the default file.
func LoadHouseKey(path string) (solana.PrivateKey, error) {
	if path == "" {
		path = houseKeyFile
	}

	if secret := os.Getenv("HOUSE_KEY_SECRET"); secret != "" {
		var raw []int
		if err := json.Unmarshal([]byte(secret), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse HOUSE_KEY_SECRET: %w", err)
		}
		return secretToKey(raw), nil
	}

	if data, err := os.ReadFile(path); err == nil {
		var stored houseKeyData
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return secretToKey(stored.Secret), nil
	}

	wallet := solana.NewWallet()
	data, err := json.Marshal(houseKeyData{Secret: keyToSecret(wallet.PrivateKey)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode house key: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		// Read-only filesystems still get a working, ephemeral wallet.
		log.Warn().Err(err).Msg("could not persist generated house key")
	}
	log.Info().Str("public_key", wallet.PublicKey().String()).Msg("generated new house wallet; fund it for payouts to work")
	return wallet.PrivateKey, nil
}
