package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

var ErrNoKeypair = errors.New("no keypair configured")

type transactionSender interface {
	send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// KeypairWallet signs transfers with a locally held key. Without a key it stays
// disconnected.
type KeypairWallet struct {
	sender transactionSender
	key    *solana.PrivateKey

	mu        sync.RWMutex
	connected bool
}

// NewKeypairWallet parses a base58 private key. An empty key yields a wallet that
// can never connect.
func NewKeypairWallet(client *RPCClient, privateKey string) (*KeypairWallet, error) {
	w := &KeypairWallet{sender: client}
	if privateKey == "" {
		return w, nil
	}

	key, err := solana.PrivateKeyFromBase58(privateKey)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	w.key = &key
	w.connected = true
	return w, nil
}

func (w *KeypairWallet) Connect() error {
	if w.key == nil {
		return ErrNoKeypair
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = true
	return nil
}

func (w *KeypairWallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.connected = false
}

func (w *KeypairWallet) Connected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.connected
}

func (w *KeypairWallet) PublicKey() string {
	if w.key == nil {
		return ""
	}
	return w.key.PublicKey().String()
}

func (w *KeypairWallet) SendTransfer(ctx context.Context, req domain.TransferRequest) (string, error) {
	if !w.Connected() {
		return "", ErrNoKeypair
	}

	tx, err := w.buildTransfer(req)
	if err != nil {
		return "", err
	}

	sig, err := w.sender.send(ctx, tx)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (w *KeypairWallet) buildTransfer(req domain.TransferRequest) (*solana.Transaction, error) {
	to, err := solana.PublicKeyFromBase58(req.To)
	if err != nil {
		return nil, fmt.Errorf("parse recipient: %w", err)
	}
	hash, err := solana.HashFromBase58(req.Blockhash.Hash)
	if err != nil {
		return nil, fmt.Errorf("parse blockhash: %w", err)
	}

	from := w.key.PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(req.Lamports, from, to).Build()},
		hash,
		solana.TransactionPayer(from),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from) {
			return w.key
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}
