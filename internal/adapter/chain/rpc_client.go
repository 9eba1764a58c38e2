package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

const (
	DefaultEndpoint     = "https://api.mainnet-beta.solana.com"
	defaultPollInterval = 500 * time.Millisecond
)

var (
	ErrBlockhashExpired  = errors.New("blockhash expired before confirmation")
	ErrTransactionFailed = errors.New("transaction failed")
)

// RPCClient is the chain client backed by a Solana JSON-RPC endpoint.
type RPCClient struct {
	rpc          *rpc.Client
	pollInterval time.Duration
}

func NewRPCClient(endpoint string) *RPCClient {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &RPCClient{rpc: rpc.New(endpoint), pollInterval: defaultPollInterval}
}

// WithPollInterval sets how often ConfirmTransaction checks the signature status.
func (c *RPCClient) WithPollInterval(d time.Duration) *RPCClient {
	c.pollInterval = d
	return c
}

func (c *RPCClient) LatestBlockhash(ctx context.Context) (domain.Blockhash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return domain.Blockhash{}, err
	}
	return domain.Blockhash{
		Hash:                 out.Value.Blockhash.String(),
		LastValidBlockHeight: out.Value.LastValidBlockHeight,
	}, nil
}

func (c *RPCClient) Balance(ctx context.Context, publicKey string) (uint64, error) {
	pk, err := solana.PublicKeyFromBase58(publicKey)
	if err != nil {
		return 0, fmt.Errorf("parse public key: %w", err)
	}
	out, err := c.rpc.GetBalance(ctx, pk, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

// ConfirmTransaction polls the signature until it reaches confirmed commitment, fails,
// or the block height passes the blockhash's last valid height.
func (c *RPCClient) ConfirmTransaction(ctx context.Context, signature string, blockhash domain.Blockhash) error {
	sig, err := solana.SignatureFromBase58(signature)
	if err != nil {
		return fmt.Errorf("parse signature: %w", err)
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		done, err := c.checkSignature(ctx, sig, blockhash)
		if done || err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *RPCClient) checkSignature(ctx context.Context, sig solana.Signature, blockhash domain.Blockhash) (bool, error) {
	out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
	if err != nil {
		return false, fmt.Errorf("get signature status: %w", err)
	}

	if len(out.Value) > 0 && out.Value[0] != nil {
		status := out.Value[0]
		if status.Err != nil {
			return true, fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err)
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return true, nil
		}
	}

	height, err := c.rpc.GetBlockHeight(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return false, fmt.Errorf("get block height: %w", err)
	}
	if height > blockhash.LastValidBlockHeight {
		return true, ErrBlockhashExpired
	}
	return false, nil
}

func (c *RPCClient) send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return c.rpc.SendTransaction(ctx, tx)
}
