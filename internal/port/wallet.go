package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

// Wallet is the connected user wallet. Signing happens on its side.
type Wallet interface {
	Connected() bool
	PublicKey() string
	SendTransfer(ctx context.Context, req domain.TransferRequest) (signature string, err error)
}

type ChainClient interface {
	LatestBlockhash(ctx context.Context) (domain.Blockhash, error)
	// ConfirmTransaction blocks until the signature is confirmed or the blockhash expires
	ConfirmTransaction(ctx context.Context, signature string, blockhash domain.Blockhash) error
	Balance(ctx context.Context, publicKey string) (lamports uint64, err error)
}

// ConnectPrompter surfaces a wallet connection prompt to the user.
type ConnectPrompter interface {
	PromptConnect()
}

// RewardDistributor settles a reward claim and returns its reference.
type RewardDistributor interface {
	Distribute(ctx context.Context, wallet string, amount decimal.Decimal) (reference string, err error)
}
