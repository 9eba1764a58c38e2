package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/port"
)

// ConnectPrompt is the wallet modal visibility toggle.
type ConnectPrompt struct {
	mu      sync.Mutex
	visible bool
}

func (p *ConnectPrompt) PromptConnect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = true
}

func (p *ConnectPrompt) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

func (p *ConnectPrompt) Dismiss() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = false
}

type WalletInfo struct {
	Connected        bool             `json:"connected"`
	Address          *string          `json:"walletAddress"`
	TruncatedAddress *string          `json:"truncatedAddress"`
	BalanceSol       *decimal.Decimal `json:"balance"`
	PromptVisible    bool             `json:"promptVisible"`
}

type WalletSession struct {
	wallet port.Wallet
	chain  port.ChainClient
	prompt *ConnectPrompt
	log    zerolog.Logger
}

func NewWalletSession(wallet port.Wallet, chain port.ChainClient, prompt *ConnectPrompt, log zerolog.Logger) *WalletSession {
	return &WalletSession{wallet: wallet, chain: chain, prompt: prompt, log: log}
}

// Describe reports the wallet state. A failed balance lookup leaves the balance empty.
func (w *WalletSession) Describe(ctx context.Context) WalletInfo {
	info := WalletInfo{
		Connected:     w.wallet.Connected(),
		PromptVisible: w.prompt.Visible(),
	}

	address := w.wallet.PublicKey()
	if !info.Connected || address == "" {
		return info
	}

	truncated := TruncateAddress(address)
	info.Address = &address
	info.TruncatedAddress = &truncated

	lamports, err := w.chain.Balance(ctx, address)
	if err != nil {
		w.log.Warn().Err(err).Str("wallet", address).Msg("fetch balance")
		return info
	}
	balance := decimal.NewFromInt(int64(lamports)).Div(decimal.NewFromInt(domain.LamportsPerSol))
	info.BalanceSol = &balance
	return info
}

// TruncateAddress shortens an address to its first and last four characters.
func TruncateAddress(address string) string {
	if len(address) <= 8 {
		return address
	}
	return address[:4] + "..." + address[len(address)-4:]
}
