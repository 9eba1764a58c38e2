package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/port"
)

const minimumClaimMessage = "Minimum claim amount is 0.01 SOL"

var MinimumClaim = decimal.RequireFromString("0.01")

// ClaimLedger is told about every settled claim.
type ClaimLedger interface {
	RecordClaim(amount decimal.Decimal)
}

type ClaimService struct {
	machine     *ActionMachine
	wallet      port.Wallet
	prompter    port.ConnectPrompter
	distributor port.RewardDistributor
	ledger      ClaimLedger
	log         zerolog.Logger
}

// NewClaimService wires a claim machine. ledger may be nil.
func NewClaimService(wallet port.Wallet, prompter port.ConnectPrompter, distributor port.RewardDistributor, ledger ClaimLedger, log zerolog.Logger) *ClaimService {
	return &ClaimService{
		machine:     NewActionMachine(),
		wallet:      wallet,
		prompter:    prompter,
		distributor: distributor,
		ledger:      ledger,
		log:         log,
	}
}

// Claim settles amount to the connected wallet.
func (s *ClaimService) Claim(ctx context.Context, amount decimal.Decimal) error {
	if !s.wallet.Connected() || s.wallet.PublicKey() == "" {
		s.prompter.PromptConnect()
		return ErrWalletNotConnected
	}

	if amount.LessThan(MinimumClaim) {
		if err := s.machine.Reject(minimumClaimMessage); err != nil {
			return err
		}
		return ErrBelowMinimumClaim
	}

	gen, err := s.machine.Begin()
	if err != nil {
		return err
	}
	s.machine.Confirming(gen)

	wallet := s.wallet.PublicKey()
	reference, err := s.distributor.Distribute(ctx, wallet, amount)
	if err != nil {
		s.machine.Fail(gen, err.Error())
		s.log.Error().Err(err).Str("wallet", wallet).Str("amount", amount.String()).Msg("claim failed")
		return fmt.Errorf("distribute rewards: %w", err)
	}

	if !s.machine.Succeed(gen, reference, &amount) {
		s.log.Warn().Str("reference", reference).Msg("claim settled after reset")
	}
	if s.ledger != nil {
		s.ledger.RecordClaim(amount)
	}
	s.log.Info().Str("wallet", wallet).Str("amount", amount.String()).Str("reference", reference).Msg("rewards claimed")
	return nil
}

func (s *ClaimService) State() domain.ActionState {
	return s.machine.State()
}

func (s *ClaimService) Reset() {
	s.machine.Reset()
}

func (s *ClaimService) Machine() *ActionMachine {
	return s.machine
}

// SimulatedDistributor stands in for the rewards distribution contract.
type SimulatedDistributor struct {
	Delay time.Duration
	Now   func() time.Time
}

func (d SimulatedDistributor) Distribute(ctx context.Context, wallet string, _ decimal.Decimal) (string, error) {
	timer := time.NewTimer(d.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return fmt.Sprintf("claim_%d_%s", now().UnixMilli(), wallet[:min(8, len(wallet))]), nil
}
