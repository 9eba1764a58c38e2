package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rl1809/crypto-pins/internal/core/domain"
	"github.com/rl1809/crypto-pins/internal/port"
)

type PurchaseService struct {
	machine     *ActionMachine
	wallet      port.Wallet
	chain       port.ChainClient
	prompter    port.ConnectPrompter
	treasury    string
	collections []domain.NFTCollection
	log         zerolog.Logger
}

func NewPurchaseService(wallet port.Wallet, chain port.ChainClient, prompter port.ConnectPrompter, treasury string, collections []domain.NFTCollection, log zerolog.Logger) *PurchaseService {
	return &PurchaseService{
		machine:     NewActionMachine(),
		wallet:      wallet,
		chain:       chain,
		prompter:    prompter,
		treasury:    treasury,
		collections: collections,
		log:         log,
	}
}

func (s *PurchaseService) Collections() []domain.NFTCollection {
	return s.collections
}

func (s *PurchaseService) Collection(id int) (domain.NFTCollection, error) {
	for _, c := range s.collections {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.NFTCollection{}, ErrCollectionNotFound
}

// Purchase pays the collection price into the treasury and waits for confirmation.
// It returns the transaction signature.
func (s *PurchaseService) Purchase(ctx context.Context, collection domain.NFTCollection) (string, error) {
	if !s.wallet.Connected() || s.wallet.PublicKey() == "" {
		s.prompter.PromptConnect()
		return "", ErrWalletNotConnected
	}

	gen, err := s.machine.Begin()
	if err != nil {
		return "", err
	}

	signature, err := s.transfer(ctx, gen, collection)
	if err != nil {
		s.machine.Fail(gen, err.Error())
		s.log.Error().Err(err).Int("collection_id", collection.ID).Msg("purchase failed")
		return "", err
	}

	price := collection.PriceInSol
	s.machine.Succeed(gen, signature, &price)
	s.log.Info().Int("collection_id", collection.ID).Str("signature", signature).Msg("purchase confirmed")
	return signature, nil
}

func (s *PurchaseService) transfer(ctx context.Context, gen uint64, collection domain.NFTCollection) (string, error) {
	blockhash, err := s.chain.LatestBlockhash(ctx)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	s.machine.Confirming(gen)

	signature, err := s.wallet.SendTransfer(ctx, domain.TransferRequest{
		To:        s.treasury,
		Lamports:  collection.Lamports(),
		Blockhash: blockhash,
	})
	if err != nil {
		return "", fmt.Errorf("send transaction: %w", err)
	}

	if err := s.chain.ConfirmTransaction(ctx, signature, blockhash); err != nil {
		return "", fmt.Errorf("confirm transaction: %w", err)
	}
	return signature, nil
}

func (s *PurchaseService) State() domain.ActionState {
	return s.machine.State()
}

func (s *PurchaseService) Reset() {
	s.machine.Reset()
}

func (s *PurchaseService) Machine() *ActionMachine {
	return s.machine
}
