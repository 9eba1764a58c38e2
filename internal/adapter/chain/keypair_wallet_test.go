package chain

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/crypto-pins/internal/core/domain"
)

type capturingSender struct {
	sent []*solana.Transaction
	err  error
}

func (s *capturingSender) send(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if s.err != nil {
		return solana.Signature{}, s.err
	}
	s.sent = append(s.sent, tx)
	return tx.Signatures[0], nil
}

func TestKeypairWallet_EmptyKeyStaysDisconnected(t *testing.T) {
	w, err := NewKeypairWallet(nil, "")
	require.NoError(t, err)

	assert.False(t, w.Connected())
	assert.Empty(t, w.PublicKey())
	assert.ErrorIs(t, w.Connect(), ErrNoKeypair)

	_, err = w.SendTransfer(context.Background(), domain.TransferRequest{})
	assert.ErrorIs(t, err, ErrNoKeypair)
}

func TestKeypairWallet_InvalidKey(t *testing.T) {
	_, err := NewKeypairWallet(nil, "definitely not base58 0OIl")
	assert.Error(t, err)
}

func TestKeypairWallet_ConnectDisconnect(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	w, err := NewKeypairWallet(nil, key.String())
	require.NoError(t, err)

	assert.True(t, w.Connected())
	assert.Equal(t, key.PublicKey().String(), w.PublicKey())

	w.Disconnect()
	assert.False(t, w.Connected())
	require.NoError(t, w.Connect())
	assert.True(t, w.Connected())
}

func TestKeypairWallet_SendTransferSignsSystemTransfer(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	treasury := solana.NewWallet().PublicKey()
	blockhash := solana.Hash(solana.NewWallet().PublicKey())

	w, err := NewKeypairWallet(nil, key.String())
	require.NoError(t, err)
	sender := &capturingSender{}
	w.sender = sender

	sig, err := w.SendTransfer(context.Background(), domain.TransferRequest{
		To:        treasury.String(),
		Lamports:  2_500_000_000,
		Blockhash: domain.Blockhash{Hash: blockhash.String(), LastValidBlockHeight: 10},
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	tx := sender.sent[0]
	assert.Equal(t, tx.Signatures[0].String(), sig)
	assert.Equal(t, blockhash, tx.Message.RecentBlockhash)
	require.NoError(t, tx.VerifySignatures())

	require.Len(t, tx.Message.Instructions, 1)
	accounts, err := tx.Message.Instructions[0].ResolveInstructionAccounts(&tx.Message)
	require.NoError(t, err)
	decoded, err := system.DecodeInstruction(accounts, tx.Message.Instructions[0].Data)
	require.NoError(t, err)
	transfer, ok := decoded.Impl.(*system.Transfer)
	require.True(t, ok)
	assert.Equal(t, uint64(2_500_000_000), *transfer.Lamports)
	assert.Equal(t, treasury, transfer.GetRecipientAccount().PublicKey)
}

func TestKeypairWallet_SendTransferBadInput(t *testing.T) {
	key := solana.NewWallet().PrivateKey
	w, err := NewKeypairWallet(nil, key.String())
	require.NoError(t, err)
	w.sender = &capturingSender{}

	_, err = w.SendTransfer(context.Background(), domain.TransferRequest{To: "bad", Blockhash: domain.Blockhash{Hash: solana.Hash{}.String()}})
	assert.ErrorContains(t, err, "parse recipient")

	_, err = w.SendTransfer(context.Background(), domain.TransferRequest{To: solana.NewWallet().PublicKey().String(), Blockhash: domain.Blockhash{Hash: "bad"}})
	assert.ErrorContains(t, err, "parse blockhash")
}
