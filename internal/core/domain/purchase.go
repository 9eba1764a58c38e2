package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const LamportsPerSol = 1_000_000_000

type NFTCollection struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	TotalSupply int             `json:"totalSupply"`
	Minted      int             `json:"minted"`
	PriceInSol  decimal.Decimal `json:"priceInSol"`
}

// Lamports converts the collection price, truncating fractional lamports.
func (c NFTCollection) Lamports() uint64 {
	return uint64(c.PriceInSol.Mul(decimal.NewFromInt(LamportsPerSol)).Floor().IntPart())
}

type Blockhash struct {
	Hash                 string
	LastValidBlockHeight uint64
}

type TransferRequest struct {
	To        string
	Lamports  uint64
	Blockhash Blockhash
}

// Confirmation records a reservation converted into a permanent depletion.
type Confirmation struct {
	ID          string
	ItemID      int
	Quantity    int
	ConfirmedAt time.Time
}
