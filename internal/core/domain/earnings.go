package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var usdPerSol = decimal.RequireFromString("98.5")

type Earnings struct {
	TotalEarnings  decimal.Decimal `json:"totalEarnings"`
	PendingRewards decimal.Decimal `json:"pendingRewards"`
	ClaimedRewards decimal.Decimal `json:"claimedRewards"`
	LastClaimAt    time.Time       `json:"lastClaimTimestamp"`
	RewardRate     decimal.Decimal `json:"rewardRate"`
}

type CollectionEarning struct {
	ID              int             `json:"id"`
	Name            string          `json:"name"`
	NFTsOwned       int             `json:"nftsOwned"`
	TotalEarned     decimal.Decimal `json:"totalEarned"`
	PendingAmount   decimal.Decimal `json:"pendingAmount"`
	SharePercentage decimal.Decimal `json:"sharePercentage"`
}

type RewardTransactionType string

const (
	RewardTransactionClaim  RewardTransactionType = "claim"
	RewardTransactionReward RewardTransactionType = "reward"
)

type RewardTransaction struct {
	ID         string                `json:"id"`
	Type       RewardTransactionType `json:"type"`
	Amount     decimal.Decimal       `json:"amount"`
	Timestamp  time.Time             `json:"timestamp"`
	Collection string                `json:"collection"`
}

// FormatTimestamp renders t relative to now ("Just now", "5m ago", "3h ago", "2d ago").
func FormatTimestamp(t, now time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "Just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff/time.Hour))
	default:
		return fmt.Sprintf("%dd ago", int(diff/(24*time.Hour)))
	}
}

func SolToUSD(sol decimal.Decimal) decimal.Decimal {
	return sol.Mul(usdPerSol)
}
