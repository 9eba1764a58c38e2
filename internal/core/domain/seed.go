package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func SeedInventory(now time.Time) []InventoryItem {
	return []InventoryItem{
		{ID: 1, Name: "Solana Logo", TotalStock: 500, AvailableStock: 234, ReservedStock: 12, LastUpdated: now},
		{ID: 2, Name: "Bonk Doge", TotalStock: 1000, AvailableStock: 756, ReservedStock: 8, LastUpdated: now},
		{ID: 3, Name: "Saga Monke", TotalStock: 250, AvailableStock: 47, ReservedStock: 5, LastUpdated: now},
		{ID: 4, Name: "Degen Ape", TotalStock: 100, AvailableStock: 12, ReservedStock: 3, LastUpdated: now},
	}
}

func SeedCollections() []NFTCollection {
	return []NFTCollection{
		{
			ID:          1,
			Name:        "Genesis Collection",
			Description: "First-ever Solana pin NFTs with exclusive profit-sharing",
			TotalSupply: 1000,
			Minted:      847,
			PriceInSol:  decimal.RequireFromString("2.5"),
		},
		{
			ID:          2,
			Name:        "Meme Legends",
			Description: "Iconic Solana meme coins immortalized as collectible pins",
			TotalSupply: 2000,
			Minted:      1456,
			PriceInSol:  decimal.RequireFromString("1.8"),
		},
		{
			ID:          3,
			Name:        "Ecosystem Heroes",
			Description: "Celebrating projects building on Solana",
			TotalSupply: 1500,
			Minted:      892,
			PriceInSol:  decimal.RequireFromString("3.2"),
		},
	}
}

func SeedEarnings(now time.Time) Earnings {
	return Earnings{
		TotalEarnings:  decimal.RequireFromString("37.04"),
		PendingRewards: decimal.RequireFromString("2.66"),
		ClaimedRewards: decimal.RequireFromString("34.38"),
		LastClaimAt:    now.Add(-3 * 24 * time.Hour),
		RewardRate:     decimal.RequireFromString("0.0012"),
	}
}

func SeedCollectionEarnings() []CollectionEarning {
	return []CollectionEarning{
		{
			ID:              1,
			Name:            "Genesis Collection",
			NFTsOwned:       3,
			TotalEarned:     decimal.RequireFromString("12.45"),
			PendingAmount:   decimal.RequireFromString("0.89"),
			SharePercentage: decimal.RequireFromString("0.3"),
		},
		{
			ID:              2,
			Name:            "Meme Legends",
			NFTsOwned:       5,
			TotalEarned:     decimal.RequireFromString("8.92"),
			PendingAmount:   decimal.RequireFromString("0.54"),
			SharePercentage: decimal.RequireFromString("0.25"),
		},
		{
			ID:              3,
			Name:            "Ecosystem Heroes",
			NFTsOwned:       2,
			TotalEarned:     decimal.RequireFromString("15.67"),
			PendingAmount:   decimal.RequireFromString("1.23"),
			SharePercentage: decimal.RequireFromString("0.45"),
		},
	}
}
