package service

import "errors"

var (
	ErrItemNotFound       = errors.New("item not found")
	ErrCollectionNotFound = errors.New("collection not found")
	ErrWalletNotConnected = errors.New("wallet not connected")
	ErrBelowMinimumClaim  = errors.New("claim amount below minimum")
	ErrActionInFlight     = errors.New("action already in progress")
)
