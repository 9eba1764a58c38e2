package domain

import "github.com/shopspring/decimal"

type ActionPhase string

const (
	ActionIdle       ActionPhase = "idle"
	ActionPending    ActionPhase = "pending"
	ActionConfirming ActionPhase = "confirming"
	ActionSuccess    ActionPhase = "success"
	ActionError      ActionPhase = "error"
)

// ActionState is the single record tracking one claim or purchase.
type ActionState struct {
	Phase      ActionPhase
	Error      string
	Reference  string // claim reference or transaction signature
	Amount     *decimal.Decimal
	Generation uint64
}

func (s ActionState) InFlight() bool {
	return s.Phase == ActionPending || s.Phase == ActionConfirming
}

// Flags renders the state in the boolean shape clients consume.
func (s ActionState) Flags() ActionFlags {
	f := ActionFlags{
		Started:    s.Phase == ActionPending || s.Phase == ActionConfirming,
		Confirming: s.Phase == ActionConfirming,
		Success:    s.Phase == ActionSuccess,
		Failed:     s.Phase == ActionError,
	}
	if s.Error != "" {
		msg := s.Error
		f.Error = &msg
	}
	if s.Reference != "" {
		ref := s.Reference
		f.TxSignature = &ref
	}
	return f
}

type ActionFlags struct {
	Started     bool
	Confirming  bool
	Success     bool
	Failed      bool
	Error       *string
	TxSignature *string
}

type ClaimState struct {
	IsClaiming    bool             `json:"isClaiming"`
	IsConfirming  bool             `json:"isConfirming"`
	IsSuccess     bool             `json:"isSuccess"`
	IsError       bool             `json:"isError"`
	Error         *string          `json:"error"`
	TxSignature   *string          `json:"txSignature"`
	ClaimedAmount *decimal.Decimal `json:"claimedAmount"`
}

func NewClaimState(s ActionState) ClaimState {
	f := s.Flags()
	cs := ClaimState{
		IsClaiming:   f.Started,
		IsConfirming: f.Confirming,
		IsSuccess:    f.Success,
		IsError:      f.Failed,
		Error:        f.Error,
		TxSignature:  f.TxSignature,
	}
	if s.Phase == ActionSuccess {
		cs.ClaimedAmount = s.Amount
	}
	return cs
}

type PurchaseState struct {
	IsPurchasing bool    `json:"isPurchasing"`
	IsConfirming bool    `json:"isConfirming"`
	IsSuccess    bool    `json:"isSuccess"`
	IsError      bool    `json:"isError"`
	Error        *string `json:"error"`
	TxSignature  *string `json:"txSignature"`
}

func NewPurchaseState(s ActionState) PurchaseState {
	f := s.Flags()
	return PurchaseState{
		IsPurchasing: f.Started,
		IsConfirming: f.Confirming,
		IsSuccess:    f.Success,
		IsError:      f.Failed,
		Error:        f.Error,
		TxSignature:  f.TxSignature,
	}
}
