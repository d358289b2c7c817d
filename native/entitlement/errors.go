package entitlement

import "errors"

var (
	ErrNotOwner          = errors.New("entitlement: caller is not the owner")
	ErrEmptyBatch        = errors.New("entitlement: empty batch")
	ErrLengthMismatch    = errors.New("entitlement: array length mismatch")
	ErrZeroAccount       = errors.New("entitlement: zero account")
	ErrZeroAmount        = errors.New("entitlement: amount must be positive")
	ErrInvalidCategory   = errors.New("entitlement: invalid category")
	ErrEntryExists       = errors.New("entitlement: whitelist entry already exists")
	ErrEntryNotFound     = errors.New("entitlement: whitelist entry not found")
	ErrAlreadyMinted     = errors.New("entitlement: already minted")
	ErrRecipientMismatch = errors.New("entitlement: recipient does not match whitelisted account")
	ErrNotAuthorized     = errors.New("entitlement: caller is neither the entitled account nor an operator")
	ErrOperatorExists    = errors.New("entitlement: operator already authorized")
	ErrOperatorNotFound  = errors.New("entitlement: operator not authorized")
	ErrInvalidMonth      = errors.New("entitlement: month out of range")
	ErrSnapshotExists    = errors.New("entitlement: snapshot already taken for period")
	ErrValueOverflow     = errors.New("entitlement: value exceeds 256-bit bound")
	ErrTransfersDisabled = errors.New("entitlement: transfers are permanently disabled")
)
