package models

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrForbidden           = errors.New("forbidden: you are not authorized")
	ErrUserNotFound        = errors.New("user not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal request not found")
	ErrPurchaseNotFound    = errors.New("purchase not found")
	ErrInsufficientBalance = errors.New("not enough coins")
	ErrSlotUnavailable     = errors.New("task has no open slots")
	ErrBelowMinimum        = errors.New("invalid withdrawal request: minimum is 200 coins")
	ErrAlreadyApproved     = errors.New("withdrawal already approved")
	ErrStatusConflict      = errors.New("entity is not in the expected state")
	ErrDuplicatePurchase   = errors.New("purchase already recorded")
	ErrDuplicatePayout     = errors.New("payout already recorded")
	ErrPurchasePending     = errors.New("purchase is still being credited")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUpstream            = errors.New("upstream service unavailable")
)
