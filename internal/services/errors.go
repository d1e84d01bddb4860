package services

import (
	"errors"

	"github.com/gfconnector/billing-console/internal/model"
)

var (
	ErrNotFound               = model.ErrNotFound
	ErrNotConfirmable         = errors.New("transaction is not pending billing confirmation")
	ErrConfirmationInProgress = errors.New("billing confirmation already in progress")
	ErrIssuingFailed          = errors.New("invoicing provider failed to issue the document")
	ErrNotRefundable          = errors.New("only PAID transactions can be refunded")
	ErrNoDocument             = errors.New("document not available for this transaction")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidCredentials     = errors.New("invalid username or password")
	ErrDuplicateUser          = errors.New("username already exists")
	ErrInvalidToken           = errors.New("invalid or expired token")
)
