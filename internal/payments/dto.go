package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
)

const (
	routePrefix = "/api/library/payments"

	// CreatePaymentPath opens the rental checkout for a borrowing.
	CreatePaymentPath = routePrefix + "/create_payment"
	// CreateFinePath opens the fine checkout for an overdue borrowing.
	CreateFinePath = routePrefix + "/create_fine"
	// SuccessPath is the processor's success redirect target.
	SuccessPath = routePrefix + "/success"
	// CancelPath is the processor's cancel redirect target.
	CancelPath = routePrefix + "/cancel"

	CancelMessage       = "Payment was cancelled. It can be paid a bit later (session is available for only 24h.)"
	SuccessMessage      = "Payment was successful"
	NotCompletedMessage = "Payment not completed"
)

// RequestInput is the body of create_payment and create_fine.
type RequestInput struct {
	BorrowingID uuid.UUID `json:"borrowing" validate:"required"`
}

// SessionResult is returned after a checkout session was opened.
type SessionResult struct {
	PaymentID  uuid.UUID `json:"payment_id"`
	SessionID  string    `json:"session_id"`
	SessionURL string    `json:"session_url"`
}

// ConfirmResult is the outcome of the success redirect.
type ConfirmResult struct {
	Paid    bool   `json:"paid"`
	Message string `json:"message"`
}

// PaymentView is the list shape of a payment.
type PaymentView struct {
	ID          uuid.UUID           `json:"id"`
	BorrowingID uuid.UUID           `json:"borrowing"`
	Status      enums.PaymentStatus `json:"status"`
	Type        enums.PaymentType   `json:"type"`
	SessionURL  string              `json:"session_url"`
	SessionID   *string             `json:"session_id"`
	MoneyToPay  decimal.Decimal     `json:"money_to_pay"`
}

// PaymentDetail adds the borrower and borrowed titles.
type PaymentDetail struct {
	PaymentView
	BorrowingUser  uuid.UUID `json:"borrowing_user"`
	BorrowingBooks []string  `json:"borrowing_books"`
}

// NewPaymentView maps a payment row into its list shape.
func NewPaymentView(p models.Payment) PaymentView {
	return PaymentView{
		ID:          p.ID,
		BorrowingID: p.BorrowingID,
		Status:      p.Status,
		Type:        p.Type,
		SessionURL:  p.SessionURL,
		SessionID:   p.SessionID,
		MoneyToPay:  p.MoneyToPay,
	}
}
