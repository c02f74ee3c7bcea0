package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/TetyanaPavlyuk/library-api-service/internal/borrowings"
	"github.com/TetyanaPavlyuk/library-api-service/internal/notifications"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/auth"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/db/models"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/enums"
	pkgerrors "github.com/TetyanaPavlyuk/library-api-service/pkg/errors"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/metrics"
	"github.com/TetyanaPavlyuk/library-api-service/pkg/pagination"
)

var hundred = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type borrowingReader interface {
	Find(ctx context.Context, actor auth.Principal, id uuid.UUID) (*models.Borrowing, error)
	FineAmount(b models.Borrowing) (decimal.Decimal, error)
}

// Service is the payment ledger.
type Service interface {
	RequestPayment(ctx context.Context, actor auth.Principal, borrowingID uuid.UUID) (*SessionResult, error)
	RequestFine(ctx context.Context, actor auth.Principal, borrowingID uuid.UUID) (*SessionResult, error)
	ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmResult, error)
	List(ctx context.Context, actor auth.Principal, params pagination.Params) (*pagination.Page[PaymentView], error)
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*PaymentDetail, error)
}

type ServiceParams struct {
	Repo              Repository
	Borrowings        borrowingReader
	Processor         Processor
	Notifier          notifications.Notifier
	TransactionRunner txRunner
	Metrics           *metrics.LibraryMetrics
	PublicBaseURL     string
}

type service struct {
	repo       Repository
	borrowings borrowingReader
	processor  Processor
	notifier   notifications.Notifier
	tx         txRunner
	metrics    *metrics.LibraryMetrics
	baseURL    string
}

// NewService wires the payment ledger.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repo required")
	}
	if params.Borrowings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "borrowings service required")
	}
	if params.Processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment processor required")
	}
	if params.Notifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifier required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(params.PublicBaseURL), "/")
	if baseURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "public base url required")
	}
	return &service{
		repo:       params.Repo,
		borrowings: params.Borrowings,
		processor:  params.Processor,
		notifier:   params.Notifier,
		tx:         params.TransactionRunner,
		metrics:    params.Metrics,
		baseURL:    baseURL,
	}, nil
}

func (s *service) RequestPayment(ctx context.Context, actor auth.Principal, borrowingID uuid.UUID) (*SessionResult, error) {
	return s.request(ctx, actor, borrowingID, enums.PaymentTypePayment)
}

func (s *service) RequestFine(ctx context.Context, actor auth.Principal, borrowingID uuid.UUID) (*SessionResult, error) {
	return s.request(ctx, actor, borrowingID, enums.PaymentTypeFine)
}

func (s *service) request(ctx context.Context, actor auth.Principal, borrowingID uuid.UUID, paymentType enums.PaymentType) (*SessionResult, error) {
	borrowing, err := s.borrowings.Find(ctx, actor, borrowingID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForBorrowing(ctx, borrowing.ID, paymentType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payments")
	}
	if exists {
		return nil, errDuplicate(borrowing.ID, paymentType)
	}

	amount, err := s.amountFor(*borrowing, paymentType)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount to pay must be positive").
			WithDetails(map[string]any{"borrowing": borrowing.ID, "money_to_pay": amount.StringFixed(2)})
	}

	payment := &models.Payment{
		ID:          uuid.New(),
		BorrowingID: borrowing.ID,
		Type:        paymentType,
		Status:      enums.PaymentStatusPending,
		MoneyToPay:  amount,
	}
	var checkout *CheckoutSession
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, payment); err != nil {
			if db.IsUniqueViolation(err, "") {
				return errDuplicate(borrowing.ID, paymentType)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
		}

		session, err := s.processor.CreateSession(ctx, SessionRequest{
			Name:        sessionName(paymentType, borrowing.Titles()),
			AmountCents: amount.Mul(hundred).IntPart(),
			SuccessURL:  s.baseURL + SuccessPath + "?session_id={CHECKOUT_SESSION_ID}",
			CancelURL:   s.baseURL + CancelPath,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
		}

		if err := repo.AttachSession(ctx, payment.ID, session.ID, session.URL); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store checkout session")
		}
		checkout = session
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request payment")
	}

	s.metrics.IncPaymentRequested(paymentType.String())
	return &SessionResult{
		PaymentID:  payment.ID,
		SessionID:  checkout.ID,
		SessionURL: checkout.URL,
	}, nil
}

func (s *service) ConfirmPayment(ctx context.Context, sessionID string) (*ConfirmResult, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session_id is required").
			WithDetails(map[string]string{"session_id": "this field is required"})
	}

	payment, err := s.repo.FindBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	paid, err := s.processor.SessionPaid(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check checkout session")
	}
	if !paid {
		return &ConfirmResult{Paid: false, Message: NotCompletedMessage}, nil
	}

	// Only the hit whose pending->paid update lands notifies.
	updated, err := s.repo.MarkPaid(ctx, payment.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment paid")
	}
	if updated {
		s.metrics.IncPaymentConfirmed(payment.Type.String())
		s.notifier.Notify(ctx, notifications.PaymentConfirmed(payment.BorrowingID, payment.Type.String(), payment.MoneyToPay))
	}
	return &ConfirmResult{Paid: true, Message: SuccessMessage}, nil
}

func (s *service) List(ctx context.Context, actor auth.Principal, params pagination.Params) (*pagination.Page[PaymentView], error) {
	params = params.Normalize()
	var scope *uuid.UUID
	if !actor.IsStaff {
		userID := actor.UserID
		scope = &userID
	}

	rows, total, err := s.repo.List(ctx, scope, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	views := make([]PaymentView, 0, len(rows))
	for _, row := range rows {
		views = append(views, NewPaymentView(row))
	}
	page := pagination.NewPage(params, total, views)
	return &page, nil
}

func (s *service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*PaymentDetail, error) {
	payment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errPaymentNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}

	borrowing, err := s.borrowings.Find(ctx, actor, payment.BorrowingID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, errPaymentNotFound(id)
		}
		return nil, err
	}

	return &PaymentDetail{
		PaymentView:    NewPaymentView(*payment),
		BorrowingUser:  borrowing.UserID,
		BorrowingBooks: borrowing.Titles(),
	}, nil
}

func (s *service) amountFor(b models.Borrowing, paymentType enums.PaymentType) (decimal.Decimal, error) {
	if paymentType == enums.PaymentTypeFine {
		return s.borrowings.FineAmount(b)
	}
	return borrowings.CalculateRentalAmount(b), nil
}

func sessionName(paymentType enums.PaymentType, titles []string) string {
	prefix := "Payment"
	if paymentType == enums.PaymentTypeFine {
		prefix = "Fine"
	}
	return fmt.Sprintf("%s for %s", prefix, strings.Join(titles, ", "))
}

func errDuplicate(borrowingID uuid.UUID, paymentType enums.PaymentType) error {
	message := "Payment already exist for this Borrowing"
	if paymentType == enums.PaymentTypeFine {
		message = "Fine already exist for this Borrowing"
	}
	return pkgerrors.New(pkgerrors.CodeDuplicatePayment, message).
		WithDetails(map[string]any{"borrowing": borrowingID, "type": paymentType})
}

func errPaymentNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "payment not found").
		WithDetails(map[string]any{"payment_id": id})
}
