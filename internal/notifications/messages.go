package notifications

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"

	// NoOverdueMessage is sent when the sweep finds nothing due.
	NoOverdueMessage = "No borrowings overdue today."
)

// BorrowingCreated announces a new borrowing to staff.
func BorrowingCreated(titles []string, fullName string) string {
	return fmt.Sprintf("New borrowing created: %s by %s", FormatTitles(titles), fullName)
}

// PaymentConfirmed announces a paid checkout session.
func PaymentConfirmed(borrowingID fmt.Stringer, paymentType string, amount decimal.Decimal) string {
	return fmt.Sprintf(
		"New payment was paid: \nborrowing - %s, \ntype - %s, \namount - %s$.",
		borrowingID, paymentType, amount.StringFixed(2),
	)
}

// OverdueBorrowing summarises one borrowing that is due by tomorrow.
func OverdueBorrowing(fullName string, titles []string, expected, borrowed time.Time) string {
	return fmt.Sprintf(
		"Overdue borrowing:\nUser: %s\nBooks: %s\nExpected return: %s\nBorrow on: %s",
		fullName, FormatTitles(titles), expected.Format(dateLayout), borrowed.Format(dateLayout),
	)
}

// FormatTitles renders titles as a bracketed, quoted list.
func FormatTitles(titles []string) string {
	quoted := make([]string, 0, len(titles))
	for _, title := range titles {
		quoted = append(quoted, "'"+title+"'")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
