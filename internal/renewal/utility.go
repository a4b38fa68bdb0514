package renewal

import (
	"fmt"

	"lifeos/internal/calendar"
	"lifeos/internal/models"
)

// ShouldGenerateForBill reports whether a paid bill still needs its expense.
// existingTags are the tags of the owner's expenses dated on the bill's
// payment date.
func ShouldGenerateForBill(bill *models.UtilityBill, existingTags []string) bool {
	if bill == nil || bill.PaymentStatus != models.PaymentStatusPaid || bill.PaymentDate == nil {
		return false
	}
	return !containsTag(existingTags, UtilityBillTag(bill.ID))
}

// BuildBillExpenseRequest produces the expense for a paid bill, dated on the
// payment date.
func BuildBillExpenseRequest(bill *models.UtilityBill) ExpenseRequest {
	return ExpenseRequest{
		UserID:      bill.UserID,
		Amount:      bill.Amount,
		Currency:    bill.Currency,
		CategoryID:  bill.CategoryID,
		Date:        calendar.Day(*bill.PaymentDate),
		Description: fmt.Sprintf("%s %s bill", bill.Provider, bill.UtilityType),
		Status:      models.ExpenseStatusConfirmed,
		Tags:        []string{UtilityBillTag(bill.ID)},
	}
}
