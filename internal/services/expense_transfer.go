package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xeipuuv/gojsonschema"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"lifeos/internal/calendar"
	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
)

// MaxImportExpenses caps a single bulk import.
const MaxImportExpenses = 1000

const expenseImportSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["expenses"],
  "additionalProperties": false,
  "properties": {
    "expenses": {
      "type": "array",
      "minItems": 1,
      "maxItems": 1000,
      "items": {
        "type": "object",
        "required": ["amount", "date"],
        "additionalProperties": false,
        "properties": {
          "amount": {
            "oneOf": [
              {"type": "number", "exclusiveMinimum": 0},
              {"type": "string", "pattern": "^[0-9]+(\\.[0-9]{1,2})?$"}
            ]
          },
          "currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
          "date": {"type": "string", "format": "date"},
          "description": {"type": "string", "maxLength": 500},
          "category_id": {"type": ["string", "null"]},
          "status": {"enum": ["pending", "confirmed"]},
          "tags": {"type": "array", "items": {"type": "string", "minLength": 1, "maxLength": 64}}
        }
      }
    }
  }
}`

var importSchema = mustCompileSchema(expenseImportSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile import schema: %v", err))
	}
	return schema
}

type importPayload struct {
	Expenses []importedExpense `json:"expenses"`
}

type importedExpense struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	CategoryID  *string         `json:"category_id"`
	Status      string          `json:"status"`
	Tags        []string        `json:"tags"`
}

// ImportExpenses validates a JSON bulk payload against the import schema and
// inserts every expense in one transaction. Either all rows land or none do.
func (s *expenseService) ImportExpenses(userID string, payload []byte) (*ImportResult, error) {
	res, err := importSchema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidImport, "payload is not valid JSON")
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, apperrors.WithMessage(apperrors.ErrInvalidImport, strings.Join(msgs, "; "))
	}

	var body importPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidImport, "payload could not be decoded")
	}

	result := &ImportResult{IDs: make([]string, 0, len(body.Expenses))}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i, row := range body.Expenses {
			date, err := calendar.Parse(row.Date)
			if err != nil {
				return apperrors.WithMessage(apperrors.ErrInvalidImport, fmt.Sprintf("expenses.%d.date: invalid date", i))
			}
			expense, err := s.buildExpense(tx, userID, ExpenseInput{
				CategoryID:  row.CategoryID,
				Amount:      row.Amount,
				Currency:    row.Currency,
				Date:        date,
				Description: row.Description,
				Status:      models.ExpenseStatus(row.Status),
				Tags:        row.Tags,
			})
			if err != nil {
				var appErr *apperrors.AppError
				if errors.As(err, &appErr) {
					return apperrors.WithMessage(apperrors.ErrInvalidImport, fmt.Sprintf("expenses.%d: %s", i, appErr.Message))
				}
				return err
			}
			if err := tx.Create(expense).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			result.IDs = append(result.IDs, expense.ID)
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result.Imported = len(result.IDs)
	return result, nil
}

var exportHeader = []any{"Date", "Description", "Category", "Amount", "Currency", "Status", "Tags"}

// ExportExpenses writes the user's expenses matching filter as an XLSX
// workbook, oldest first.
func (s *expenseService) ExportExpenses(userID string, filter ExpenseFilter, w io.Writer) error {
	var expenses []models.Expense
	if err := s.filtered(userID, filter).
		Preload("Tags").Preload("Category").
		Order("date ASC, created_at ASC").
		Find(&expenses).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Expenses"
	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheet); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := f.SetSheetRow(sheet, "A1", &exportHeader); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", "G1", style)
	}
	_ = f.SetColWidth(sheet, "B", "B", 40)
	_ = f.SetColWidth(sheet, "G", "G", 30)

	for i, e := range expenses {
		category := ""
		if e.Category != nil {
			category = e.Category.Name
		}
		row := []any{
			calendar.Format(e.Date),
			e.Description,
			category,
			e.Amount.InexactFloat64(),
			e.Currency,
			string(e.Status),
			strings.Join(e.TagNames(), ", "),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := f.Write(w); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
