package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "lifeos/internal/errors"
	"lifeos/internal/models"
	"lifeos/internal/pagination"
	"lifeos/internal/services"
)

const (
	maxImportBody = 2 << 20
	xlsxMediaType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// CreateExpenseRequest represents the request payload for recording an expense.
type CreateExpenseRequest struct {
	CategoryID  *string              `json:"category_id" binding:"omitempty,uuid"`
	Amount      decimal.Decimal      `json:"amount" swaggertype:"string" example:"12.50"`
	Currency    string               `json:"currency" binding:"omitempty,iso4217"`
	Date        string               `json:"date" binding:"required" example:"2025-03-01"`
	Description string               `json:"description" binding:"max=500"`
	Status      models.ExpenseStatus `json:"status" binding:"omitempty,expense_status"`
	Tags        []string             `json:"tags" binding:"max=20,dive,min=1,max=64"`
}

// UpdateExpenseRequest represents the request payload for updating an expense.
// Omitted fields are left unchanged; an empty category_id clears the category.
type UpdateExpenseRequest struct {
	CategoryID  *string               `json:"category_id"`
	Amount      *decimal.Decimal      `json:"amount" swaggertype:"string"`
	Currency    *string               `json:"currency" binding:"omitempty,iso4217"`
	Date        *string               `json:"date"`
	Description *string               `json:"description" binding:"omitempty,max=500"`
	Status      *models.ExpenseStatus `json:"status" binding:"omitempty,expense_status"`
	Tags        *[]string             `json:"tags" binding:"omitempty,max=20,dive,min=1,max=64"`
}

// CreateExpense records a manual expense.
// @Summary     Create an expense
// @Description Record a manual expense. Tags starting with subscription: or utility-bill: are reserved.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, services.ExpenseInput{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Date:        date,
		Description: req.Description,
		Status:      req.Status,
		Tags:        req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]any{"amount": expense.Amount.String(), "date": req.Date})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpenses lists the user's expenses.
// @Summary     Get expenses
// @Description Get a paginated list of expenses, newest first
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from_date   query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date     query string false "Latest date (YYYY-MM-DD)"
// @Param       category_id query string false "Filter by category"
// @Param       tag         query string false "Filter by tag"
// @Param       status      query string false "Filter by status (pending/confirmed)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := expenseFilterFromQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.GetUserExpenses(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense returns one expense.
// @Summary     Get expense by ID
// @Description Get a specific expense with its tags
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense updates an expense.
// @Summary     Update expense
// @Description Update an expense. Replacing tags keeps any subscription or utility-bill tag.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to change"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input or expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, services.ExpenseUpdate{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Date:        date,
		Description: req.Description,
		Status:      req.Status,
		Tags:        req.Tags,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense deletes an expense.
// @Summary     Delete expense
// @Description Soft-delete an expense and its tags
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted successfully"})
}

// ImportExpenses bulk-imports expenses from a JSON document.
// @Summary     Import expenses
// @Description Import up to 1000 expenses. The whole batch is rejected if any row is invalid.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body object true "{\"expenses\": [...]}"
// @Success     201 {object} services.ImportResult "Imported expense IDs"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     422 {object} ErrorResponse "Schema violation"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/import [post]
func (h *ExpenseHandler) ImportExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBody+1))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "could not read request body"))
		return
	}
	if len(payload) > maxImportBody {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "import payload is too large"))
		return
	}

	result, err := h.expenseService.ImportExpenses(userID, payload)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "IMPORT_EXPENSES", "expense", "", c.ClientIP(),
		map[string]any{"imported": result.Imported})

	c.JSON(http.StatusCreated, result)
}

// ExportExpenses downloads the filtered expenses as an XLSX workbook.
// @Summary     Export expenses
// @Description Export expenses matching the filters to an Excel workbook
// @Tags        expenses
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       from_date   query string false "Earliest date (YYYY-MM-DD)"
// @Param       to_date     query string false "Latest date (YYYY-MM-DD)"
// @Param       category_id query string false "Filter by category"
// @Param       tag         query string false "Filter by tag"
// @Success     200 {file} file "Workbook"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /expenses/export [get]
func (h *ExpenseHandler) ExportExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filter, err := expenseFilterFromQuery(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Buffer the workbook so a failure can still be reported as JSON.
	var buf bytes.Buffer
	if err := h.expenseService.ExportExpenses(userID, filter, &buf); err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="expenses.xlsx"`)
	c.Data(http.StatusOK, xlsxMediaType, buf.Bytes())
}

func expenseFilterFromQuery(c *gin.Context) (services.ExpenseFilter, error) {
	var filter services.ExpenseFilter
	var err error
	if filter.FromDate, err = queryDate(c, "from_date"); err != nil {
		return filter, err
	}
	if filter.ToDate, err = queryDate(c, "to_date"); err != nil {
		return filter, err
	}
	filter.CategoryID = queryString(c, "category_id")
	filter.Tag = queryString(c, "tag")
	if v := c.Query("status"); v != "" {
		s := models.ExpenseStatus(v)
		if s != models.ExpenseStatusPending && s != models.ExpenseStatusConfirmed {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be 'pending' or 'confirmed'")
		}
		filter.Status = &s
	}
	return filter, nil
}
