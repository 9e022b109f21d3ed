package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"spendwise/backend/services"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

var jsonNull = []byte("null")

// maxIntField bounds whole-number fields before they are narrowed to int
var maxIntField = decimal.NewFromInt(math.MaxInt32)

// decodeJSON reads the request body into dst; malformed JSON is a 400
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return services.NewValidationError("body", "Request body is required")
		}
		var fieldErr *json.UnmarshalTypeError
		if errors.As(err, &fieldErr) && fieldErr.Field != "" {
			return services.NewValidationError(fieldErr.Field, "Invalid value for %s", fieldErr.Field)
		}
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			return vErr
		}
		return services.NewValidationError("body", "Invalid request body")
	}
	return nil
}

// NumberField accepts a JSON number or a string holding one. Anything else
// is rejected when the value is read, not silently turned into NaN.
type NumberField struct {
	raw []byte
}

func (n *NumberField) UnmarshalJSON(b []byte) error {
	n.raw = append(n.raw[:0], b...)
	return nil
}

// Present reports whether the field was sent with a non-null value
func (n NumberField) Present() bool {
	return len(n.raw) > 0 && !bytes.Equal(n.raw, jsonNull)
}

func (n NumberField) text() string {
	s := string(n.raw)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	return strings.TrimSpace(s)
}

// Decimal parses the field; field names the value in the error message
func (n NumberField) Decimal(field string) (decimal.Decimal, error) {
	if !n.Present() {
		return decimal.Zero, services.NewValidationError(field, "%s is required", field)
	}
	d, err := decimal.NewFromString(n.text())
	if err != nil {
		return decimal.Zero, services.NewValidationError(field, "%s must be a number", field)
	}
	return d, nil
}

// Int parses the field as a whole number
func (n NumberField) Int(field string) (int, error) {
	d, err := n.Decimal(field)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, services.NewValidationError(field, "%s must be a whole number", field)
	}
	if d.Abs().GreaterThan(maxIntField) {
		return 0, services.NewValidationError(field, "%s is out of range", field)
	}
	return int(d.IntPart()), nil
}

// optionalDecimal returns nil when the field was not sent
func (n NumberField) optionalDecimal(field string) (*decimal.Decimal, error) {
	if !n.Present() {
		return nil, nil
	}
	d, err := n.Decimal(field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (n NumberField) optionalInt(field string) (*int, error) {
	if !n.Present() {
		return nil, nil
	}
	v, err := n.Int(field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// DateField distinguishes an absent date from an explicit null
type DateField struct {
	set bool
	raw []byte
}

func (d *DateField) UnmarshalJSON(b []byte) error {
	d.set = true
	d.raw = append(d.raw[:0], b...)
	return nil
}

// Cleared reports an explicit null or empty string
func (d DateField) Cleared() bool {
	if !d.set {
		return false
	}
	if bytes.Equal(d.raw, jsonNull) {
		return true
	}
	var s string
	return json.Unmarshal(d.raw, &s) == nil && strings.TrimSpace(s) == ""
}

// Time returns the parsed date, or nil when absent or cleared
func (d DateField) Time(field string) (*time.Time, error) {
	if !d.set || d.Cleared() {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(d.raw, &s); err != nil {
		return nil, services.NewValidationError(field, "%s must be a date", field)
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, services.NewValidationError(field, "%s must be a date", field)
	}
	return &t, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type expenseRequest struct {
	Amount      NumberField `json:"amount"`
	Description string      `json:"description"`
	CategoryID  string      `json:"categoryId"`
	Date        DateField   `json:"date"`
}

func (req expenseRequest) input() (services.ExpenseInput, error) {
	amount, err := req.Amount.Decimal("amount")
	if err != nil {
		return services.ExpenseInput{}, err
	}
	date, err := req.Date.Time("date")
	if err != nil {
		return services.ExpenseInput{}, err
	}
	return services.ExpenseInput{
		Amount:      amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		Date:        date,
	}, nil
}

type budgetRequest struct {
	Amount     NumberField `json:"amount"`
	CategoryID string      `json:"categoryId"`
	Month      NumberField `json:"month"`
	Year       NumberField `json:"year"`
}

func (req budgetRequest) input() (services.BudgetInput, error) {
	amount, err := req.Amount.Decimal("amount")
	if err != nil {
		return services.BudgetInput{}, err
	}
	month, err := req.Month.Int("month")
	if err != nil {
		return services.BudgetInput{}, err
	}
	year, err := req.Year.Int("year")
	if err != nil {
		return services.BudgetInput{}, err
	}
	return services.BudgetInput{Amount: amount, CategoryID: req.CategoryID, Month: month, Year: year}, nil
}

type categoryRequest struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
}

type billRequest struct {
	Name        *string     `json:"name"`
	Amount      NumberField `json:"amount"`
	DueDay      NumberField `json:"dueDay"`
	IsRecurring *bool       `json:"isRecurring"`
	IsPaid      *bool       `json:"isPaid"`
}

func (req billRequest) createInput() (services.BillInput, error) {
	amount, err := req.Amount.Decimal("amount")
	if err != nil {
		return services.BillInput{}, err
	}
	dueDay, err := req.DueDay.Int("dueDay")
	if err != nil {
		return services.BillInput{}, err
	}
	in := services.BillInput{Amount: amount, DueDay: dueDay, IsRecurring: req.IsRecurring}
	if req.Name != nil {
		in.Name = *req.Name
	}
	return in, nil
}

func (req billRequest) updateInput() (services.BillUpdate, error) {
	amount, err := req.Amount.optionalDecimal("amount")
	if err != nil {
		return services.BillUpdate{}, err
	}
	dueDay, err := req.DueDay.optionalInt("dueDay")
	if err != nil {
		return services.BillUpdate{}, err
	}
	return services.BillUpdate{
		IsPaid:      req.IsPaid,
		Name:        req.Name,
		Amount:      amount,
		DueDay:      dueDay,
		IsRecurring: req.IsRecurring,
	}, nil
}

type savingsRequest struct {
	Name          *string     `json:"name"`
	TargetAmount  NumberField `json:"targetAmount"`
	CurrentAmount NumberField `json:"currentAmount"`
	Deadline      DateField   `json:"deadline"`
}

func (req savingsRequest) createInput() (services.SavingsInput, error) {
	target, err := req.TargetAmount.Decimal("targetAmount")
	if err != nil {
		return services.SavingsInput{}, err
	}
	deadline, err := req.Deadline.Time("deadline")
	if err != nil {
		return services.SavingsInput{}, err
	}
	in := services.SavingsInput{TargetAmount: target, Deadline: deadline}
	if req.Name != nil {
		in.Name = *req.Name
	}
	return in, nil
}

func (req savingsRequest) updateInput() (services.SavingsUpdate, error) {
	target, err := req.TargetAmount.optionalDecimal("targetAmount")
	if err != nil {
		return services.SavingsUpdate{}, err
	}
	current, err := req.CurrentAmount.optionalDecimal("currentAmount")
	if err != nil {
		return services.SavingsUpdate{}, err
	}
	deadline, err := req.Deadline.Time("deadline")
	if err != nil {
		return services.SavingsUpdate{}, err
	}
	return services.SavingsUpdate{
		Name:          req.Name,
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      deadline,
		ClearDeadline: req.Deadline.Cleared(),
	}, nil
}

type contributionRequest struct {
	Amount NumberField `json:"amount"`
}

// periodFromQuery reads month and year query parameters. With fallback set,
// a missing parameter takes its value from fallback; otherwise both must be
// sent for a period to be returned.
func periodFromQuery(r *http.Request, fallback *services.Period) (*services.Period, error) {
	q := r.URL.Query()
	monthStr, yearStr := strings.TrimSpace(q.Get("month")), strings.TrimSpace(q.Get("year"))

	if fallback == nil && (monthStr == "" || yearStr == "") {
		return nil, nil
	}

	month, year := 0, 0
	if fallback != nil {
		month, year = fallback.Month, fallback.Year
	}
	if monthStr != "" {
		v, err := strconv.Atoi(monthStr)
		if err != nil {
			return nil, services.NewValidationError("month", "month must be a number")
		}
		month = v
	}
	if yearStr != "" {
		v, err := strconv.Atoi(yearStr)
		if err != nil {
			return nil, services.NewValidationError("year", "year must be a number")
		}
		year = v
	}

	p, err := services.NewPeriod(month, year)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
