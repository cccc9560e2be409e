package order

import (
	"errors"
	"fmt"
)

// Code is a stable machine-readable failure code. The string values match the
// codes the checkout client and the order_error_logs table already use.
type Code string

const (
	CodeInvalidInput      Code = "ERR_INVALID_INPUT"
	CodeMissingField      Code = "ERR_MISSING_FIELD"
	CodeVariantNotFound   Code = "ERR_VARIANT_NOT_FOUND"
	CodeInsufficientStock Code = "ERR_INSUFFICIENT_STOCK"
	CodeOrderCreate       Code = "ERR_ORDER_CREATE"
	CodeOrderItemCreate   Code = "ERR_ORDER_ITEM_CREATE"
	CodeStockFetch        Code = "ERR_STOCK_FETCH"
	CodeNegativeStock     Code = "ERR_NEGATIVE_STOCK"
	CodeStockUpdate       Code = "ERR_STOCK_UPDATE"
	CodeOrderExecution    Code = "ERR_ORDER_EXECUTION"
	CodeInventoryCheck    Code = "ERR_INVENTORY_CHECK"
)

// Error tags a failure with its code and a human-readable detail.
type Error struct {
	Code   Code
	Detail string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

func wrapError(code Code, err error, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

// CodeOf returns the failure code carried by err, or CodeOrderExecution when
// err is not tagged.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeOrderExecution
}

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrStatusAlreadySet        = errors.New("status is already set to the desired value")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
)
