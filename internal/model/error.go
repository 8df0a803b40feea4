package model

import "fmt"

// Error codes returned in the "error" field of API responses.
const (
	ErrCodeEmptyCart             = "EMPTY_CART"
	ErrCodeInvalidItem           = "INVALID_ITEM"
	ErrCodeProductNotFound       = "PRODUCT_NOT_FOUND"
	ErrCodeInsufficientStock     = "INSUFFICIENT_STOCK"
	ErrCodeInvalidStatus         = "INVALID_STATUS"
	ErrCodeInvalidJSON           = "INVALID_JSON"
	ErrCodeInvalidID             = "INVALID_ID"
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeOrderNotFound         = "ORDER_NOT_FOUND"
	ErrCodeIngredientNotFound    = "INGREDIENT_NOT_FOUND"
	ErrCodeSupplierNotFound      = "SUPPLIER_NOT_FOUND"
	ErrCodePromotionNotFound     = "PROMOTION_NOT_FOUND"
	ErrCodeDuplicateCode         = "DUPLICATE_CODE"
	ErrCodeIngredientInUse       = "INGREDIENT_IN_USE"
	ErrCodeNoItems               = "NO_ITEMS"
	ErrCodeInvalidAdjustmentType = "INVALID_ADJUSTMENT_TYPE"
	ErrCodeInvalidPromotionType  = "INVALID_PROMOTION_TYPE"
	ErrCodeInvalidDate           = "INVALID_DATE"
	ErrCodeUnauthorised          = "UNAUTHORIZED"
	ErrCodeInternalError         = "INTERNAL_ERROR"
)

// DomainError is a business rule violation that is safe to show to the caller.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a DomainError with the same code, so that a
// detailed copy produced by Withf still matches its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// Withf returns a copy of the error carrying a more specific message.
func (e *DomainError) Withf(format string, args ...any) *DomainError {
	return &DomainError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrEmptyCart             = NewDomainError(ErrCodeEmptyCart, "Order must contain at least one item")
	ErrInvalidItem           = NewDomainError(ErrCodeInvalidItem, "Each item needs a product id and a positive quantity")
	ErrProductNotFound       = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrInsufficientStock     = NewDomainError(ErrCodeInsufficientStock, "Not enough stock")
	ErrInvalidStatus         = NewDomainError(ErrCodeInvalidStatus, "Invalid status")
	ErrOrderNotFound         = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrIngredientNotFound    = NewDomainError(ErrCodeIngredientNotFound, "Ingredient not found")
	ErrSupplierNotFound      = NewDomainError(ErrCodeSupplierNotFound, "Supplier not found")
	ErrPromotionNotFound     = NewDomainError(ErrCodePromotionNotFound, "Promotion not found")
	ErrDuplicateCode         = NewDomainError(ErrCodeDuplicateCode, "Promotion code already exists")
	ErrIngredientInUse       = NewDomainError(ErrCodeIngredientInUse, "Ingredient is used by a product recipe")
	ErrNoItems               = NewDomainError(ErrCodeNoItems, "At least one item is required")
	ErrInvalidAdjustmentType = NewDomainError(ErrCodeInvalidAdjustmentType, "Adjustment type must be increase, decrease, set or receive")
	ErrInvalidPromotionType  = NewDomainError(ErrCodeInvalidPromotionType, "Promotion type must be percent or fixed")
	ErrInvalidDate           = NewDomainError(ErrCodeInvalidDate, "Dates must be formatted as YYYY-MM-DD")
	ErrValidation            = NewDomainError(ErrCodeValidation, "Validation failed")
	ErrInvalidJSON           = NewDomainError(ErrCodeInvalidJSON, "Request body is not valid JSON")
	ErrInvalidID             = NewDomainError(ErrCodeInvalidID, "Invalid id")
	ErrNotFound              = NewDomainError(ErrCodeNotFound, "Not found")
	ErrUnauthorised          = NewDomainError(ErrCodeUnauthorised, "Missing or invalid API key")
	ErrInternal              = NewDomainError(ErrCodeInternalError, "Internal server error")
)
