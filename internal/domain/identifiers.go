package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Errors for identifier value objects
var (
	ErrEmptySKU          = errors.New("sku is required")
	ErrInvalidSKU        = errors.New("invalid sku format")
	ErrEmptyStoreID      = errors.New("store id is required")
	ErrInvalidStoreID    = errors.New("invalid store id format")
	ErrEmptyTerminalID   = errors.New("terminal id is required")
)

var (
	skuPattern     = regexp.MustCompile(`^[A-Z0-9\-]+$`)
	storeIDPattern = regexp.MustCompile(`^[A-Z0-9\-]+$`)
)

// SKU identifies a product. Normalized to upper case, 3-50 characters,
// alphanumeric and dashes only.
type SKU string

// NewSKU validates and normalizes a raw SKU string
func NewSKU(raw string) (SKU, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrEmptySKU
	}
	if len(value) < 3 || len(value) > 50 {
		return "", fmt.Errorf("%w: must be between 3 and 50 characters", ErrInvalidSKU)
	}
	if !skuPattern.MatchString(value) {
		return "", fmt.Errorf("%w: only letters, digits and dashes allowed", ErrInvalidSKU)
	}
	return SKU(value), nil
}

func (s SKU) String() string {
	return string(s)
}

// StoreID identifies a retail store. Normalized to upper case,
// 2-20 characters.
type StoreID string

// NewStoreID validates and normalizes a raw store identifier
func NewStoreID(raw string) (StoreID, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrEmptyStoreID
	}
	if len(value) < 2 || len(value) > 20 {
		return "", fmt.Errorf("%w: must be between 2 and 20 characters", ErrInvalidStoreID)
	}
	if !storeIDPattern.MatchString(value) {
		return "", fmt.Errorf("%w: only letters, digits and dashes allowed", ErrInvalidStoreID)
	}
	return StoreID(value), nil
}

func (s StoreID) String() string {
	return string(s)
}

// TerminalID identifies a point-of-sale terminal within a store
type TerminalID string

// NewTerminalID validates and normalizes a raw terminal identifier
func NewTerminalID(raw string) (TerminalID, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value == "" {
		return "", ErrEmptyTerminalID
	}
	return TerminalID(value), nil
}

func (t TerminalID) String() string {
	return string(t)
}
