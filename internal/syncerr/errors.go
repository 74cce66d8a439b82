// Package syncerr defines the error taxonomy shared by the export and import
// pipelines. Every error carries enough sku/barcode/attribute context to
// re-drive a later run without manual diagnosis.
package syncerr

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ValidationError signals a required attribute or value missing on an entity.
// It degrades only the affected variation/item; the batch continues.
type ValidationError struct {
	SKU       string
	Barcode   string
	Attribute string
	Reason    string
}

func (e *ValidationError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("validation failed for sku %q: attribute %q %s", e.SKU, e.Attribute, e.Reason)
	}
	return fmt.Sprintf("validation failed for sku %q: %s", e.SKU, e.Reason)
}

// MappingError signals a missing marketplace category/attribute/value
// correspondence. It degrades the affected item; the batch continues.
type MappingError struct {
	SKU         string
	Marketplace string
	Subject     string // category, attribute or value
	Name        string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("no %s %s mapping for %q (sku %q)", e.Marketplace, e.Subject, e.Name, e.SKU)
}

// DuplicateError signals an ambiguous barcode or SKU group. The entire group
// is aborted; no guess is made about which product is authoritative.
type DuplicateError struct {
	SKU        string
	Barcodes   []string
	ProductIDs []uuid.UUID
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("ambiguous group for sku %q: barcodes %v resolve to %d distinct products", e.SKU, e.Barcodes, len(e.ProductIDs))
}

// RemoteError signals a non-success response or business error from the
// marketplace. It is logged and surfaced; the batch continues with the next
// chunk. The client layer performs no automatic retry.
type RemoteError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("marketplace %s failed (status %d): %s", e.Op, e.StatusCode, e.Detail)
}

// CredentialError signals a missing or invalid API token. It aborts the
// entire run immediately.
type CredentialError struct {
	Integration string
	Reason      string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credentials for integration %q: %s", e.Integration, e.Reason)
}

// IsFatal reports whether err must abort the whole run rather than a single
// item or group.
func IsFatal(err error) bool {
	var ce *CredentialError
	return errors.As(err, &ce)
}

// IsItemLevel reports whether err degrades a single item and lets the batch
// continue.
func IsItemLevel(err error) bool {
	var ve *ValidationError
	var me *MappingError
	return errors.As(err, &ve) || errors.As(err, &me)
}
