// Package policy loads the client policy catalog and resolves the concrete
// policy an audit run executes under.
package policy

import "fmt"

// NotFoundError means an explicitly requested policy id is not in the
// catalog. Fatal for the audit run; only "auto" detection may fall back.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("policy not found: %q", e.ID)
}

// CatalogError means the catalog file could not be loaded or failed
// validation at startup.
type CatalogError struct {
	Path    string
	Message string
	Cause   error
}

func (e *CatalogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("policy catalog %s: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("policy catalog %s: %s", e.Path, e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Cause
}
