// Package provider defines the contract between the reconciler and a DNS
// provider that owns the managed record.
package provider

import "context"

// RecordType represents the type of DNS record.
type RecordType string

const (
	RecordTypeA    RecordType = "A"
	RecordTypeAAAA RecordType = "AAAA"
)

// ManagedRecord is the single DNS record kept in sync with the local address.
//
// Content is the value the remote system is known to hold. Callers must only
// change it after a confirmed successful write.
type ManagedRecord struct {
	ID       string
	ZoneID   string
	ZoneName string
	Name     string
	Type     RecordType
	Content  string
}

// Gateway reads and writes a single remote DNS record.
type Gateway interface {
	// FetchRecord reads the record with the given provider identifier.
	FetchRecord(ctx context.Context, recordID string) (*ManagedRecord, error)

	// UpdateRecord replaces the record content. A nil error means the provider
	// accepted the write, not that it has propagated.
	UpdateRecord(ctx context.Context, recordID string, recordType RecordType, name, content string) error
}

// Pinger is implemented by gateways that can verify connectivity and credentials.
type Pinger interface {
	Ping(ctx context.Context) error
}
