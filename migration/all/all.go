package all

import (
	"github.com/weiplanet/docmigrate/migration"
)

// Latest is the version projects are upgraded to.
const Latest = "1.0.0"

// Registered implementations.
const (
	BackfillAuditResource migration.Implementation = iota
	NormalizeUserEmails
	AuditTimeToDatetime

	implementationCount
)

var entries = [implementationCount]migration.Entry{
	BackfillAuditResource: {
		Implementation: BackfillAuditResource,
		Name:           "backfill audit resource",
		Versions:       []string{"0.10.0", "0.10.1", "0.10.2"},
		Target:         "0.11.0",
		New:            func() migration.Migration { return Migration0001_BackfillAuditResource },
	},
	NormalizeUserEmails: {
		Implementation: NormalizeUserEmails,
		Name:           "normalize user emails",
		Versions:       []string{"0.11.0", "0.11.1"},
		Target:         "0.12.0",
		New:            func() migration.Migration { return Migration0002_NormalizeUserEmails },
	},
	AuditTimeToDatetime: {
		Implementation: AuditTimeToDatetime,
		Name:           "audit time to datetime",
		Versions:       []string{"0.12.0", "0.12.1", "0.12.2", "0.12.3"},
		Target:         Latest,
		New:            func() migration.Migration { return Migration0003_AuditTimeToDatetime },
	},
}

// Entries returns the registered entries, indexed by implementation.
func Entries() []migration.Entry {
	out := make([]migration.Entry, len(entries))
	copy(out, entries[:])
	return out
}

// Registry returns the registry of every migration of this package.
func Registry() (*migration.Registry, error) {
	return migration.NewRegistry(Latest, Entries()...)
}
