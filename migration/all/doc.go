// Package all is the canonical location of the migrations applied to tenant
// documents.
//
// The array in all.go registers one entry per Implementation constant; the
// constant is the index of its entry, which keeps the set of implementations
// closed. Each entry names the project versions it upgrades from and the
// version a project is at afterwards.
//
// This package is arranged like so:
//
//	doc.go - this piece of documentation.
//	all.go - the Implementation constants, the entries and Registry.
//	000X_migration_name.go - one file per migration enumerated in all.go.
//
// A new migration gets the next constant, an entry in all.go and its own file.
// Latest must be moved to the target of the new entry.
package all
