package store

import "context"

// Person is a directory entry from the personnel store. ID is free-text
// but treated as the primary key (typically a national ID).
type Person struct {
	ID           string
	Name         string
	Organization string
	Area         string
	Role         string
	Active       bool
}

// PersonnelStore supplies the personnel roster. It is read wholesale to
// (re)build the directory index; the engine never writes to it.
type PersonnelStore interface {
	ReadAll(ctx context.Context) ([]Person, error)
}
