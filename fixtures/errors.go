package fixtures

import "errors"

var (
	ErrNoRecord      = errors.New("no case-record type declared")
	ErrInvalidField  = errors.New("invalid record field")
	ErrUnknownType   = errors.New("unknown field type")
	ErrUnknownField  = errors.New("value for undeclared field")
	ErrInvalidValue  = errors.New("invalid value")
	ErrNoNameColumn  = errors.New("table has no name column")
	ErrNoVerify      = errors.New("no verify expression")
	ErrFixtureClash  = errors.New("fixture shadows a record field")
	ErrUnknownFormat = errors.New("unsupported table file")
)
