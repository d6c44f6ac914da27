package repository

import "errors"

// ErrNoRowsAffected is returned by writes that matched no record.
var ErrNoRowsAffected = errors.New("no rows affected")
