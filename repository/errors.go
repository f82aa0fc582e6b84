package repository

import "errors"

// ErrNoRows is returned by mutations that matched no row.
var ErrNoRows = errors.New("no matching row")
