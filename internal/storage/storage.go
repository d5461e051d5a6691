// Package storage holds the errors shared by the relational store
// implementations in its subpackages.
package storage

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrAlreadyExists     = errors.New("record already exists")
	ErrReferenceNotFound = errors.New("referenced record not found")
)
