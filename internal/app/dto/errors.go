package dto

import "errors"

// Flow errors
var (
	ErrInstantiationInFlight = errors.New("a template instantiation is already in flight")
	ErrTemplateNotFound      = errors.New("template not found")
)

// Run errors
var (
	ErrMissingGraphID = errors.New("graph ID is required")
	ErrInvalidInput   = errors.New("invalid input provided")
)
