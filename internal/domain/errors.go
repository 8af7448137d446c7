package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyBook    = errors.New("orderbook is empty")
	ErrRateLimited  = errors.New("rate limited")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidOrder = errors.New("invalid order parameters")
)
