package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrInputTooLong        = errors.New("input text too long")
	ErrUpstream            = errors.New("upstream provider error")
	ErrUpstreamRateLimited = errors.New("upstream rate limited")
	ErrEmptyGeneration     = errors.New("empty generation result")
)
