/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guesser

import "errors"

var (
	ErrInvalidRange           = errors.New("high must be greater than low")
	ErrInvalidCount           = errors.New("count must not be negative")
	ErrInsufficientPopulation = errors.New("not enough distinct items to sample from")
	ErrChampionNotFound       = errors.New("champion not found")
	ErrMalformedChampion      = errors.New("malformed champion data")
	ErrInvalidSlot            = errors.New("invalid ability slot")
	ErrInvalidGridSize        = errors.New("grid size must be at least 1")
	ErrInvalidGuess           = errors.New("guess does not match a spell on the board")
)
