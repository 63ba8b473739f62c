package model

import "github.com/pkg/errors"

var (
	// ErrConflictingPhase is returned when both up-only and down-only are requested.
	ErrConflictingPhase = errors.New("cannot select both up and down windows")
	// ErrUnknownPhase is returned for phase names other than all, up and down.
	ErrUnknownPhase = errors.New("unknown phase")
	// ErrUnknownExperiment is returned when an experiment name is not configured.
	ErrUnknownExperiment = errors.New("unknown experiment")
	// ErrInvalidDay is returned for experiment days outside YYYYMMDD bounds.
	ErrInvalidDay = errors.New("invalid experiment day")
)
