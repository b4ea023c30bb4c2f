package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyMountSource indicates a missing source directory.
	ErrEmptyMountSource = errors.New("empty mount source")

	// ErrEmptyMountPoint indicates a missing mount point.
	ErrEmptyMountPoint = errors.New("empty mount point")

	// ErrInvalidPageSize indicates a non-positive page size.
	ErrInvalidPageSize = errors.New("invalid page size")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.MountSource) == "" {
		errs = append(errs, fmt.Errorf("%w: source directory is required", ErrEmptyMountSource))
	}

	if strings.TrimSpace(cfg.MountPoint) == "" {
		errs = append(errs, fmt.Errorf("%w: mount point is required", ErrEmptyMountPoint))
	}

	if cfg.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("%w: page_size must be positive, got %d", ErrInvalidPageSize, cfg.PageSize))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
