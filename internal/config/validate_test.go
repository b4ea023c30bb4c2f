package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateRejectsEmptyMountSource(t *testing.T) {
	cfg := Default()
	cfg.MountPoint = "/mnt/csvfs"

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrEmptyMountSource)
}

func TestValidateRejectsEmptyMountPoint(t *testing.T) {
	cfg := Default()
	cfg.MountSource = "/data/source"

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrEmptyMountPoint)
}

func TestValidateRejectsNonPositivePageSize(t *testing.T) {
	cfg := Default()
	cfg.MountSource = "/data/source"
	cfg.MountPoint = "/mnt/csvfs"
	cfg.PageSize = 0

	err := Validate(cfg)
	require.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := Default()
	cfg.MountSource = "/data/source"
	cfg.MountPoint = "/mnt/csvfs"

	require.NoError(t, Validate(cfg))
}
