//go:build !linux
// +build !linux

package main

import (
	"github.com/nikitakuklev/stepperd/internal/hal"
	"github.com/nikitakuklev/stepperd/internal/logger"
)

func initHAL() hal.HAL {
	logger.Info("non-Linux platform detected, using Mock HAL for GPIO")
	return hal.NewMockHAL()
}
