//go:build linux
// +build linux

package main

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/nikitakuklev/stepperd/internal/hal"
	"github.com/nikitakuklev/stepperd/internal/logger"
)

func initHAL() hal.HAL {
	if runtime.GOARCH != "arm64" && runtime.GOARCH != "arm" {
		logger.Info("non-ARM platform detected, using Mock HAL for GPIO")
		return hal.NewMockHAL()
	}

	rpiHAL, err := hal.NewRaspberryPiHAL()
	if err != nil {
		logger.Warn("failed to initialize RPi HAL, using Mock HAL", zap.Error(err))
		return hal.NewMockHAL()
	}
	logger.Info("Raspberry Pi HAL initialized",
		zap.String("board", rpiHAL.Info().Name),
		zap.String("gpio_chip", rpiHAL.Info().GPIOChip))
	return rpiHAL
}
