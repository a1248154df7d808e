package motion

import (
	"github.com/nikitakuklev/stepperd/internal/hal"
	"github.com/nikitakuklev/stepperd/internal/logger"
	"go.uber.org/zap"
)

// CheckOptions controls how a non-OK interlock verdict is surfaced.
type CheckOptions struct {
	RaiseOnFail bool
	Silent      bool
}

// checkInterlocks evaluates a motor's interlock state against global
// emergency-stop and its two limit switches. Evaluation order is fixed
// (spec §4.3, corrected polarity per the Open Questions resolution in
// SPEC_FULL §9): ESTOP, then LIMIT_UP, then LIMIT_DOWN, then OK. Each
// limit is sampled twice to filter a single-sample transient.
func checkInterlocks(g *Global, d *Descriptor, gpio hal.GPIOProvider, opts CheckOptions) (Verdict, error) {
	if g.EmergencyStop() {
		return eStopVerdict(d, opts)
	}

	upA, err := gpio.DigitalRead(d.PinLimitUp)
	if err != nil {
		return OK, err
	}
	upB, err := gpio.DigitalRead(d.PinLimitUp)
	if err != nil {
		return OK, err
	}
	if upA == d.LimitUpHitLevel && upB == d.LimitUpHitLevel {
		return verdict(LimitUp, d, opts)
	}

	dnA, err := gpio.DigitalRead(d.PinLimitDown)
	if err != nil {
		return OK, err
	}
	dnB, err := gpio.DigitalRead(d.PinLimitDown)
	if err != nil {
		return OK, err
	}
	if dnA == d.LimitDownHitLevel && dnB == d.LimitDownHitLevel {
		return verdict(LimitDown, d, opts)
	}

	return OK, nil
}

func eStopVerdict(d *Descriptor, opts CheckOptions) (Verdict, error) {
	return verdict(EStop, d, opts)
}

func verdict(v Verdict, d *Descriptor, opts CheckOptions) (Verdict, error) {
	if !opts.Silent {
		logger.Warn("interlock tripped", zap.String("motor", d.ShortName), zap.String("verdict", v.String()))
	}
	if opts.RaiseOnFail && v != OK {
		return v, &MoveAbort{Verdict: v}
	}
	return v, nil
}
