package sensors

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CPUTemp reads the SoC temperature through vcgencmd. It is used to
// compensate climate readings for board self-heating.
type CPUTemp struct {
	// Fallback supplies the temperature when vcgencmd is not installed and
	// Strict is false.
	Fallback Climate
	Strict   bool

	run func(ctx context.Context) ([]byte, error)
}

// NewCPUTemp returns a reader backed by `vcgencmd measure_temp`.
func NewCPUTemp(fallback Climate, strict bool) *CPUTemp {
	return &CPUTemp{Fallback: fallback, Strict: strict, run: runVcgencmd}
}

func runVcgencmd(ctx context.Context) ([]byte, error) {
	return exec.CommandContext(ctx, "vcgencmd", "measure_temp").Output()
}

// CPUTemperature returns the SoC temperature in °C.
func (c *CPUTemp) CPUTemperature() (float64, error) {
	return c.Read(context.Background())
}

// Read runs vcgencmd under ctx.
func (c *CPUTemp) Read(ctx context.Context) (float64, error) {
	out, err := c.run(ctx)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) && !c.Strict && c.Fallback != nil {
			return c.Fallback.Temperature()
		}
		return 0, fmt.Errorf("cpu temp: vcgencmd: %w", err)
	}
	return parseMeasureTemp(string(out))
}

// parseMeasureTemp parses output such as "temp=48.3'C".
func parseMeasureTemp(out string) (float64, error) {
	start := strings.Index(out, "=")
	end := strings.LastIndex(out, "'")
	if start < 0 || end <= start {
		return 0, fmt.Errorf("cpu temp: unexpected output %q", strings.TrimSpace(out))
	}
	v, err := strconv.ParseFloat(out[start+1:end], 64)
	if err != nil {
		return 0, fmt.Errorf("cpu temp: parse %q: %w", out[start+1:end], err)
	}
	return v, nil
}

// Compensate removes the share of SoC heat from a board temperature
// reading. Larger factors correct less; factor <= 0 returns raw.
func Compensate(raw, cpu, factor float64) float64 {
	if factor <= 0 {
		return raw
	}
	return raw - (cpu-raw)/factor
}
