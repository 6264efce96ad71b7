// Package env holds the payloads published to MQTT: the readings of one
// upload and the frame on the display.
package env

import (
	"bufio"
	"math"
	"os"
	"strings"
	"time"

	"github.com/relabs-tech/sensor_hats/internal/render"
	"github.com/relabs-tech/sensor_hats/internal/series"
)

// Reading is the newest value of one series.
type Reading struct {
	Label  string   `json:"label"`
	Unit   string   `json:"unit"`
	Value  *float64 `json:"value"`            // nil when the sample is missing
	Bucket *int     `json:"bucket,omitempty"` // severity 0..4 when the series has limits
}

// Sample represents the readings of a single upload.
type Sample struct {
	Source   string    `json:"source"` // "sensehat" or "enviro"
	DeviceID string    `json:"device_id"`
	Time     time.Time `json:"time"`
	Readings []Reading `json:"readings"`
}

// NewSample takes the newest value of every snapshot, rounded to rounding
// decimal places.
func NewSample(source, deviceID string, t time.Time, rounding int, snaps []series.Snapshot) Sample {
	s := Sample{Source: source, DeviceID: deviceID, Time: t, Readings: make([]Reading, 0, len(snaps))}
	for _, sn := range snaps {
		r := Reading{Label: sn.Label, Unit: sn.Unit}
		if v := sn.Latest(); v != nil {
			rounded := Round(*v, rounding)
			r.Value = &rounded
			if limits, ok := series.Limits(sn.Limits).Complete(); ok {
				b := render.Bucket(*v, limits)
				r.Bucket = &b
			}
		}
		s.Readings = append(s.Readings, r)
	}
	return s
}

// Get returns the reading labelled label.
func (s Sample) Get(label string) (Reading, bool) {
	for _, r := range s.Readings {
		if strings.EqualFold(r.Label, label) {
			return r, true
		}
	}
	return Reading{}, false
}

// Frame is the display contents at upload time.
type Frame struct {
	Source   string       `json:"source"`
	Time     time.Time    `json:"time"`
	Mode     int          `json:"mode"`
	Rotation int          `json:"rotation"`
	Sleeping bool         `json:"sleeping"`
	Frame    render.Frame `json:"frame"`
}

// Round rounds v to places decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// DeviceID identifies the Pi by its CPU serial number, falling back to the
// host name.
func DeviceID(prefix string) string {
	if serial := cpuSerial("/proc/cpuinfo"); serial != "" {
		return prefix + serial
	}
	host, err := os.Hostname()
	if err != nil {
		return prefix + "unknown"
	}
	return prefix + host
}

func cpuSerial(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if ok && strings.TrimSpace(key) == "Serial" {
			return strings.TrimLeft(strings.TrimSpace(val), "0")
		}
	}
	return ""
}
