// Package battery reads power and capacity from a sysfs power_supply
// directory.
package battery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nerrad567/rice/internal/infrastructure/config"
	"github.com/nerrad567/rice/internal/status"
)

// DefaultDir is used when Reader.Dir is empty.
const DefaultDir = config.DefaultBatteryPath

var (
	// ErrRead indicates the attribute file could not be read.
	ErrRead = errors.New("battery: read failed")

	// ErrParse indicates the attribute was empty or not an integer.
	ErrParse = errors.New("battery: invalid value")
)

// Widget classes.
const (
	ClassPower      = "power"
	ClassPowerIdle  = "power-idle"
	ClassPowerErr   = "power-err"
	ClassBattery    = "battery"
	ClassBatteryErr = "battery-err"
)

// Reader reads attributes of one battery.
type Reader struct {
	Dir string
}

func (r Reader) dir() string {
	if r.Dir == "" {
		return DefaultDir
	}
	return r.Dir
}

// ReadPower returns the discharge rate in microwatts. ok is false while
// the value is zero or positive, i.e. the battery is charging or idle.
func (r Reader) ReadPower() (microwatts int64, ok bool, err error) {
	v, err := r.readInt("power_now")
	if err != nil {
		return 0, false, err
	}
	if v >= 0 {
		return 0, false, nil
	}
	return -v, true, nil
}

// ReadCapacity returns the charge level in percent.
func (r Reader) ReadCapacity() (int64, error) {
	return r.readInt("capacity")
}

// PowerStatus reports the discharge rate in watts with one decimal.
func (r Reader) PowerStatus() status.Response {
	return PowerStatusFor(r.ReadPower())
}

// PowerStatusFor maps a ReadPower result to a response.
func PowerStatusFor(uw int64, ok bool, err error) status.Response {
	switch {
	case err != nil:
		return status.Response{Class: ClassPowerErr, Text: "ERR"}
	case !ok:
		// A single space keeps the bar from collapsing the module.
		return status.Response{Class: ClassPowerIdle, Text: " "}
	default:
		return status.Response{Class: ClassPower, Text: fmt.Sprintf("%.1fW", float64(uw)/1e6)}
	}
}

// CapacityStatus reports the charge level.
func (r Reader) CapacityStatus() status.Response {
	return CapacityStatusFor(r.ReadCapacity())
}

// CapacityStatusFor maps a ReadCapacity result to a response.
func CapacityStatusFor(pct int64, err error) status.Response {
	if err != nil {
		return status.Response{Class: ClassBatteryErr, Text: "ERR"}
	}
	return status.Response{Class: ClassBattery, Text: fmt.Sprintf("%d%%", pct)}
}

func (r Reader) readInt(name string) (int64, error) {
	path := filepath.Join(r.dir(), name)
	data, err := os.ReadFile(path) //nolint:gosec // sysfs path from config or flag
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRead, err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return 0, fmt.Errorf("%w: %s is empty", ErrParse, path)
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	return v, nil
}
