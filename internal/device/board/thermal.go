package board

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3/sysfs"
)

var errNoThermalZone = errors.New("no thermal zone")

// sysfsThermometer reads the first thermal zone found by the host drivers.
type sysfsThermometer struct{}

func newSysfsThermometer() *sysfsThermometer {
	return new(sysfsThermometer)
}

// Celsius implements Thermometer.
func (*sysfsThermometer) Celsius() (float64, error) {
	if len(sysfs.ThermalSensors) == 0 {
		return 0, errNoThermalZone
	}

	var env physic.Env
	if err := sysfs.ThermalSensors[0].Sense(&env); err != nil {
		return 0, fmt.Errorf("sense %s: %w", sysfs.ThermalSensors[0], err)
	}

	return env.Temperature.Celsius(), nil
}
