// Package settingsdisk wires kinematics.Store to the generic prefs.Disk
// preference file, giving the firmware's "$n=v" setting table somewhere to
// persist between power cycles.
package settingsdisk

import (
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/tindervale/motionfw/errors"
	"github.com/tindervale/motionfw/kinematics"
	"github.com/tindervale/motionfw/logger"
	"github.com/tindervale/motionfw/prefs"
)

// Disk is a kinematics.Store backed by a prefs.Disk file, one prefs.Float
// per SettingID named "$<id>".
type Disk struct {
	mu     sync.RWMutex
	disk   *prefs.Disk
	values map[kinematics.SettingID]*prefs.Float
}

// NewDisk opens (but does not yet load) a settings file at filename,
// pre-registering one Float for every SettingID the kinematics package knows
// about: the four per-axis families plus the two global settings.
func NewDisk(filename string) (*Disk, error) {
	d, err := prefs.NewDisk(filename)
	if err != nil {
		return nil, fmt.Errorf("settingsdisk: %w", err)
	}

	sd := &Disk{
		disk:   d,
		values: make(map[kinematics.SettingID]*prefs.Float),
	}

	ids := []kinematics.SettingID{
		kinematics.SettingJunctionDeviation,
		kinematics.SettingArcTolerance,
	}
	for axis := kinematics.AxisID(0); axis < kinematics.NumAxes; axis++ {
		ids = append(ids,
			kinematics.StepsPerMMID(axis),
			kinematics.MaxRateID(axis),
			kinematics.MaxAccelID(axis),
			kinematics.MaxTravelID(axis),
		)
	}

	for _, id := range ids {
		f := &prefs.Float{}
		if err := d.Add(key(id), f); err != nil {
			return nil, fmt.Errorf("settingsdisk: %w", err)
		}
		sd.values[id] = f
	}

	return sd, nil
}

func key(id kinematics.SettingID) string {
	return "$" + strconv.Itoa(int(id))
}

// Load reads the backing file, applying any persisted value to its
// registered setting. A missing file is not an error: the registered
// defaults stand and a fresh file is written on the next Save.
func (d *Disk) Load() error {
	if _, err := os.Stat(d.disk.Filename()); os.IsNotExist(err) {
		logger.Logf("settingsdisk", errors.SettingsNoFile, d.disk.Filename())
	}
	return d.disk.Load()
}

// Save persists every known setting to the backing file.
func (d *Disk) Save() error {
	return d.disk.Save()
}

// Get implements kinematics.Store.
func (d *Disk) Get(id kinematics.SettingID) (float64, bool) {
	d.mu.RLock()
	f, ok := d.values[id]
	d.mu.RUnlock()
	if !ok {
		return 0, false
	}
	return f.Get(), true
}

// Set implements kinematics.Store.
func (d *Disk) Set(id kinematics.SettingID, value float64) error {
	d.mu.RLock()
	f, ok := d.values[id]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("settingsdisk: unknown setting %v", id)
	}
	if err := f.Set(value); err != nil {
		return fmt.Errorf("settingsdisk: %w", err)
	}
	return d.Save()
}

// All implements kinematics.Store.
func (d *Disk) All() map[kinematics.SettingID]float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[kinematics.SettingID]float64, len(d.values))
	for id, f := range d.values {
		out[id] = f.Get()
	}
	return out
}
