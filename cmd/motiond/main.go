// Command motiond is the firmware's host-side entrypoint: it wires the
// settings disk, the transport (real serial port or a replayed file), and
// the motion.Controller, then drives the main cooperative loop described in
// the motion.Controller.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/tindervale/motionfw/hal"
	"github.com/tindervale/motionfw/hal/simhal"
	"github.com/tindervale/motionfw/kinematics"
	"github.com/tindervale/motionfw/logger"
	"github.com/tindervale/motionfw/motion"
	"github.com/tindervale/motionfw/prefs"
	"github.com/tindervale/motionfw/settingsdisk"
	"github.com/tindervale/motionfw/transport"
)

func main() {
	var (
		ttyDevice = flag.String("tty", "", "serial device to open (eg. /dev/ttyACM0); omit for a local stdin/stdout session")
		baud      = flag.Int("baud", 115200, "serial baud rate")
		replay    = flag.String("replay", "", "path to a G-code file to stream instead of an interactive session")
		settings  = flag.String("settings", "motionfw.settings", "settings file path")
		cmdline   = flag.String("pref", "", "ad-hoc key::value pairs pushed onto the prefs command-line stack (no setting reads them), eg. \"100::200; 110::4000\"")
	)
	flag.Parse()

	if *cmdline != "" {
		prefs.PushCommandLineStack(*cmdline)
		defer prefs.PopCommandLineStack()
	}

	store, err := settingsdisk.NewDisk(*settings)
	if err != nil {
		fmt.Fprintln(os.Stderr, "motiond:", err)
		os.Exit(1)
	}
	if err := store.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "motiond:", err)
		os.Exit(1)
	}

	var oc [kinematics.NumAxes]hal.OutputCompare
	var dirPins, enablePins [kinematics.NumAxes]hal.Gpio
	for i := range oc {
		oc[i] = simhal.NewOutputCompare()
		dirPins[i] = simhal.NewGpio()
		enablePins[i] = simhal.NewGpio()
	}

	if *replay != "" {
		var port transport.Port = newStdioPort()
		if *ttyDevice != "" {
			p, closePort := openPort(*ttyDevice, *baud)
			defer closePort()
			port = p
		}
		c := motion.New(store, oc, dirPins, enablePins, port)
		c.Welcome()
		runReplay(c, *replay)
		return
	}

	if *ttyDevice != "" {
		port, closePort := openPort(*ttyDevice, *baud)
		defer closePort()
		c := motion.New(store, oc, dirPins, enablePins, port)
		c.Welcome()
		runInteractive(c, port)
		return
	}

	// Local interactive session: read stdin in raw mode so real-time bytes
	// (?, !, ~, Ctrl-X) reach Feed immediately rather than waiting on the
	// terminal's own line buffering.
	port := newStdioPort()
	if raw, err := newTTYRaw(os.Stdin); err == nil {
		if err := raw.enable(); err == nil {
			defer raw.restore()
		}
	}

	c := motion.New(store, oc, dirPins, enablePins, port)
	c.Welcome()
	runInteractive(c, port)
}

func openPort(device string, baud int) (transport.Port, func()) {
	if device == "" {
		loop := transport.NewLoopback()
		return loop, func() {}
	}

	p, err := transport.OpenSerial(device, baud)
	if err != nil {
		fmt.Fprintln(os.Stderr, "motiond:", err)
		os.Exit(1)
	}
	return p, func() { _ = p.Close() }
}

func runReplay(c *motion.Controller, path string) {
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "motiond:", err)
		os.Exit(1)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	for {
		b, err := r.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Logf("motiond", "replay read error: %v", err)
			break
		}
		c.Feed(b)
		c.Step()
	}

	// drain any motion still in flight once the file is exhausted.
	for i := 0; i < 100000; i++ {
		c.Step()
	}
}

func runInteractive(c *motion.Controller, port transport.Port) {
	for {
		b, err := port.ReadByte()
		if err != nil {
			return
		}
		c.Feed(b)
		c.Step()
	}
}
