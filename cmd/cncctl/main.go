// Command cncctl is an interactive console for the motion pipeline,
// grounded on the teacher firmware's host/cmd/gopper-host CLI: a
// flag-configured connection plus a bufio.Scanner command loop, adapted
// from a Klipper-dictionary debug console into a gcode streaming client.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tarm/serial"

	"cncmotion/core"
	"cncmotion/manager"
	"cncmotion/motion"
	"cncmotion/motion/config"
	"cncmotion/motion/kinematics"
)

var (
	configPath = flag.String("config", "", "path to a JSON machine configuration file")
	device     = flag.String("device", "", "stream gcode from this serial device instead of stdin")
	baud       = flag.Int("baud", 115200, "baud rate when -device is set")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	core.SetGPIODriver(newSimGPIO())

	pins := defaultMotorPins(cfg)
	kin := kinematics.NewCartesian()
	m, err := manager.New(cfg, kin, pins, motion.Vector6{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize machine: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("cncctl motion console")
	fmt.Println("type gcode lines, 'status' for a report, 'quit' to exit")

	if *device != "" {
		runSerial(m, *device, *baud)
		return
	}
	runInteractive(m)
}

func loadConfig(path string) (*config.Table, error) {
	if path == "" {
		return config.NewTable(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return config.LoadJSON(data)
}

// defaultMotorPins assigns a conventional 4-motor pin layout. Pin numbers
// are placeholders for whatever board the embedding application targets;
// spec.md's config key table does not cover GPIO assignment.
func defaultMotorPins(cfg *config.Table) []manager.MotorPins {
	layout := []struct{ step, dir, en core.GPIOPin }{
		{0, 1, 2},
		{3, 4, 5},
		{6, 7, 8},
		{9, 10, 11},
	}
	pins := make([]manager.MotorPins, 0, motion.MaxMotors)
	for i := 0; i < motion.MaxMotors; i++ {
		mc := cfg.MotorConfig(i + 1)
		if !mc.Enabled || mc.StepAngle <= 0 {
			continue
		}
		p := layout[i]
		pins = append(pins, manager.MotorPins{Step: p.step, Dir: p.dir, Enable: p.en, HasEnable: true})
	}
	if len(pins) == 0 {
		// A fresh, unconfigured table still needs at least one motor
		// wired up so the runtime has somewhere to send steps.
		pins = append(pins, manager.MotorPins{Step: layout[0].step, Dir: layout[0].dir, Enable: layout[0].en, HasEnable: true})
	}
	return pins
}

func runInteractive(m *manager.Machine) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if handleConsoleCommand(m, line) {
			continue
		}
		report(m, line, m.ExecuteLine(line))
	}
}

func runSerial(m *manager.Machine, device string, baud int) {
	port, err := serial.OpenPort(&serial.Config{Name: device, Baud: baud})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open %s: %v\n", device, err)
		os.Exit(1)
	}
	defer port.Close()

	if err := m.RunReader(port, func(line string, st motion.Status) {
		report(m, line, st)
	}); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
}

func handleConsoleCommand(m *manager.Machine, line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		os.Exit(0)
	case "status":
		fmt.Println(m.Status())
	case "feedhold":
		m.Feedhold()
	case "resume":
		m.Resume()
	case "flush":
		m.FlushQueue()
	case "clear":
		m.ClearAlarm()
	default:
		return false
	}
	return true
}

func report(m *manager.Machine, line string, st motion.Status) {
	if st == motion.StatusOK {
		fmt.Println("ok")
		return
	}
	fmt.Printf("error: %s (%s)\n", st, line)
}
