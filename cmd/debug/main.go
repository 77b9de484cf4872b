package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thatsimonsguy/plant-controller/db"
	"github.com/thatsimonsguy/plant-controller/internal/config"
	"github.com/thatsimonsguy/plant-controller/internal/gpio"
	"github.com/thatsimonsguy/plant-controller/system/startup"
)

func main() {
	DebugCLI()
}

func DebugCLI() {
	var dbPath, command, configFile, user, workdir, execCmd string
	var limit int
	var since time.Duration
	flag.StringVar(&dbPath, "db", "data/history.db", "Path to the SQLite database file")
	flag.StringVar(&command, "cmd", "", "Command to run: latest-readings, watering-events, write-boot-script, run-boot-script, install-service")
	flag.StringVar(&configFile, "config-file", "config.json", "Controller config file, for pin and path settings")
	flag.IntVar(&limit, "limit", 10, "Number of readings to show")
	flag.DurationVar(&since, "since", 24*time.Hour, "How far back to list watering events")
	flag.StringVar(&user, "user", "pi", "User for the controller service")
	flag.StringVar(&workdir, "workdir", "/home/pi/plant-controller", "Working directory for the controller service")
	flag.StringVar(&execCmd, "exec", "/usr/local/bin/plant-controller", "Controller command line for the service")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of plant-debug:")
		fmt.Println("  -db string\tPath to the SQLite database file (default 'data/history.db')")
		fmt.Println("  -cmd string\tCommand to run: latest-readings, watering-events, write-boot-script, run-boot-script, install-service")
		fmt.Println("  -config-file string\tController config file")
		fmt.Println("  -limit int\tNumber of readings for latest-readings")
		fmt.Println("  -since duration\tWindow for watering-events")
		fmt.Println("  -user, -workdir, -exec\tController service settings for install-service")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch command {
	case "latest-readings":
		err = db.PrintRecentReadingsCLI(dbPath, limit, os.Stdout)
	case "watering-events":
		err = db.PrintWateringEventsCLI(dbPath, since, os.Stdout)
	case "write-boot-script":
		var cfg config.Config
		if cfg, err = config.LoadFile(configFile); err == nil {
			err = startup.WriteStartupScript(cfg.BootScriptFilePath, outputsFrom(cfg))
		}
	case "run-boot-script":
		var cfg config.Config
		if cfg, err = config.LoadFile(configFile); err == nil {
			err = startup.RunStartupScript(cfg.BootScriptFilePath)
		}
	case "install-service":
		var cfg config.Config
		if cfg, err = config.LoadFile(configFile); err == nil {
			err = startup.InstallStartupService(cfg.BootScriptFilePath, cfg.OSServicePath)
		}
		if err == nil {
			err = startup.InstallControllerService(startup.ControllerService{
				User:      user,
				WorkDir:   workdir,
				ExecStart: execCmd,
				GPIOUnit:  cfg.OSServicePath,
				UnitPath:  cfg.MainServicePath,
			})
		}
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", command)
}

func outputsFrom(cfg config.Config) []gpio.Output {
	relay, wateringLED, alarmLED := cfg.Outputs()
	return []gpio.Output{relay, wateringLED, alarmLED}
}
