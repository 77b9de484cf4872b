package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thatsimonsguy/plant-controller/internal/gpio"
)

// BootScript renders a bash script that drives every output to its inactive
// level, so the pump relay stays off between power-up and controller start.
func BootScript(outputs []gpio.Output) string {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Plant controller GPIO pin configuration at boot", "")

	for _, o := range outputs {
		drive := "dh"
		if o.Pin.ActiveHigh {
			drive = "dl"
		}
		lines = append(lines, fmt.Sprintf("# %s", o.Name))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn %s", o.Pin.Number, drive))
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n") + "\n"
}

func WriteStartupScript(path string, outputs []gpio.Output) error {
	return os.WriteFile(path, []byte(BootScript(outputs)), 0755)
}

func InstallStartupService(scriptPath, unitPath string) error {
	unitContents := fmt.Sprintf(`[Unit]
Description=Configure plant controller GPIO pins at boot
After=network.target

[Service]
Type=oneshot
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`, scriptPath)

	return os.WriteFile(unitPath, []byte(unitContents), 0644)
}

func RunStartupScript(path string) error {
	cmd := exec.Command("/bin/bash", path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ControllerService describes the main systemd unit.
type ControllerService struct {
	User      string
	WorkDir   string
	ExecStart string
	GPIOUnit  string
	UnitPath  string
}

func InstallControllerService(s ControllerService) error {
	gpioUnitName := filepath.Base(s.GPIOUnit)

	unit := fmt.Sprintf(`[Unit]
Description=Plant controller main service
After=%s
Requires=%s

[Service]
Type=simple
User=%s
WorkingDirectory=%s
Environment=PATH=/usr/local/go/bin:/usr/local/bin:/usr/bin:/bin
ExecStart=%s
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, gpioUnitName, gpioUnitName, s.User, s.WorkDir, s.ExecStart)

	return os.WriteFile(s.UnitPath, []byte(unit), 0644)
}
