// Package open hands files and directories to the system's default application.
package open

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/tubedl-cli/tubedl/constant"
)

// Start opens path with the default handler and does not wait for it.
func Start(path string) error {
	cmd, err := command(runtime.GOOS, path)
	if err != nil {
		return err
	}
	return cmd.Start()
}

// Reveal opens the directory containing path.
func Reveal(path string) error {
	return Start(filepath.Dir(path))
}

func command(goos, path string) (*exec.Cmd, error) {
	switch goos {
	case constant.Windows:
		rundll := filepath.Join(os.Getenv("SYSTEMROOT"), "System32", "rundll32.exe")
		return exec.Command(rundll, "url.dll,FileProtocolHandler", path), nil
	case constant.Darwin:
		return exec.Command("open", path), nil
	case constant.Linux:
		return exec.Command("xdg-open", path), nil
	default:
		return nil, fmt.Errorf("opening files is not supported on %s", goos)
	}
}
