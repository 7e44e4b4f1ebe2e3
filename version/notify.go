package version

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"
	"github.com/tubedl-cli/tubedl/color"
	"github.com/tubedl-cli/tubedl/constant"
	"github.com/tubedl-cli/tubedl/icon"
	"github.com/tubedl-cli/tubedl/key"
	"github.com/tubedl-cli/tubedl/style"
	"github.com/tubedl-cli/tubedl/util"
)

// Notify displays a terminal alert if a more recent stable version is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Progress)))
	latest, err := Latest(ctx)
	erase()
	if err != nil {
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/tubedl-cli/tubedl/releases/tag/v"+latest),
	)
}
