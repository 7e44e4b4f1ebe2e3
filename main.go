// Package main is the entry point of tubedl.
package main

import (
	"github.com/samber/lo"
	"github.com/tubedl-cli/tubedl/cmd"
	"github.com/tubedl-cli/tubedl/config"
	"github.com/tubedl-cli/tubedl/internal/cache"
	"github.com/tubedl-cli/tubedl/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	// Expired extractor results are swept in the background.
	go func() {
		if removed, err := cache.Default().CollectGarbage(); err != nil {
			log.Warnf("cache cleanup: %s", err)
		} else if removed > 0 {
			log.Debugf("removed %d expired cache entries", removed)
		}
	}()

	cmd.Execute()
}
