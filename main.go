package main

import (
	"github.com/cinesrc/cinesrc/cmd"
	"github.com/cinesrc/cinesrc/config"
	"github.com/cinesrc/cinesrc/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())
	cmd.Execute()
}
