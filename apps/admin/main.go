package main

import (
	stdlog "log"
	"os"

	"github.com/classcheck/classcheck/core"
)

func main() {
	core.InitConf()
	std := stdlog.New(os.Stderr, "", 0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		std.Fatal(err)
	}
}
