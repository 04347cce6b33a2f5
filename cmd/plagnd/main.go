// Command plagnd is the protocol-translation fabric daemon: it reads a
// topology of Adapters and Translators from a config file, wires them
// together, and runs until SIGINT/SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/plagn-go/plagn/internal/logging"
	"github.com/plagn-go/plagn/internal/orchestrator"
)

func defaultConfigPath() string {
	if runtime.GOOS == `windows` {
		return `./plagn.conf`
	}
	return `/usr/etc/plagn.conf`
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the plagn configuration file")
	flag.Parse()

	log := logging.New(os.Stderr)

	adapters, err := buildTopology(*configPath, log)
	if err != nil {
		log.Fatal("failed to build topology", logging.KVErr(err))
	}

	o := orchestrator.New(adapters, log)
	log.Info("starting", logging.KV(`instance`, o.InstanceID), logging.KV(`adapters`, len(adapters)))

	if err := o.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}
