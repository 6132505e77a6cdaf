package main

import (
	"flag"
	"os"

	"github.com/thagki9/batchfetch"
)

func main() {
	output := flag.String("o", "batchfetch.default.yaml", "file to write the default config to")
	flag.Parse()

	f, err := os.OpenFile(*output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	err = batchfetch.DefaultRawConfig.DumpYAML(f)
	if err != nil {
		panic(err)
	}
}
