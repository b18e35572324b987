// Package main is the d2rgb command itself.
package main

import (
	"log"
	"os"

	"github.com/w407022008/librealsense-2.55.1/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
