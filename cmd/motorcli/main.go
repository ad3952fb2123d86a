package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/motorsig/internal/command"
)

func main() {
	if err := command.NewApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
