package main

import (
	"flag"

	"github.com/charleschow/bankroll-calc/internal/process"
)

func main() {
	echo := flag.Bool("echo", false, "print every plan and match event to stderr")
	flag.Parse()

	process.Run(process.ProcessConfig{
		Name:       "bankroll",
		EchoEvents: *echo,
	})
}
