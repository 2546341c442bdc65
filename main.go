package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/chartchat/chartchat/cmd"
)

func main() {
	cmd.Execute()
}
