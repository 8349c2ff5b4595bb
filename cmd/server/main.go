package main

import (
	"github.com/tranbn/slackline/cmd"
)

func main() {
	cmd.Execute()
}
