package main

import "github.com/OpenTraceLab/OpenTracePMBus/cmd/pmbus/cmd"

func main() {
	cmd.Execute()
}
