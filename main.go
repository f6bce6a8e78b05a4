package main

import (
	"theater_inventory/cmd"
	"theater_inventory/config"
)

func main() {
	config.LoadEnv()
	cmd.Execute()
}
