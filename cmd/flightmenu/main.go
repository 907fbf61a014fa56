package main

import "github.com/example/flightmenu/cmd"

func main() {
	cmd.Execute()
}
