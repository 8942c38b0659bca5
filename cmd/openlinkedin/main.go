package main

import "openlinkedin/cmd/cmd"

func main() {
	cmd.Execute()
}
