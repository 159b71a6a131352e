package main

import "github.com/Digital-Shane/namer/internal/cmd"

func main() {
	cmd.Execute()
}
