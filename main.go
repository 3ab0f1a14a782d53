package main

import "github.com/creamline/iotcore/cmd"

func main() {
	cmd.Execute()
}
