package main

import "github.com/mouse-blink/weave/cmd"

func main() {
	cmd.Execute()
}
