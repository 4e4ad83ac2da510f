package main

import "Hokage/client/hokage-cli/cmd"

func main() {
	cmd.Execute()
}
