package main

import "github.com/timvw/claude-panes/cmd"

func main() {
	cmd.Execute()
}
