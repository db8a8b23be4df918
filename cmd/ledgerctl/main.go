package main

import "paytrack/cmd/ledgerctl/commands"

func main() {
	commands.Execute()
}
