package main

import "github.com/saudievents/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
