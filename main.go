package main

import "github.com/richie-p-meyer/loglens/internal/cmd"

func main() {
	cmd.Execute()
}
