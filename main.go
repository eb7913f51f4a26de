package main

import "github.com/astromake/astro/cmd"

func main() {
	cmd.Execute()
}
