package main

import "github.com/example/court-racer/cmd"

func main() {
	cmd.Execute()
}
