package main

import "github.com/Togather-Foundation/campus/cmd/server/cmd"

func main() {
	cmd.Execute()
}
