package main

import "github.com/oshokin/smart-home/cmd/home-hub/cmd"

func main() {
	cmd.Execute()
}
