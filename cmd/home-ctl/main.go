package main

import "github.com/oshokin/smart-home/cmd/home-ctl/cmd"

func main() {
	cmd.Execute()
}
