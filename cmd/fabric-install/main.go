package main

import "github.com/oshokin/fabric-install/cmd/fabric-install/cmd"

func main() {
	cmd.Execute()
}
