package main

import "github.com/dennishilgert/benchvm/cmd/benchvm/cmd"

func main() {
	cmd.Run()
}
