package main

import "github.com/quantlayer/tradecache/cmd"

func main() {
	cmd.Execute()
}
