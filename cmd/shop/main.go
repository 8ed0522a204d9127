package main

import "github.com/marshallshelly/pebble-shop/cmd/shop/commands"

func main() {
	commands.Execute()
}
