package main

import (
	"github.com/storefront-labs/orderpulse/cmd"
)

func main() {
	cmd.Execute()
}
