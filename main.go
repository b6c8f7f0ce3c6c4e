package main

import (
	"github.com/shibai/dht/cmd/dhtsim"
)

func main() {
	dhtsim.Execute()
}
