package main

import (
	"github.com/ofertazap/ofertazap/cmd"
)

func main() {
	cmd.Execute()
}
