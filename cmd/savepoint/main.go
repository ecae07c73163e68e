package main

import (
	"github.com/karstgames/savepoint/internal/cli"
)

func main() {
	cli.Execute()
}
