package main

import (
	"context"

	"github.com/byshoes/byshoes/cmd/byshoes/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
