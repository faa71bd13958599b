package main

import (
	"context"

	"reviewharvest/cmd/harvest/commands"
	"reviewharvest/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext(context.Background())
	commands.ExecuteContext(ctx)
}
