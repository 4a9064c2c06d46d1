package main

import (
	"os"

	"github.com/zeu5/keygrid-rl/commands"
	"k8s.io/klog/v2"
)

// main entry point to training, comparison and inspection commands
func main() {
	rootCommand := commands.GetRootCommand()
	err := rootCommand.Execute()
	klog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
