package main

import (
	"os"
	"runtime"
)

func init() {
	// glfw and the wgpu surface must be driven from the main thread
	runtime.LockOSThread()
}

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
