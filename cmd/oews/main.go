package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/vvka-141/oews/internal/cli"
	"github.com/vvka-141/oews/pkg/oews"
)

func main() {
	// Recover from panics to exit with a stack trace and a distinct code
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(oews.ExitPanic)
		}
	}()

	if os.Getenv("OEWS_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(oews.ExitCodeForError(err))
	}
}
