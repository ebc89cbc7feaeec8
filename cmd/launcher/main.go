// Command launcher is the small external binary staged and started by
// Manager.LaunchLatest. It runs from a scratch directory under the working
// directory's .tmp folder, outside the version and current directories, so
// it is free to apply an update that replaces the binary that started it,
// then starts the newly promoted main executable.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	update "github.com/ungive/update"
)

func main() {
	var workingDir, currentVersionString, mainExecutable string
	var killProcesses bool
	var processTimeout time.Duration
	var retainedPaths string

	flag.StringVar(&workingDir, "working-dir", "", "the update engine's working directory")
	flag.StringVar(&currentVersionString, "current-version", "", "the version the main process was running")
	flag.StringVar(&mainExecutable, "main-executable", "", "path of the main executable, relative to the current directory")
	flag.BoolVar(&killProcesses, "kill-processes", true, "terminate running processes under the current and update directories before applying")
	flag.DurationVar(&processTimeout, "process-timeout", 30*time.Second, "how long to wait for processes to exit")
	flag.StringVar(&retainedPaths, "retained-paths", "", "comma-separated relative paths to retain across the apply")
	flag.Parse()

	if err := run(workingDir, currentVersionString, mainExecutable, retainedPaths, killProcesses, processTimeout, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(workingDir, currentVersionString, mainExecutable, retainedPaths string, killProcesses bool, processTimeout time.Duration, mainArgs []string) error {
	if workingDir == "" || currentVersionString == "" || mainExecutable == "" {
		return fmt.Errorf("-working-dir, -current-version, and -main-executable are required")
	}
	currentVersion, err := update.ParseVersionNumber(currentVersionString, "")
	if err != nil {
		return err
	}

	manager, err := update.NewManager(workingDir, currentVersion)
	if err != nil {
		return err
	}
	if retainedPaths != "" {
		if err := manager.SetRetainedPaths(strings.Split(retainedPaths, ",")); err != nil {
			return err
		}
	}

	applied, ok, err := manager.ApplyLatest(context.Background(), killProcesses, processTimeout)
	if err != nil {
		return err
	}
	if ok {
		update.Logger().Infof("launcher: applied %s", applied)
	} else {
		update.Logger().Infof("launcher: no update to apply, relaunching current version")
	}
	return manager.StartLatest(mainExecutable, mainArgs)
}
