package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return runRun(args[1:])
	case "process":
		return runProcess(args[1:])
	case "upload":
		return runUpload(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("shorts-factory: turn gameplay recordings into published vertical shorts")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  shorts-factory doctor")
	fmt.Println("  shorts-factory run ./clips")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run      transform every source video in a workspace folder and publish the results")
	fmt.Println("  process  run the pipeline for one source video")
	fmt.Println("  upload   publish one already-finalized video to the configured targets")
	fmt.Println("  doctor   check external tools and publishing credentials")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Interrupted runs are safe to re-run: finished work is skipped, the rest resumes")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Publishing credentials come from the environment; see doctor for the full list")
}
