package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nhuertas/supermercat/config"
	"github.com/nhuertas/supermercat/schedule"
)

var rotationDayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func handleSchedule(cfg config.AppConfig, args []string) {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	runNow := fs.Bool("run", false, "start the scheduler without the interactive menu")
	statusOnly := fs.Bool("status", false, "show schedule status and exit")
	fs.Parse(args)

	sys := mustOpenSystem(cfg)
	defer sys.Close()

	scheduler, err := schedule.New(cfg.Schedule.ConfigPath, sys.registry, sys.dispatcher, sys.orchestrator)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load schedule config: %v\n", err)
		os.Exit(1)
	}

	if *statusOnly {
		showStatus(scheduler)
		return
	}
	if *runNow {
		runScheduler(scheduler)
		return
	}

	interactiveMenu(scheduler)
}

func showStatus(scheduler *schedule.Scheduler) {
	if err := scheduler.Setup(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	scheduler.Status(os.Stdout)
}

func runScheduler(scheduler *schedule.Scheduler) {
	fmt.Println("Starting multi-city multi-market scheduler")
	fmt.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: scheduler failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Scheduler stopped")
}

func interactiveMenu(scheduler *schedule.Scheduler) {
	showStatus(scheduler)

	fmt.Println("\nOptions:")
	fmt.Println("1. Run scheduler")
	fmt.Println("2. Show status only")
	fmt.Println("3. Test city rotation")
	fmt.Print("\nEnter choice (1-3): ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: could not read choice")
		os.Exit(1)
	}

	switch strings.TrimSpace(line) {
	case "1":
		runScheduler(scheduler)
	case "2":
		fmt.Println("Status displayed above")
	case "3":
		testCityRotation(scheduler.Config())
	default:
		fmt.Fprintln(os.Stderr, "Error: invalid choice")
		os.Exit(1)
	}
}

func testCityRotation(cfg schedule.Config) {
	fmt.Println("\nCity rotation by day:")
	for day, name := range rotationDayNames {
		cities := cfg.CitiesForRotation(day)
		fmt.Printf("  %s: %s\n", name, strings.Join(cities, ", "))
	}
}
