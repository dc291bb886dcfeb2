package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"rtcuptime/host/mcu"
	"rtcuptime/host/serial"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", 115200, "Baud rate")
	timeout = flag.Duration("timeout", 2*time.Second, "Per-command timeout")
	verbose = flag.Bool("verbose", false, "Print alarm reports and firmware debug messages as they arrive")
)

func main() {
	flag.Parse()

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to MCU on %s...\n", *device)
	m, err := mcu.ConnectWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	info, err := m.Config(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: get_config: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected: %d Hz, %d compare channels, %d-bit counter\n",
		info.ClockFreq, info.Channels, info.Width)

	if *verbose {
		go func() {
			for {
				select {
				case r := <-m.Reports():
					fmt.Printf("\n[alarm] channel=%d clock=%d\n> ", r.Channel, r.Clock)
				case msg := <-m.Debug():
					fmt.Printf("\n[mcu] %s\n> ", msg)
				}
			}
		}()
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "quit", "exit", "q":
			return
		case "help", "?":
			printHelp()
		case "watch":
			watch(m)
		default:
			if err := run(m, info, parts); err != nil {
				fmt.Printf("Error: %v\n", err)
			}
		}
	}
}

func run(m *mcu.MCU, info mcu.Config, parts []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	args, err := parseUints(parts[1:])
	if err != nil {
		return err
	}

	switch parts[0] {
	case "uptime":
		ticks, err := m.Uptime(ctx)
		if err != nil {
			return err
		}
		secs := float64(ticks) / float64(info.ClockFreq)
		fmt.Printf("uptime: %d ticks (%.3fs)\n", ticks, secs)

	case "overflows":
		n, err := m.Overflows(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("overflows: %d\n", n)

	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: set <channel> <clock> [interval]")
		}
		var interval uint32
		if len(args) > 2 {
			interval = args[2]
		}
		if err := m.SetAlarm(ctx, args[0], args[1], interval); err != nil {
			return err
		}
		fmt.Printf("channel %d armed at %d\n", args[0], args[1])

	case "in":
		// relative alarm: in <channel> <ms> [interval_ms]
		if len(args) < 2 {
			return fmt.Errorf("usage: in <channel> <ms> [interval_ms]")
		}
		ticks, err := m.Uptime(ctx)
		if err != nil {
			return err
		}
		when := uint32(ticks) + msToTicks(args[1], info.ClockFreq)
		var interval uint32
		if len(args) > 2 {
			interval = msToTicks(args[2], info.ClockFreq)
		}
		if err := m.SetAlarm(ctx, args[0], when&(1<<info.Width-1), interval); err != nil {
			return err
		}
		fmt.Printf("channel %d armed at %d\n", args[0], when&(1<<info.Width-1))

	case "clear":
		if len(args) < 1 {
			return fmt.Errorf("usage: clear <channel>")
		}
		found, pending, err := m.ClearAlarm(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("channel %d cleared: found=%v pending=%v\n", args[0], found, pending)

	case "events":
		events, err := m.Events(ctx)
		if err != nil {
			return err
		}
		for _, e := range events {
			fmt.Printf("%-12s ch=%d clock=%d v=%d\n", e.Name(), e.Channel, e.Clock, e.Value)
		}
		fmt.Printf("%d events\n", len(events))

	case "identify":
		dict, err := m.Identify(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("version: %s\n", dict.Version)
		for name, value := range dict.Config {
			fmt.Printf("  %s=%s\n", name, value)
		}
		fmt.Printf("%d commands, %d responses\n", len(dict.Commands), len(dict.Responses))

	default:
		return fmt.Errorf("unknown command %q (type 'help')", parts[0])
	}
	return nil
}

// watch prints alarm reports until interrupted
func watch(m *mcu.MCU) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	fmt.Println("Watching alarm reports, Ctrl-C to stop")
	for {
		select {
		case r := <-m.Reports():
			fmt.Printf("[alarm] channel=%d clock=%d\n", r.Channel, r.Clock)
		case <-sig:
			return
		}
	}
}

func parseUints(fields []string) ([]uint32, error) {
	out := make([]uint32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseUint(f, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q: %w", f, err)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func msToTicks(ms, freq uint32) uint32 {
	return uint32(uint64(ms) * uint64(freq) / 1000)
}

func printHelp() {
	fmt.Println("Available commands:")
	fmt.Println("  uptime                         - Read the extended tick count")
	fmt.Println("  overflows                      - Read the overflow count")
	fmt.Println("  set <ch> <clock> [interval]    - Arm channel at an absolute tick")
	fmt.Println("  in <ch> <ms> [interval_ms]     - Arm channel relative to now")
	fmt.Println("  clear <ch>                     - Disarm channel")
	fmt.Println("  watch                          - Print alarm reports until Ctrl-C")
	fmt.Println("  events                         - Read the firmware event ring")
	fmt.Println("  identify                       - Fetch the firmware dictionary")
	fmt.Println("  help                           - Show this help")
	fmt.Println("  quit                           - Exit")
}
