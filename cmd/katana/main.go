package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli"

	"github.com/katana-dc/go-katana/katana"
	"github.com/katana-dc/go-katana/katana/monitor"
)

func main() {
	app := cli.NewApp()
	app.Name = "Katana"
	app.Description = "A Sega Dreamcast core emulator"
	app.Usage = "katana [options]"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "bios",
			Usage: "Path to the BIOS ROM image",
		},
		cli.StringFlag{
			Name:  "flash",
			Usage: "Path to the flash image (writable; persisted at shutdown)",
		},
		cli.StringFlag{
			Name:  "boot",
			Usage: "Boot mode: firmware, direct-ip or direct-1st-read",
			Value: "firmware",
		},
		cli.StringFlag{
			Name:  "image",
			Usage: "Guest image for the direct boot modes",
		},
		cli.StringFlag{
			Name:  "serial",
			Usage: "TCP listen address for the serial bridge (e.g. localhost:1998)",
		},
		cli.BoolFlag{
			Name:  "monitor",
			Usage: "Drop into the interactive monitor before running",
		},
		cli.IntFlag{
			Name:  "slices",
			Usage: "Run a bounded number of timeslices then exit (0 = run forever)",
			Value: 0,
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Enable debug logging",
		},
	}
	app.Action = runEmulator

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running emulator", "error", err)
		os.Exit(1)
	}
}

func parseBootMode(s string) (katana.BootMode, error) {
	switch s {
	case "firmware":
		return katana.BootFirmware, nil
	case "direct-ip":
		return katana.BootDirectIP, nil
	case "direct-1st-read":
		return katana.BootDirect1stRead, nil
	default:
		return 0, fmt.Errorf("unknown boot mode %q", s)
	}
}

func runEmulator(c *cli.Context) error {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))

	boot, err := parseBootMode(c.String("boot"))
	if err != nil {
		return err
	}

	cfg := katana.Config{
		BiosPath:  c.String("bios"),
		FlashPath: c.String("flash"),
		Boot:      boot,
		ImagePath: c.String("image"),
		SerialTCP: c.String("serial"),
	}
	if cfg.BiosPath == "" && cfg.ImagePath == "" {
		cli.ShowAppHelp(c)
		return errors.New("nothing to run: provide --bios or a direct boot --image")
	}

	emu, err := katana.New(cfg)
	if err != nil {
		return err
	}

	if c.Bool("monitor") {
		if !monitor.New(emu).Run() {
			return nil
		}
	}

	if n := c.Int("slices"); n > 0 {
		return emu.RunSlices(n)
	}
	return emu.Run()
}
