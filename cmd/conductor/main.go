package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"conductor/internal/builder"
	"conductor/internal/codec"
	"conductor/internal/config"
	"conductor/internal/deeplink"
	"conductor/internal/ics"
	appLog "conductor/internal/log"
	"conductor/internal/qr"
	"conductor/internal/report"
	"conductor/internal/template"
	"conductor/internal/web"
)

const defaultConfigPath = "conductor.yaml"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "generate":
		err = runGenerate(os.Args[2:])
	case "decode":
		err = runDecode(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		appLog.Error("command failed", err, "command", os.Args[1])
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `conductor - synchronized-action event toolkit

Usage:
  conductor generate [flags]      build an event, print its QR/deep link
  conductor decode <token-or-url> decode an event token and print the timeline
  conductor serve [flags]         serve the mobile app package over the LAN

Run 'conductor <command> -h' for command flags.`)
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	name := fs.String("template", "inaugural", "Built-in template name (diagnostic|inaugural|smoke)")
	file := fs.String("file", "", "YAML template file (overrides -template)")
	startMin := fs.Int("start", 0, "Minutes until the event starts (0 = config default)")
	ec := fs.String("ec", "", "QR error-correction level (overrides config)")
	noPNG := fs.Bool("no-png", false, "Skip writing the QR PNG file")
	ascii := fs.Bool("ascii", false, "Also print the QR code to the terminal")
	icsPath := fs.String("ics", "", "Also export the timeline to this .ics file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *ec != "" {
		cfg.ErrorCorrection = *ec
	}
	if *startMin <= 0 {
		*startMin = cfg.StartOffsetMinutes
	}

	var tmpl builder.Template
	label := *name
	if *file != "" {
		tmpl, err = template.LoadFile(*file)
		label = trimExt(filepath.Base(*file))
	} else {
		tmpl, err = template.Builtin(*name)
	}
	if err != nil {
		return err
	}
	if tmpl.Timezone == "" {
		tmpl.Timezone = cfg.Timezone
	}

	ev, err := builder.Build(tmpl, time.Duration(*startMin)*time.Minute)
	if err != nil {
		return err
	}

	token, err := codec.Encode(ev)
	if err != nil {
		return err
	}
	url := deeplink.EventURL(token)

	appLog.Info("event generated",
		"template", label,
		"start", ev.StartTime.String(),
		"actions", len(ev.Timeline),
		"token_chars", len(token),
	)

	opts := report.Options{
		URL:          url,
		Token:        token,
		Instructions: true,
	}

	if !*noPNG {
		level, err := qr.ParseLevel(cfg.ErrorCorrection)
		if err != nil {
			return err
		}
		pngPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("conductor-%s-qr.png", label))
		if err := qr.WritePNG(pngPath, url, level); err != nil {
			return err
		}
		opts.QRPath = pngPath
	}

	if *ascii {
		rendered, err := qr.ASCII(url)
		if err != nil {
			return err
		}
		opts.ASCIIQR = rendered
	}

	if *icsPath != "" {
		if err := ics.WriteFile(*icsPath, ev); err != nil {
			return err
		}
		opts.ICSPath = *icsPath
	}

	report.Write(os.Stdout, ev, opts)
	return nil
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the decoded event as indented JSON")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("decode: expected exactly one token or deep-link URL argument")
	}

	ev, err := deeplink.Decode(fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		data, err := json.MarshalIndent(ev, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	report.Write(os.Stdout, ev, report.Options{})
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to config file")
	listen := fs.String("listen", "", "HTTP listen address (overrides config if set)")
	apk := fs.String("apk", "", "APK path (overrides config release path if set)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	if *apk != "" {
		cfg.ReleaseAPK = *apk
	}

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	return web.Start(ctx, cfg)
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
