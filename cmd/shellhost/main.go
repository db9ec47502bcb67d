// cmd/shellhost/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goburrow/serial"

	"cmdshell-go/config"
	"cmdshell-go/hal/serialport"
	"cmdshell-go/osal"
	"cmdshell-go/osal/goport"
	"cmdshell-go/shell"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: shellhost <config.yaml>")
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}

	// --------------------
	// OSAL on the Go runtime
	// --------------------

	osi := osal.New(nil, "osal0", goport.New(), osal.Capacities{
		Queues:     cfg.OSAL.Queues,
		Locks:      cfg.OSAL.Locks,
		Semaphores: cfg.OSAL.Semaphores,
		Streams:    cfg.OSAL.Streams,
		Timers:     cfg.OSAL.Timers,
		Events:     cfg.OSAL.Events,
		Threads:    cfg.OSAL.Threads,
	})

	// --------------------
	// Serial transport
	// --------------------

	drv := serialport.NewHostDriver(serial.Config{
		Address:  cfg.Serial.Device,
		BaudRate: cfg.Serial.BaudRate,
		DataBits: cfg.Serial.DataBits,
		StopBits: cfg.Serial.StopBits,
		Parity:   cfg.Serial.Parity,
		Timeout:  time.Duration(cfg.Serial.TimeoutMs) * time.Millisecond,
	})
	port, err := serialport.New(nil, serialport.Config{
		Name:      cfg.Shell.Name + ".port",
		RingSize:  cfg.Serial.RingSize,
		TxBufSize: cfg.Serial.TxBufSize,
	}, drv)
	if err != nil {
		log.Fatalf("serial port build failed: %v", err)
	}

	// --------------------
	// Shell
	// --------------------

	var sh shell.Shell
	if err := sh.Init(osi, &port.Instance, nil, cfg.Shell.Name, shell.Limits{
		MaxCommands: cfg.Shell.MaxCommands,
		MaxArgv:     cfg.Shell.MaxArgv,
		MaxLine:     cfg.Shell.MaxLine,
		QueueDepth:  cfg.Shell.QueueDepth,
	}); err != nil {
		log.Fatalf("shell init failed: %v", err)
	}

	started := time.Now()
	for _, cmd := range builtins(&sh, started) {
		if err := sh.CmdAttach(cmd); err != nil {
			log.Fatalf("attach %s failed: %v", cmd.Name, err)
		}
	}

	if err := port.Open(); err != nil {
		log.Fatalf("port open failed: %v", err)
	}
	if err := sh.Run(); err != nil {
		log.Fatalf("shell run failed: %v", err)
	}
	log.Printf("shell %s running on %s", cfg.Shell.Name, cfg.Serial.Device)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Print("shutting down")
	if err := sh.Stop(); err != nil {
		log.Printf("shell stop: %v", err)
	}
	if err := port.Close(); err != nil {
		log.Printf("port close: %v", err)
	}
	_ = sh.Deinit()
	_ = osi.Deinit()
}

// builtins are the stock commands every host shell carries.
func builtins(sh *shell.Shell, started time.Time) []*shell.Command {
	help := &shell.Command{
		Name: "help",
		Help: "list available commands",
	}
	help.Run = func(argc int, argv []string) error {
		for _, c := range sh.Commands() {
			line := c.Name
			if c.Help != "" {
				line += "\t" + c.Help
			}
			if err := sh.Output(line + "\r\n"); err != nil {
				return err
			}
		}
		return nil
	}

	echo := &shell.Command{
		Name: "echo",
		Help: "write arguments back",
		Run: func(argc int, argv []string) error {
			out := ""
			for i, a := range argv[1:] {
				if i > 0 {
					out += " "
				}
				out += a
			}
			return sh.Output(out + "\r\n")
		},
	}

	uptime := &shell.Command{
		Name: "uptime",
		Help: "seconds since start",
		Run: func(argc int, argv []string) error {
			return sh.Output(fmt.Sprintf("%.0f\r\n", time.Since(started).Seconds()))
		},
	}

	return []*shell.Command{help, echo, uptime}
}
