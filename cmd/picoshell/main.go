//go:build rp2040 || rp2350

package main

import (
	"machine"
	"runtime"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"cmdshell-go/hal/serialport"
	"cmdshell-go/osal"
	"cmdshell-go/osal/goport"
	"cmdshell-go/shell"
	"cmdshell-go/x/conv"
)

const baud = 115200

func main() {
	// Give the USB console a moment to attach before the first println.
	time.Sleep(2 * time.Second)
	println("[picoshell] boot")

	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: baud,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})

	osi := osal.New(nil, "osal0", goport.New(), osal.Capacities{})

	port, err := serialport.New(nil, serialport.Config{
		Name: "uart0",
	}, serialport.NewUartxDriver(u))
	if err != nil {
		println("[picoshell] port build failed:", err.Error())
		return
	}

	var sh shell.Shell
	if err := sh.Init(osi, &port.Instance, nil, "shell0", shell.Limits{}); err != nil {
		println("[picoshell] shell init failed:", err.Error())
		return
	}

	started := time.Now()
	for _, cmd := range builtins(&sh, started) {
		if err := sh.CmdAttach(cmd); err != nil {
			println("[picoshell] attach failed:", cmd.Name, err.Error())
			return
		}
	}

	if err := port.Open(); err != nil {
		println("[picoshell] port open failed:", err.Error())
		return
	}
	if err := sh.Run(); err != nil {
		println("[picoshell] shell run failed:", err.Error())
		return
	}
	println("[picoshell] shell0 running on uart0")

	for {
		time.Sleep(time.Hour)
	}
}

// builtins avoid fmt; conv keeps the formatting allocation-free.
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
			var buf [20]byte
			s := conv.Itoa(buf[:], int64(time.Since(started)/time.Second))
			return sh.Output(string(s) + "\r\n")
		},
	}

	free := &shell.Command{
		Name: "free",
		Help: "heap statistics",
		Run: func(argc int, argv []string) error {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			var buf [20]byte
			out := "alloc " + string(conv.Utoa(buf[:], ms.Alloc))
			out += " sys " + string(conv.Utoa(buf[:], ms.HeapSys))
			return sh.Output(out + "\r\n")
		},
	}

	return []*shell.Command{help, echo, uptime, free}
}
