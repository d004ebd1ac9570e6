// Command bookingcli терминальный клиент записи: календарь, время, форма, подтверждение
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/integrations/bookingapi"
	"github.com/m04kA/SMC-AppointmentService/internal/session"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

func main() {
	var (
		baseURL  = flag.String("base-url", getenv("BOOKING_API_URL", "http://localhost:8080"), "booking service base url")
		resource = flag.Int64("resource", 0, "resource id")
		apptType = flag.Int64("type", 0, "appointment type id")
		timeout  = flag.Duration("timeout", 10*time.Second, "http timeout")
		tz       = flag.String("tz", "Local", "timezone used to read dates")
		logFile  = flag.String("log", "", "log file (empty - logs are discarded)")
	)
	flag.Parse()

	if *resource <= 0 || *apptType <= 0 {
		fatal("-resource and -type are required")
	}

	loc, err := time.LoadLocation(*tz)
	if err != nil {
		fatal(fmt.Sprintf("invalid timezone %q: %v", *tz, err))
	}

	// Логи клиента не должны смешиваться с диалогом в терминале
	log := logger.NewNop()
	if *logFile != "" {
		log, err = logger.New(*logFile, "info")
		if err != nil {
			fatal(err.Error())
		}
	}
	defer log.Close()

	client := bookingapi.NewClient(*baseURL, *resource, *apptType, *timeout, log)
	s := session.New(client, client)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := newPrompter(os.Stdin, os.Stdout, loc)
	if err := p.run(ctx, s); err != nil {
		fatal(err.Error())
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fatal(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
