// Command cyphaltx brings up a Cyphal/CAN transmitter against a configured
// bus and publishes a handful of demo messages, for exercising the
// transport layer against a real or virtual interface.
package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/cyphalcan/pkg/can"
	_ "github.com/samsamfire/cyphalcan/pkg/can/socketcan"
	_ "github.com/samsamfire/cyphalcan/pkg/can/virtual"
	"github.com/samsamfire/cyphalcan/pkg/config"
	"github.com/samsamfire/cyphalcan/pkg/metrics"
	"github.com/samsamfire/cyphalcan/pkg/queue"
	"github.com/samsamfire/cyphalcan/pkg/transfer"
)

var (
	configPath  = flag.String("config", "", "path to an INI config file (defaults built in if omitted)")
	metricsAddr = flag.String("metrics", ":9100", "address to serve /metrics on, empty disables it")
	subjectID   = flag.Int("subject", 1234, "demo subject-id to publish on")
	count       = flag.Int("count", 10, "number of demo messages to push")
)

func main() {
	flag.Parse()
	log.SetLevel(log.InfoLevel)

	var cfg config.Bus
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Load([]byte(""))
	}
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	bus, err := can.NewBus(cfg.Interface, cfg.Channel, cfg.BitrateHz)
	if err != nil {
		log.Fatalf("opening bus %s/%s: %v", cfg.Interface, cfg.Channel, err)
	}
	if err := bus.Connect(); err != nil {
		log.Fatalf("connecting bus: %v", err)
	}
	defer bus.Disconnect()

	ring := queue.NewRing[time.Time](cfg.QueueDepth)
	tx := transfer.NewTransmitter[time.Time](cfg.Mtu, ring)

	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.Handler())
			log.Infof("serving metrics on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				log.Errorf("metrics server stopped: %v", err)
			}
		}()
	}

	log.Infof("publishing %d demo messages on subject %d as node %d", *count, *subjectID, cfg.DefaultNode)
	for i := 0; i < *count; i++ {
		header := transfer.NewMessageHeader(
			transfer.PriorityNominal,
			transfer.SubjectID(*subjectID),
			transfer.NodeID(cfg.DefaultNode),
			true,
			transfer.TransferID(i),
		)
		err := tx.Push(transfer.Transfer[time.Time]{
			Header:    header,
			Payload:   []byte{byte(i)},
			Timestamp: time.Now(),
		})
		if err != nil {
			log.Warnf("push %d failed: %v", i, err)
		}

		for {
			frame, ok := ring.Pop()
			if !ok {
				break
			}
			out := can.NewFrame(uint32(frame.ID), 0, frame.Len)
			out.Data = frame.Data
			if err := bus.Send(out); err != nil {
				log.Warnf("send failed: %v", err)
			}
		}

		metrics.Sample(metrics.Counts{
			Transfers: tx.TransferCount(),
			Errors:    tx.ErrorCount(),
			QueueLen:  ring.Len(),
		})
	}

	log.Infof("done: %d transfers, %d errors", tx.TransferCount(), tx.ErrorCount())
}
