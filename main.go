package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/user/ciber-radar/android"
	"github.com/user/ciber-radar/flutter"
	"github.com/user/ciber-radar/kotlin"
	"github.com/user/ciber-radar/logger"
)

// demoPhone drifts the signal of a few cells and reports each change the
// way the modem would
type demoPhone struct {
	tm    *kotlin.TelephonyManager
	rng   *rand.Rand
	cells []kotlin.CellInfo
}

func newDemoPhone(tm *kotlin.TelephonyManager, seed int64) *demoPhone {
	p := &demoPhone{
		tm:  tm,
		rng: rand.New(rand.NewSource(seed)),
		cells: []kotlin.CellInfo{
			&kotlin.CellInfoLte{
				CellInfoBase:       kotlin.CellInfoBase{Registered: true},
				CellIdentity:       kotlin.CellIdentityLte{Ci: 26543105, Tac: 3021},
				CellSignalStrength: kotlin.CellSignalStrength{Dbm: -88, AsuLevel: 52},
			},
			&kotlin.CellInfoLte{
				CellIdentity:       kotlin.CellIdentityLte{Ci: 26543106, Tac: 3021},
				CellSignalStrength: kotlin.CellSignalStrength{Dbm: -104, AsuLevel: 36},
			},
			&kotlin.CellInfoWcdma{
				CellIdentity:       kotlin.CellIdentityWcdma{Cid: 1203311, Lac: 411},
				CellSignalStrength: kotlin.CellSignalStrength{Dbm: -97, AsuLevel: 8},
			},
			&kotlin.CellInfoNr{
				CellIdentity: kotlin.CellIdentityNr{Nci: 8573251585, Tac: 3021},
			},
		},
	}
	tm.SetNetworkOperatorName("Ciber Mobile")
	p.tick(time.Duration(0))
	return p
}

// tick moves every LTE/WCDMA reading by a few dB, clamped to realistic bounds
func (p *demoPhone) tick(sinceBoot time.Duration) {
	for _, cell := range p.cells {
		switch c := cell.(type) {
		case *kotlin.CellInfoLte:
			c.TimeStamp = int64(sinceBoot)
			p.drift(&c.CellSignalStrength, -140, -44)
			c.CellSignalStrength.AsuLevel = c.CellSignalStrength.Dbm + 140
		case *kotlin.CellInfoWcdma:
			c.TimeStamp = int64(sinceBoot)
			p.drift(&c.CellSignalStrength, -120, -24)
			c.CellSignalStrength.AsuLevel = (c.CellSignalStrength.Dbm + 120) / 2
		case *kotlin.CellInfoNr:
			c.TimeStamp = int64(sinceBoot)
		}
	}

	// Hand the modem fresh objects so earlier readers keep their snapshot
	snapshot := make([]kotlin.CellInfo, 0, len(p.cells))
	for _, cell := range p.cells {
		switch c := cell.(type) {
		case *kotlin.CellInfoLte:
			cp := *c
			snapshot = append(snapshot, &cp)
		case *kotlin.CellInfoWcdma:
			cp := *c
			snapshot = append(snapshot, &cp)
		case *kotlin.CellInfoNr:
			cp := *c
			snapshot = append(snapshot, &cp)
		}
	}
	p.tm.SetAllCellInfo(snapshot)
}

func (p *demoPhone) drift(s *kotlin.CellSignalStrength, lo, hi int) {
	s.Dbm += p.rng.Intn(7) - 3
	if s.Dbm < lo {
		s.Dbm = lo
	}
	if s.Dbm > hi {
		s.Dbm = hi
	}
}

func printRecords(label string, records []android.CellRecord) {
	fmt.Printf("%s: %d cells\n", label, len(records))
	for _, r := range records {
		serving := " "
		if r.IsRegistered {
			serving = "*"
		}
		cid := "-"
		if r.HasIdentity {
			cid = humanize.Comma(r.Cid)
		}
		fmt.Printf("  %s %-5s cid=%-14s lac=%-6d %4d dBm  asu=%-3d %s\n", serving, r.Type, cid, r.Lac, r.Dbm, r.Asu, r.Operator)
	}
}

func main() {
	updates := flag.Int("updates", 5, "Number of signal strength changes to simulate")
	interval := flag.Duration("interval", 500*time.Millisecond, "Time between signal strength changes")
	sdkInt := flag.Int("sdk", kotlin.VERSION_CODES_Q, "Simulated Android API level")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for signal drift")
	logLevel := flag.String("log", "", "Log level (TRACE, DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	if *logLevel != "" {
		logger.SetLevel(logger.ParseLevel(*logLevel))
	}

	fmt.Println("=== Cell Info Bridge Demo ===")
	fmt.Printf("API %d, %d updates every %v\n\n", *sdkInt, *updates, *interval)

	ctx := kotlin.NewContext(*sdkInt)
	messenger := flutter.NewBinaryMessenger()
	bridge := android.NewCellBridge(ctx)
	bridge.ConfigureChannels(messenger)

	phone := newDemoPhone(ctx.GetTelephonyManager(), *seed)
	method := flutter.NewMethodChannel(messenger, android.MethodChannelName)
	events := flutter.NewEventChannel(messenger, android.EventChannelName)

	// Before the permission prompt
	if _, err := method.InvokeMethod("getCells", nil); err != nil {
		fmt.Printf("getCells before permission: %v\n\n", err)
	}

	ctx.GrantPermission(kotlin.ACCESS_FINE_LOCATION)

	value, err := method.InvokeMethod("getCells", nil)
	if err != nil {
		fmt.Printf("❌ getCells failed: %v\n", err)
		os.Exit(1)
	}
	records, err := android.ParseCellRecords(value)
	if err != nil {
		fmt.Printf("❌ Bad getCells payload: %v\n", err)
		os.Exit(1)
	}
	printRecords("getCells", records)

	received := make(chan []android.CellRecord, *updates)
	sub, err := events.ReceiveBroadcastStream(nil, flutter.EventHandler{
		OnEvent: func(event interface{}) {
			records, err := android.ParseCellRecords(event)
			if err != nil {
				fmt.Printf("❌ Bad update payload: %v\n", err)
				return
			}
			select {
			case received <- records:
			default:
			}
		},
	})
	if err != nil {
		fmt.Printf("❌ Subscribe failed: %v\n", err)
		os.Exit(1)
	}

	// The modem reports on its own goroutine
	start := time.Now()
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for i := 0; i < *updates; i++ {
			<-ticker.C
			phone.tick(time.Since(start))
			ctx.GetTelephonyManager().UpdateSignalStrength(&kotlin.SignalStrength{Level: phone.rng.Intn(5)})
		}
	}()

	for i := 1; i <= *updates; i++ {
		printRecords(fmt.Sprintf("\nupdate %s", humanize.Ordinal(i)), <-received)
	}
	<-done

	if err := sub.Cancel(); err != nil {
		fmt.Printf("❌ Cancel failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n✅ Demo complete")
}
