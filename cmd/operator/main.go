package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"rover-link/internal/protocol/drivelink"
)

const (
	RoverAddr = "192.168.1.10:5005"
	SendRate  = 50 * time.Millisecond // ~20 Hz, matching the rover loop
)

func main() {
	addr := RoverAddr
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		fmt.Printf("bad rover address %q: %v\n", addr, err)
		os.Exit(1)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		fmt.Printf("open socket: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()
	fmt.Printf("commanding rover at %s from %s\n", raddr, conn.LocalAddr())

	// Status datagrams arrive from the rover's outbound socket; accept any
	// source.
	go func() {
		buf := make([]byte, 1024)
		for {
			n, _, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			st, err := drivelink.DecodeStatus(buf[:n])
			if err != nil {
				fmt.Printf("<< unparseable status: %v\n", err)
				continue
			}
			fmt.Printf("<< cmd=(%.1f, %.1f)  %.1f mW  %.1f mA  %.1f V  die %.1f C\n",
				st.Forward, st.Steering, st.PowerMW, st.CurrentMA, st.BusVoltsV, st.DieTempC)
		}
	}()

	send := func(f drivelink.Frame, d time.Duration) {
		deadline := time.Now().Add(d)
		for time.Now().Before(deadline) {
			if _, err := conn.WriteToUDP(drivelink.EncodeCommand(f), raddr); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
			time.Sleep(SendRate)
		}
	}

	fmt.Println(">> [1/4] forward, 2s")
	send(drivelink.Frame{Mode: drivelink.ModeForward}, 2*time.Second)

	fmt.Println(">> [2/4] turn clockwise, 1s")
	send(drivelink.Frame{Mode: drivelink.ModeTurnCW}, time.Second)

	fmt.Println(">> [3/4] raw override L=0.400 R=0.600, 2s")
	send(drivelink.Frame{
		Mode:     drivelink.ModeRawOverride,
		RawLeft:  0.4,
		RawRight: 0.6,
	}, 2*time.Second)

	fmt.Println(">> [4/4] stationary")
	send(drivelink.Frame{Mode: drivelink.ModeStationary}, time.Second)

	// Let the last few status datagrams land before exiting.
	time.Sleep(500 * time.Millisecond)
	fmt.Println("done")
}
