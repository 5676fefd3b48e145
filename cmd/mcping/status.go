package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gstoney/mcclient"
	"github.com/gstoney/mcclient/packet"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	var ping bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print a server's status document",
		Long: `Ask a server for its status document and print it.

With --ping the round-trip time of a ping exchange is printed as well.

Examples:
  mcping status -a play.example.net
  mcping status -a 10.0.0.5:25570 --ping`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), flags, ping)
		},
	}

	cmd.Flags().BoolVar(&ping, "ping", false, "also measure latency")

	return cmd
}

type statusResult struct {
	response string
	rtt      time.Duration
}

func runStatus(ctx context.Context, flags *globalFlags, ping bool) error {
	ctx, cancel := signal.NotifyContext(contextOrBackground(ctx), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()
	// The flag can only turn the ping on.
	if ping {
		s.cfg.Client.StatusPing = true
	}

	var res statusResult
	h := mcclient.HandlerFunc(func(_ *mcclient.Conn, p packet.Packet) {
		switch p := p.(type) {
		case *packet.StatusRespPacket:
			res.response = p.Response
		case *packet.PongRespPacket:
			res.rtt = time.Since(time.UnixMilli(p.Timestamp))
		}
	})

	c, err := s.dial(ctx, mcclient.IntentStatus, h)
	if err != nil {
		return err
	}

	select {
	case <-c.Done():
	case <-ctx.Done():
		c.Disconnect()
	}
	if err = c.Wait(); err != nil {
		return err
	}

	if res.response == "" {
		return fmt.Errorf("%s closed the connection without a status", s.cfg.Server.Address)
	}
	fmt.Println(res.response)
	if s.cfg.Client.StatusPing && res.rtt > 0 {
		fmt.Printf("ping: %v\n", res.rtt.Round(time.Millisecond))
	}
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
