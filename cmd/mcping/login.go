package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gstoney/mcclient"
	"github.com/gstoney/mcclient/packet"
)

func loginCmd(flags *globalFlags) *cobra.Command {
	var (
		username string
		stay     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Join a server in offline mode",
		Long: `Log in without a session account, answer keep-alives and leave
after --stay, or earlier if the server disconnects us.

Servers in online mode reject the login at the encryption step.

Examples:
  mcping login -a localhost --username Steve
  mcping login -a localhost --stay 1m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), flags, username, stay)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "player name (default from config)")
	cmd.Flags().DurationVar(&stay, "stay", 10*time.Second, "how long to stay in play")

	return cmd
}

// loginHandler keeps an offline session alive.
type loginHandler struct {
	ctx    context.Context
	log    *zap.Logger
	joined chan struct{}
	reason string
}

func (h *loginHandler) HandlePacket(c *mcclient.Conn, p packet.Packet) {
	switch p := p.(type) {
	case *packet.EncryptionRequest:
		if err := c.RespondEncryption(h.ctx, p, nil); err != nil {
			h.log.Error("encryption response", zap.Error(err))
			c.Disconnect()
		}
	case *packet.LoginSuccess:
		fmt.Printf("joined as %s (%s)\n", p.Username, p.UUID)
		close(h.joined)
	case *packet.KeepAlive:
		if err := c.Send(&packet.KeepAliveResponse{ID: p.ID}); err != nil {
			h.log.Warn("keep alive", zap.Error(err))
		}
	case *packet.LoginDisconnect:
		h.reason = p.Reason
	case *packet.Disconnect:
		h.reason = p.Reason
	case *packet.ChatMessage:
		fmt.Println(p.Message)
	}
}

func (h *loginHandler) HandleSkipped(_ *mcclient.Conn, err *mcclient.SkippedPacketError) {
	h.log.Debug("unhandled packet", zap.Error(err))
}

func runLogin(ctx context.Context, flags *globalFlags, username string, stay time.Duration) error {
	ctx, cancel := signal.NotifyContext(contextOrBackground(ctx), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	s, err := newSession(ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()
	if username != "" {
		s.cfg.Client.Username = username
	}

	h := &loginHandler{ctx: ctx, log: s.log, joined: make(chan struct{})}
	c, err := s.dial(ctx, mcclient.IntentLogin, h)
	if err != nil {
		return err
	}

	select {
	case <-h.joined:
		select {
		case <-time.After(stay):
			c.Disconnect()
		case <-ctx.Done():
			c.Disconnect()
		case <-c.Done():
		}
	case <-ctx.Done():
		c.Disconnect()
	case <-c.Done():
	}

	if err = c.Wait(); err != nil {
		return err
	}
	if h.reason != "" {
		return errors.New("disconnected by server: " + h.reason)
	}
	return nil
}
