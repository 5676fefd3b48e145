package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gstoney/mcclient/internal/config"
	"github.com/gstoney/mcclient/internal/mctest"
	"github.com/gstoney/mcclient/packet"
)

func testFlags(t *testing.T, addr string) *globalFlags {
	t.Helper()
	t.Setenv(config.EnvResolveMode, config.ResolveDirect)
	t.Setenv(config.EnvLogLevel, "error")
	return &globalFlags{
		envFile: filepath.Join(t.TempDir(), "none.env"),
		addr:    addr,
	}
}

func TestRunStatus(t *testing.T) {
	srv := &mctest.Server{Handler: func(s *mctest.Session) error {
		return s.ServeStatus(`{"version":{"protocol":763}}`)
	}}
	addr, err := srv.Listen()
	require.NoError(t, err)

	require.NoError(t, runStatus(context.Background(), testFlags(t, addr), true))
	require.NoError(t, srv.Close())
}

func TestRunStatus_NoServer(t *testing.T) {
	srv := &mctest.Server{Handler: func(*mctest.Session) error { return nil }}
	addr, err := srv.Listen()
	require.NoError(t, err)
	require.NoError(t, srv.Close())

	require.Error(t, runStatus(context.Background(), testFlags(t, addr), false))
}

func TestRunLogin(t *testing.T) {
	srv := &mctest.Server{Handler: func(s *mctest.Session) error {
		if err := s.AcceptLogin(mctest.LoginOptions{Encrypt: true, CompressionThreshold: 256}); err != nil {
			return err
		}
		if err := s.WritePacket(&packet.KeepAlive{ID: 7}); err != nil {
			return err
		}
		if _, err := s.Expect(packet.KindKeepAliveResponse); err != nil {
			return err
		}
		s.ReadPacket()
		return nil
	}}
	addr, err := srv.Listen()
	require.NoError(t, err)

	require.NoError(t, runLogin(context.Background(), testFlags(t, addr), "Alex", 200*time.Millisecond))
	require.NoError(t, srv.Close())
}

func TestRunLogin_Kicked(t *testing.T) {
	srv := &mctest.Server{Handler: func(s *mctest.Session) error {
		if _, err := s.Expect(packet.KindLoginStart); err != nil {
			return err
		}
		return s.WritePacket(&packet.LoginDisconnect{Reason: `"whitelist"`})
	}}
	addr, err := srv.Listen()
	require.NoError(t, err)

	err = runLogin(context.Background(), testFlags(t, addr), "", time.Second)
	require.ErrorContains(t, err, "whitelist")
	require.NoError(t, srv.Close())
}
