package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/gstoney/mcclient"
	"github.com/gstoney/mcclient/internal/config"
	"github.com/gstoney/mcclient/internal/logging"
	"github.com/gstoney/mcclient/internal/resolve"
	"github.com/gstoney/mcclient/metrics"
	"github.com/gstoney/mcclient/packet"
)

// session carries what every subcommand sets up before dialing.
type session struct {
	cfg       *config.Config
	log       *zap.Logger
	resolver  resolve.Resolver
	collector *metrics.Collector
	stop      func()
}

func newSession(ctx context.Context, flags *globalFlags) (*session, error) {
	cfg, err := config.Load(flags.configPath, flags.envFile)
	if err != nil {
		return nil, err
	}
	if flags.addr != "" {
		cfg.Server.Address = flags.addr
	}
	if flags.protocol != 0 {
		cfg.Client.Version = flags.protocol
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, log: log, stop: func() {}}

	switch cfg.Resolve.Mode {
	case config.ResolveDirect:
		s.resolver = resolve.Direct{}
	case config.ResolveSRV:
		s.resolver = resolve.SRV{}
	case config.ResolveEC2:
		r, err := resolve.NewEC2(ctx, cfg.Resolve.EC2Region, cfg.Resolve.EC2TagKey, cfg.Resolve.EC2Port)
		if err != nil {
			return nil, err
		}
		s.resolver = r
	}

	if cfg.Metrics.ListenAddress != "" {
		if err = s.serveMetrics(cfg.Metrics.ListenAddress); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *session) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	s.collector = metrics.NewCollector(reg)

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	s.log.Info("serving metrics", zap.String("addr", l.Addr().String()))

	s.stop = func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
	return nil
}

func (s *session) clientConfig(h mcclient.Handler) (mcclient.Config, error) {
	id, err := s.cfg.Client.UUID()
	if err != nil {
		return mcclient.Config{}, err
	}

	cfg := mcclient.Config{
		Version:      packet.Version(s.cfg.Client.Version),
		Handler:      h,
		Logger:       s.log,
		MaxFrameLen:  s.cfg.Client.MaxFrameLen,
		DialTimeout:  s.cfg.Client.DialTimeout,
		ReadTimeout:  s.cfg.Client.ReadTimeout,
		WriteTimeout: s.cfg.Client.WriteTimeout,
		Username:     s.cfg.Client.Username,
		PlayerUUID:   id,
		StatusPing:   s.cfg.Client.StatusPing,
	}
	return cfg, nil
}

// dial tries each resolved address in order and returns the first
// connection that completes its handshake.
func (s *session) dial(ctx context.Context, intent mcclient.Intent, h mcclient.Handler) (*mcclient.Conn, error) {
	addrs, err := s.resolver.Resolve(ctx, s.cfg.Server.Address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", s.cfg.Server.Address, err)
	}

	cfg, err := s.clientConfig(h)
	if err != nil {
		return nil, err
	}

	var errs []error
	for _, addr := range addrs {
		if s.collector != nil {
			cfg.Tracer = s.collector.Tracer()
		}
		c, err := mcclient.Dial(ctx, addr, intent, cfg)
		if err == nil {
			return c, nil
		}
		s.log.Warn("dial failed", zap.String("addr", addr), zap.Error(err))
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func (s *session) close() {
	s.stop()
	s.log.Sync()
}
