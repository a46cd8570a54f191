// Command gateway runs the Minecraft-protocol gateway: it terminates the
// wire protocol for every connecting client and, when pointed at an etcd
// cluster, routes each player's Play-phase traffic to a simulation shard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mcgate/config"
	"mcgate/frame"
	"mcgate/gateway"
	"mcgate/loggingx"
	"mcgate/registry"
	"mcgate/session"
	"mcgate/shard"
)

const gatewayServiceName = "gateway"

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var cfg = config.Defaults()

var rootCmd = &cobra.Command{
	Use:   "mcgate",
	Short: "Minecraft-protocol gateway",
	Long: `mcgate terminates the Minecraft network protocol for every
connecting client and, when given an etcd cluster, routes each player's
Play-phase traffic to a simulation shard.`,
	RunE: runGateway,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mcgate %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func init() {
	cfg.BindFlags(rootCmd.Flags())
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runGateway(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	log := loggingx.New(loggingx.Options{Level: parseLogLevel(cfg.LogLevel)})

	ln, err := gateway.Listen(gateway.Config{
		BindAddress:       cfg.BindAddress,
		RSAKeyBits:        cfg.RSAKeyBits,
		MaxFrameBytes:     cfg.MaxFrameBytes,
		HandshakeDeadline: cfg.HandshakeDeadline,
		InboundQueueDepth: cfg.InboundQueueDepth,
	}, log)
	if err != nil {
		return fmt.Errorf("gateway: listen: %w", err)
	}

	var router *shard.Router
	var clusterReg *registry.EtcdRegistry
	if cfg.ClusterEnabled() {
		clusterReg, err = registry.NewEtcdRegistry(cfg.EtcdEndpoints, "/mcgate/gateways/")
		if err != nil {
			return fmt.Errorf("gateway: connect to etcd: %w", err)
		}
		shardReg, err := registry.NewEtcdRegistry(cfg.EtcdEndpoints, "/mcgate/shards/")
		if err != nil {
			return fmt.Errorf("gateway: connect to etcd: %w", err)
		}
		router = shard.NewRouter(shardReg, cfg.ShardBalancer, log)

		if err := clusterReg.Register(gatewayServiceName, registry.ServiceInstance{Addr: ln.Addr().String()}, 10); err != nil {
			log.Error("failed to register gateway instance", "err", err)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for sess := range ln.NewConnections() {
			wg.Add(1)
			go func(sess *session.Connection) {
				defer wg.Done()
				drainConnection(ctx, sess, router, log)
			}(sess)
		}
	}()

	serveErr := make(chan error, 1)
	go func() { serveErr <- ln.Serve() }()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			log.Error("accept loop failed", "err", err)
		}
	}

	if clusterReg != nil {
		if err := clusterReg.Deregister(gatewayServiceName, ln.Addr().String()); err != nil {
			log.Error("failed to deregister gateway instance", "err", err)
		}
	}
	if err := ln.Shutdown(10 * time.Second); err != nil {
		log.Error("shutdown timed out", "err", err)
	}
	if router != nil {
		_ = router.Close()
	}
	wg.Wait()
	return nil
}

// drainConnection consumes sess's Inbound() queue for the connection's
// whole lifetime, which Connection.Run requires to avoid ever blocking on
// a full queue. With no cluster configured there is nowhere to forward
// Play-phase frames, so they are discarded. With a cluster configured, the
// first Play-phase frame opens a route to a simulation shard, and that
// frame and every one after it are forwarded there; frames the shard sends back are
// written straight to the client. When the route ends, for any reason, the
// client connection is closed.
func drainConnection(ctx context.Context, sess *session.Connection, router *shard.Router, log *slog.Logger) {
	if router == nil {
		for range sess.Inbound() {
		}
		return
	}

	in := make(chan *frame.PacketFrame, 64)
	routeErr := make(chan error, 1)
	routeDone := make(chan struct{})
	var start sync.Once

	for f := range sess.Inbound() {
		if f.Phase != session.PhasePlay {
			continue
		}
		start.Do(func() {
			id := sess.Identity()
			var uuid [16]byte
			if id.UUID != nil {
				uuid = *id.UUID
			}
			go func() {
				routeErr <- router.Route(ctx, uuid, id.Name, in, sess.WriteFrame)
				close(routeDone)
				_ = sess.Close()
			}()
		})
		select {
		case in <- f.Frame:
		case <-routeDone:
		case <-ctx.Done():
		}
	}
	close(in)

	select {
	case err := <-routeErr:
		if err != nil {
			log.Debug("shard route ended", "player", sess.Identity().Name, "err", err)
		}
	default:
	}
}
