package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"gtonstaking/cmd/internal/passphrase"
	"gtonstaking/config"
	"gtonstaking/core/audit"
	"gtonstaking/core/events"
	"gtonstaking/core/ledger"
	"gtonstaking/core/staking"
	"gtonstaking/crypto"
	"gtonstaking/observability/logging"
	"gtonstaking/observability/metrics"
	"gtonstaking/observability/otel"
	"gtonstaking/rpc"
	"gtonstaking/storage"
)

const (
	ownerPassEnv = "STAKINGD_OWNER_PASS"
	otelEnv      = "STAKINGD_OTEL_ENDPOINT"
)

func main() {
	configFile := flag.String("config", "./stakingd.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("STAKINGD_ENV"))
	logger := logging.Setup("stakingd", env, "")

	passSource := passphrase.NewSource(ownerPassEnv)
	passphraseVal, err := passSource.Get()
	if err != nil {
		logger.Error("failed to resolve owner keystore passphrase", slog.Any("error", err))
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile, config.WithKeystorePassphrase(passphraseVal))
	if err != nil {
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.LogFilePath) != "" {
		logger = logging.Setup("stakingd", env, cfg.LogFilePath)
	}

	shutdownTelemetry, err := initTelemetry(logger)
	if err != nil {
		logger.Error("failed to initialise telemetry", slog.Any("error", err))
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ownerKey, err := crypto.LoadFromKeystore(cfg.OwnerKeystorePath, passphraseVal)
	if err != nil {
		logger.Error("failed to load owner keystore", slog.Any("error", err))
		os.Exit(1)
	}
	owner := common.BytesToAddress(ownerKey.PubKey().Address().Bytes())

	baseAssetAddr, err := resolveBaseAssetAddress(cfg.BaseAssetAddress, owner)
	if err != nil {
		logger.Error("failed to resolve base asset address", slog.Any("error", err))
		os.Exit(1)
	}

	baseAsset := ledger.New(db, 18, baseAssetAddr)
	broadcastEmitter := events.NewBroadcastEmitter()
	store := staking.NewLevelDBStore(db)

	poolEmitter, closeAudit, err := buildPoolEmitter(cfg, broadcastEmitter, logger)
	if err != nil {
		logger.Error("failed to initialise audit trail", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeAudit()

	pool, err := staking.NewPool(baseAsset, owner,
		staking.WithEmitter(poolEmitter),
		staking.WithStore(store),
	)
	if err != nil {
		logger.Error("failed to construct pool", slog.Any("error", err))
		os.Exit(1)
	}

	if restored, err := staking.LoadInto(pool, store); err != nil {
		logger.Error("failed to restore pool snapshot", slog.Any("error", err))
		os.Exit(1)
	} else if restored {
		logger.Info("restored pool state from store")
	} else {
		pool.AprBasisPoints = cfg.Global.Pool.AprBasisPoints
		pool.HarvestIntervalSeconds = cfg.Global.Pool.HarvestIntervalSeconds
		pool.Paused = cfg.Global.Pauses.Staking
	}

	reportPoolMetrics(pool)

	jwtSigningKeyEnv := ""
	if strings.TrimSpace(cfg.JWTSigningKeyPath) != "" {
		jwtSigningKeyEnv = "STAKINGD_JWT_SECRET"
		if err := loadSigningKeyIntoEnv(cfg.JWTSigningKeyPath, jwtSigningKeyEnv); err != nil {
			logger.Error("failed to load JWT signing key", slog.Any("error", err))
			os.Exit(1)
		}
	}

	rpcServer, err := rpc.NewServer(pool, broadcastEmitter, rpc.ServerConfig{
		TrustProxyHeaders: false,
		JWT: rpc.JWTConfig{
			Enable:         jwtSigningKeyEnv != "",
			Alg:            "HS256",
			HSSecretEnv:    jwtSigningKeyEnv,
			Issuer:         "stakingd",
			MaxSkewSeconds: 60,
		},
		ReadHeaderTimeout:        5 * time.Second,
		ReadTimeout:              15 * time.Second,
		WriteTimeout:             15 * time.Second,
		IdleTimeout:              60 * time.Second,
		AllowInsecure:            true,
		AllowInsecureUnspecified: false,
	})
	if err != nil {
		logger.Error("failed to initialise RPC server", slog.Any("error", err))
		os.Exit(1)
	}

	rpcErrCh := make(chan error, 1)
	go func() {
		err := rpcServer.Start(cfg.ListenAddress)
		rpcErrCh <- err
		close(rpcErrCh)
	}()

	if err := waitForRPCStartup(cfg.ListenAddress, rpcErrCh, 5*time.Second); err != nil {
		logger.Error("RPC server failed to start", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("stakingd listening", slog.String("addr", cfg.ListenAddress))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-rpcErrCh:
		if ok && err != nil {
			logger.Error("RPC server terminated", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rpcServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("error during RPC shutdown", slog.Any("error", err))
		}
		if err := store.Save(pool); err != nil {
			logger.Error("error saving final pool snapshot", slog.Any("error", err))
		}
	}
}

// resolveBaseAssetAddress decodes the bech32 custody address from config, or
// falls back to the owner's own address when unset so a fresh bootstrap has
// somewhere to custody deposits without requiring a second keystore up front.
func resolveBaseAssetAddress(encoded string, fallback common.Address) (common.Address, error) {
	trimmed := strings.TrimSpace(encoded)
	if trimmed == "" {
		return fallback, nil
	}
	decoded, err := crypto.DecodeAddress(trimmed)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode base asset address: %w", err)
	}
	return common.BytesToAddress(decoded.Bytes()), nil
}

// buildPoolEmitter wires the live websocket feed together with the durable
// audit trail when one is configured, so the pool only ever sees a single
// events.Emitter regardless of how many downstream consumers are listening.
// The returned close func is always safe to defer, even when audit is
// disabled.
func buildPoolEmitter(cfg *config.Config, broadcastEmitter *events.BroadcastEmitter, logger *slog.Logger) (events.Emitter, func(), error) {
	noop := func() {}
	if strings.TrimSpace(cfg.AuditDriver) == "" {
		return broadcastEmitter, noop, nil
	}

	db, err := audit.Open(audit.Config{Driver: cfg.AuditDriver, DSN: cfg.AuditDSN})
	if err != nil {
		return nil, noop, err
	}
	recorder := audit.NewRecorder(db)
	logger.Info("audit trail enabled", slog.String("driver", cfg.AuditDriver))

	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return events.MultiEmitter{broadcastEmitter, recorder}, closeFn, nil
}

// reportPoolMetrics publishes the pool's current configuration as gauges so
// /metrics reflects restored state immediately on boot. Afterwards the
// setApr and togglePause handlers refresh their own gauges; the totalAmount
// and ARPS gauges are set only here.
func reportPoolMetrics(pool *staking.Pool) {
	m := metrics.Staking()
	m.SetTotalAmount(u256ToFloat(pool.TotalAmount))
	m.SetAccumulatedRewardPerShare(u256ToFloat(pool.AccumulatedRewardPerShare))
	m.SetAprBasisPoints(pool.AprBasisPoints)
	m.SetPaused(pool.Paused)
}

func u256ToFloat(amount *uint256.Int) float64 {
	f := new(big.Float).SetInt(amount.ToBig())
	v, _ := f.Float64()
	return v
}

func initTelemetry(logger *slog.Logger) (func(context.Context) error, error) {
	endpoint := strings.TrimSpace(os.Getenv(otelEnv))
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	shutdown, err := otel.Init(context.Background(), otel.Config{
		ServiceName: "stakingd",
		Environment: strings.TrimSpace(os.Getenv("STAKINGD_ENV")),
		Endpoint:    endpoint,
		Insecure:    true,
		Metrics:     true,
		Traces:      true,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("telemetry exporting", slog.String("endpoint", endpoint))
	return shutdown, nil
}

func loadSigningKeyIntoEnv(path, envVar string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read jwt signing key: %w", err)
	}
	return os.Setenv(envVar, strings.TrimSpace(string(data)))
}

func waitForRPCStartup(addr string, errCh <-chan error, timeout time.Duration) error {
	dialAddr := dialAddressFor(addr)
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-errCh:
			if !ok {
				return fmt.Errorf("RPC server terminated before startup confirmation")
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("RPC server exited before startup confirmation")
		default:
		}

		conn, err := net.DialTimeout("tcp", dialAddr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}

		select {
		case err, ok := <-errCh:
			if !ok {
				return fmt.Errorf("RPC server terminated before startup confirmation")
			}
			if err != nil {
				return err
			}
			return fmt.Errorf("RPC server exited before startup confirmation")
		case <-ticker.C:
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for RPC server to start on %s", addr)
		}
	}
}

func dialAddressFor(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}
