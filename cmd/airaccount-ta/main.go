package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/cmd/flags"
	"github.com/AAStarCommunity/AirAccount-sub001/common"
	"github.com/AAStarCommunity/AirAccount-sub001/cryptoutils"
	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
	"github.com/AAStarCommunity/AirAccount-sub001/kms"
	"github.com/AAStarCommunity/AirAccount-sub001/registry"
	"github.com/AAStarCommunity/AirAccount-sub001/storage"
	"github.com/AAStarCommunity/AirAccount-sub001/ta"
)

const factorySeedSize = 32

var shamirSharesFlag = &cli.IntFlag{
	Name:  "shamir-shares",
	Value: 0,
	Usage: "number of escrow shares to split the seed into, 0 to skip escrow",
}

var shamirThresholdFlag = &cli.IntFlag{
	Name:  "shamir-threshold",
	Value: 3,
	Usage: "shares required to reconstruct the seed",
}

var shareFlag = &cli.StringSliceFlag{
	Name:  "share",
	Usage: "hex-encoded escrow share, repeat per share",
}

func main() {
	app := &cli.App{
		Name:    common.PackageName,
		Usage:   "AirAccount wallet trusted application",
		Version: common.Version,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "generate, seal and store a new factory seed",
				Flags:  append([]cli.Flag{flags.SeedLocationFlag, shamirSharesFlag, shamirThresholdFlag}, flags.CommonFlags...),
				Action: runInit,
			},
			{
				Name:   "recover",
				Usage:  "reconstruct the factory seed from escrow shares and store it",
				Flags:  append([]cli.Flag{flags.SeedLocationFlag, shareFlag}, flags.CommonFlags...),
				Action: runRecover,
			},
			{
				Name:  "run",
				Usage: "load the factory seed and run the application",
				Flags: append([]cli.Flag{
					flags.SeedLocationFlag,
					flags.WalletCapacityFlag,
					flags.AuditCapacityFlag,
					flags.QuoteProviderFlag,
				}, flags.CommonFlags...),
				Action: runApp,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runInit(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	rng := cryptoutils.NewRNG()
	seed, err := rng.SecureBytes(factorySeedSize)
	if err != nil {
		logger.Error("Failed to generate factory seed", "err", err)
		return err
	}
	defer seed.Destroy()

	if shares := cCtx.Int(shamirSharesFlag.Name); shares > 0 {
		threshold := cCtx.Int(shamirThresholdFlag.Name)
		split, err := kms.SplitFactorySeed(seed.Bytes(), shares, threshold)
		if err != nil {
			logger.Error("Failed to split factory seed", "err", err)
			return err
		}
		logger.Info("Factory seed split for escrow",
			slog.Int("shares", shares), slog.Int("threshold", threshold))
		for i, share := range split {
			// Shares go to operators out of band; stdout, not logs.
			fmt.Printf("share %d: %s\n", i+1, hex.EncodeToString(share))
		}
	}

	if err := storeSeed(cCtx, logger, seed.Bytes()); err != nil {
		return err
	}

	logger.Info("Factory seed provisioned",
		slog.String("location", cCtx.String(flags.SeedLocationFlag.Name)))
	return nil
}

func runRecover(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	hexShares := cCtx.StringSlice(shareFlag.Name)
	shares := make([][]byte, 0, len(hexShares))
	for i, h := range hexShares {
		share, err := hex.DecodeString(h)
		if err != nil {
			return fmt.Errorf("share %d is not valid hex: %w", i+1, err)
		}
		shares = append(shares, share)
	}

	seed, err := kms.RecoverFactorySeed(shares)
	if err != nil {
		logger.Error("Failed to reconstruct factory seed", "err", err)
		return err
	}
	defer cryptoutils.Zeroize(seed)

	if err := storeSeed(cCtx, logger, seed); err != nil {
		return err
	}

	logger.Info("Factory seed recovered and stored",
		slog.String("location", cCtx.String(flags.SeedLocationFlag.Name)))
	return nil
}

func runApp(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	ctx := context.Background()

	seed, err := loadSeed(ctx, cCtx, logger)
	if err != nil {
		return err
	}
	defer cryptoutils.Zeroize(seed)

	auditLog := audit.NewLog(cCtx.Int(flags.AuditCapacityFlag.Name), logger)

	engine, err := kms.NewHybridKMS(seed, auditLog, logger)
	if err != nil {
		logger.Error("Failed to create derivation engine", "err", err)
		return err
	}
	defer engine.Destroy()
	cryptoutils.Zeroize(seed)

	if addr := cCtx.String(flags.QuoteProviderFlag.Name); addr != "" {
		engine.WithAttestationProvider(&kms.RemoteAttestationProvider{Address: addr})
		logger.Info("Using remote quote provider", slog.String("address", addr))
	}

	wallets, err := registry.NewWalletRegistry(cCtx.Int(flags.WalletCapacityFlag.Name), engine, auditLog, logger)
	if err != nil {
		logger.Error("Failed to create wallet registry", "err", err)
		return err
	}
	defer wallets.Destroy()

	app, err := ta.New(ta.Config{
		Version:  fmt.Sprintf("AirAccount TA %s", common.Version),
		Wallets:  wallets,
		Security: ta.NewSecurityManager(cryptoutils.NewRNG(), auditLog, logger),
		Attester: engine,
		AuditLog: auditLog,
		Log:      logger,
	})
	if err != nil {
		logger.Error("Failed to create trusted application", "err", err)
		return err
	}

	// Self-test before serving; a degraded security posture must be
	// visible at startup, not at the first signing request.
	session := app.OpenSession()
	resp := app.Invoke(session, &interfaces.Command{
		ID: interfaces.CmdSecurityTest,
		Params: [interfaces.MaxParams]interfaces.Param{
			{Type: interfaces.ParamMemrefOut, Buffer: make([]byte, 512)},
		},
	})
	app.CloseSession(session)
	if resp.Status != interfaces.StatusSuccess {
		logger.Error("Security self-test could not run", "status", resp.Status.String())
		return fmt.Errorf("security self-test failed: %s", resp.Message)
	}
	logger.Info("Security self-test complete", slog.String("report", string(resp.Output)))

	logger.Info("Trusted application is running, press Ctrl+C to stop",
		slog.Int("wallet_capacity", wallets.Capacity()))

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)
	<-exit

	logger.Info("Shutdown signal received",
		slog.Uint64("audit_seq", auditLog.Seq()),
		slog.Uint64("audit_dropped", auditLog.Dropped()))
	return nil
}

func storeSeed(cCtx *cli.Context, logger *slog.Logger, seed []byte) error {
	factory := storage.NewSeedBackendFactory(logger)
	backend, err := factory.SeedBackendFor(interfaces.SeedBackendLocation(cCtx.String(flags.SeedLocationFlag.Name)))
	if err != nil {
		logger.Error("Failed to create seed backend", "err", err)
		return err
	}

	if err := backend.StoreSeed(context.Background(), storage.Seal(seed)); err != nil {
		logger.Error("Failed to store sealed seed", "err", err)
		return err
	}
	return nil
}

func loadSeed(ctx context.Context, cCtx *cli.Context, logger *slog.Logger) ([]byte, error) {
	location := cCtx.String(flags.SeedLocationFlag.Name)

	factory := storage.NewSeedBackendFactory(logger)
	backend, err := factory.SeedBackendFor(interfaces.SeedBackendLocation(location))
	if err != nil {
		logger.Error("Failed to create seed backend", "err", err)
		return nil, err
	}

	sealed, err := backend.FetchSeed(ctx)
	if err != nil {
		logger.Error("Failed to fetch sealed seed",
			slog.String("location", location), "err", err)
		return nil, err
	}

	seed, err := storage.Unseal(sealed)
	if err != nil {
		logger.Error("Sealed seed failed its integrity check", "err", err)
		return nil, err
	}

	logger.Info("Factory seed loaded", slog.String("location", location))
	return seed, nil
}
