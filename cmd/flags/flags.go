package flags

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/AAStarCommunity/AirAccount-sub001/common"
)

// SetupLogger builds the process logger from the common logging flags.
func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJsonFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUidFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

var LogJsonFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}

var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}

var LogUidFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}

var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: common.PackageName,
	Usage: "add 'service' tag to logs",
}

var SeedLocationFlag = &cli.StringFlag{
	Name:  "seed-location",
	Value: "file:///var/lib/airaccount/seed",
	Usage: "sealed factory seed location URI (file://, vault://, s3://, ipfs://)",
}

var WalletCapacityFlag = &cli.IntFlag{
	Name:  "wallet-capacity",
	Value: 0,
	Usage: "wallet pool size, 0 for the default",
}

var AuditCapacityFlag = &cli.IntFlag{
	Name:  "audit-capacity",
	Value: 0,
	Usage: "audit log buffer size, 0 for the default",
}

var QuoteProviderFlag = &cli.StringFlag{
	Name:  "quote-provider",
	Value: "",
	Usage: "remote attestation quote provider address, empty for the dummy provider",
}

var CommonFlags = []cli.Flag{
	LogJsonFlag,
	LogDebugFlag,
	LogUidFlag,
	LogServiceFlag,
}
