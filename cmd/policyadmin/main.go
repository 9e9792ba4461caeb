package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/meridianhealth/ai-governance-backend/internal/domain/compliance"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/policy"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/telemetry"
	"github.com/meridianhealth/ai-governance-backend/internal/domain/values"
	"github.com/meridianhealth/ai-governance-backend/internal/infrastructure/cache"
	"github.com/meridianhealth/ai-governance-backend/internal/infrastructure/config"
	"github.com/meridianhealth/ai-governance-backend/internal/infrastructure/crypto"
	"github.com/meridianhealth/ai-governance-backend/internal/infrastructure/database"
	"github.com/meridianhealth/ai-governance-backend/internal/metrics"
	"github.com/meridianhealth/ai-governance-backend/internal/service/policystore"
	infratelemetry "github.com/meridianhealth/ai-governance-backend/internal/infrastructure/telemetry"
)

func main() {
	var (
		action    = flag.String("action", "", "Action: create, history")
		eventType = flag.String("event-type", "", "Telemetry event type (e.g. drift, bias)")
		framework = flag.String("framework", "", "Regulatory framework (e.g. HIPAA, NIST_AI_RMF)")
		bump      = flag.String("bump", "minor", "Version bump for create: major, minor, patch")
		rulesPath = flag.String("rules", "", "Path to rule-logic JSON file (create only)")
		actor     = flag.String("actor", "", "Administrator identity recorded in the change log")
		reason    = flag.String("reason", "", "Reason recorded in the change log (create only)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infratelemetry.SetupLogger(cfg.LogLevel)
	if err != nil {
		slog.Error("failed to set up logger", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Install tracing and metrics before any instrument is created so the
	// store's registry binds to the real meter provider.
	telemetryProvider, err := infratelemetry.Init(ctx, &cfg.Telemetry,
		"aigov-policyadmin", cfg.Version, cfg.Environment)
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := telemetryProvider.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	store, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize policy store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	switch *action {
	case "create":
		err = runCreate(ctx, store, createArgs{
			eventType: *eventType,
			framework: *framework,
			bump:      *bump,
			rulesPath: *rulesPath,
			actor:     *actor,
			reason:    *reason,
		})
	case "history":
		err = runHistory(ctx, store, *eventType, *framework)
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", "action", *action, "error", err)
		os.Exit(1)
	}
}

// buildStore wires the policy store service from configuration. The CLI uses
// the same construction path as a long-running process so administrative
// writes invalidate the shared cache.
func buildStore(ctx context.Context, cfg *config.Config) (*policystore.Store, func(), error) {
	zapLogger, err := infratelemetry.NewZapLogger(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("building zap logger: %w", err)
	}

	pool, err := database.NewPool(ctx, &cfg.Database, zapLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	encryptor, err := crypto.NewAESGCMEncryptorFromBase64(cfg.Encryption.PolicyKey)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("building encryptor: %w", err)
	}

	registry, err := metrics.NewDefaultRegistry()
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("building metrics registry: %w", err)
	}

	var policyCache policystore.Cache
	var closeCache func()
	if cfg.Governance.PolicyCacheEnabled {
		c, err := cache.NewPolicyCache(&cfg.Redis, cfg.Governance.PolicyCacheTTL, zapLogger)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connecting to cache: %w", err)
		}
		policyCache = c
		closeCache = func() { c.Close() }
	}

	store := policystore.NewStore(
		database.NewPolicyRepository(pool),
		encryptor,
		clockwork.NewRealClock(),
		zapLogger,
		policyCache,
		registry,
	)

	cleanup := func() {
		if closeCache != nil {
			closeCache()
		}
		pool.Close()
		zapLogger.Sync()
	}

	return store, cleanup, nil
}

type createArgs struct {
	eventType string
	framework string
	bump      string
	rulesPath string
	actor     string
	reason    string
}

func runCreate(ctx context.Context, store *policystore.Store, args createArgs) error {
	if args.rulesPath == "" {
		return fmt.Errorf("-rules is required for create")
	}

	raw, err := os.ReadFile(args.rulesPath)
	if err != nil {
		return fmt.Errorf("reading rule logic: %w", err)
	}

	var logic policy.RuleLogic
	if err := json.Unmarshal(raw, &logic); err != nil {
		return fmt.Errorf("parsing rule logic: %w", err)
	}

	id, err := store.CreatePolicyVersion(ctx, policystore.CreatePolicyVersionInput{
		EventType:    telemetry.EventType(args.eventType),
		Framework:    compliance.Framework(args.framework),
		BumpType:     values.BumpType(args.bump),
		RuleLogic:    logic,
		CreatedBy:    args.actor,
		ChangeReason: args.reason,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created policy version %s for %s/%s\n", id, args.eventType, args.framework)
	return nil
}

func runHistory(ctx context.Context, store *policystore.Store, eventType, framework string) error {
	records, err := store.GetPolicyHistory(ctx,
		telemetry.EventType(eventType), compliance.Framework(framework))
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("no versions for %s/%s\n", eventType, framework)
		return nil
	}

	fmt.Printf("Versions for %s/%s:\n", eventType, framework)
	for _, rec := range records {
		line := fmt.Sprintf("  %-10s %-12s effective %s",
			rec.Version.String(), rec.Status, rec.EffectiveDate.Format("2006-01-02T15:04:05Z07:00"))
		if rec.DeprecatedDate != nil {
			line += fmt.Sprintf("  deprecated %s", rec.DeprecatedDate.Format("2006-01-02T15:04:05Z07:00"))
		}
		fmt.Printf("%s  hash %s\n", line, rec.RuleHash.String())
	}

	return nil
}
