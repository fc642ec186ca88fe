package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sqliteadapter "github.com/toreyjames/Asset-Inventory-Claude/internal/adapters/db/sqlite"
	httpadapter "github.com/toreyjames/Asset-Inventory-Claude/internal/adapters/http"
	rpcadapter "github.com/toreyjames/Asset-Inventory-Claude/internal/adapters/rpcjson"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/application"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/domain"
	"github.com/toreyjames/Asset-Inventory-Claude/internal/graph"
	"github.com/urfave/cli/v3"
)

func main() {
	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	root := &cli.Command{
		Name:  "otinventory",
		Usage: "OT asset inventory server and CLI",
		Commands: []*cli.Command{
			serverCommand(),
			authCommand(),
			usersCommand(),
			assetsCommand(),
			relationshipsCommand(),
			graphCommand(),
			impactCommand(),
			spofCommand(),
			complianceCommand(),
			areasCommand(),
			environmentsCommand(),
			reviewCommand(),
			auditCommand(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runServer(ctx, ":8080", "/tmp/otinventory.sock", "inventory.db", "admin@inventory.local", "admin", true)
		},
	}

	if err := root.Run(context.Background(), args); err != nil {
		log.Fatal(err)
	}
}

func serverCommand() *cli.Command {
	return &cli.Command{
		Name:  "server",
		Usage: "Run HTTP server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", Usage: "HTTP listen address"},
			&cli.StringFlag{Name: "rpc-socket", Value: "/tmp/otinventory.sock", Usage: "JSON-RPC unix socket path"},
			&cli.StringFlag{Name: "db-path", Value: "inventory.db", Usage: "SQLite database path"},
			&cli.StringFlag{Name: "bootstrap-admin-email", Value: "admin@inventory.local", Usage: "initial admin email"},
			&cli.StringFlag{Name: "bootstrap-admin-password", Value: "admin", Usage: "initial admin password when users are empty"},
			&cli.BoolFlag{Name: "seed", Value: true, Usage: "load the sample facility into an empty database"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runServer(ctx, c.String("addr"), c.String("rpc-socket"), c.String("db-path"),
				c.String("bootstrap-admin-email"), c.String("bootstrap-admin-password"), c.Bool("seed"))
		},
	}
}

func runServer(ctx context.Context, addr, rpcSocket, dbPath, bootstrapEmail, bootstrapPassword string, seed bool) error {
	db, err := sqliteadapter.Open(dbPath)
	if err != nil {
		return err
	}
	if err := sqliteadapter.RunMigrations(ctx, db); err != nil {
		return err
	}
	if seed {
		if err := sqliteadapter.Seed(ctx, db); err != nil {
			return err
		}
	}

	repo := sqliteadapter.NewInventoryRepository(db)
	service := application.NewInventoryService(repo)
	if err := service.BootstrapAdmin(ctx, bootstrapEmail, bootstrapPassword); err != nil {
		return err
	}

	router := httpadapter.NewRouter(service)
	srv := &http.Server{Addr: addr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	rpcSrv, err := rpcadapter.Start(rpcSocket, service)
	if err != nil {
		return err
	}

	defer func() {
		_ = rpcSrv.Close()
	}()
	log.Printf("json-rpc listening on unix://%s", rpcSocket)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received signal %s, shutting down", sig)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authentication commands",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Login and store CLI token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "transport", Value: "uds"},
					&cli.StringFlag{Name: "server", Value: "http://127.0.0.1:8080"},
					&cli.StringFlag{Name: "socket", Value: "/tmp/otinventory.sock"},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "token-name", Value: "cli"},
					&cli.IntFlag{Name: "ttl-hours", Usage: "token lifetime, 0 means no expiry"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg := cliConfig{Transport: c.String("transport"), Server: c.String("server"), Socket: c.String("socket")}
					var out struct {
						Token string `json:"token"`
						Email string `json:"email"`
					}
					err := doLogin(ctx, cfg, c.String("email"), c.String("password"), c.String("token-name"), int(c.Int("ttl-hours")), &out)
					if err != nil {
						return err
					}
					cfg.Token = out.Token
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Printf("logged in as %s\n", out.Email)
					return nil
				},
			},
			{
				Name:  "whoami",
				Usage: "Show current authenticated user",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						ID    uint   `json:"id"`
						Email string `json:"email"`
						Role  string `json:"role"`
					}
					if err := doWhoAmI(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{
						{"id", fmt.Sprintf("%d", out.ID)},
						{"email", out.Email},
						{"role", out.Role},
					})
					return nil
				},
			},
			{
				Name:  "logout",
				Usage: "Clear local CLI auth token",
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					cfg.Token = ""
					if err := saveConfig(cfg); err != nil {
						return err
					}
					fmt.Println("logged out")
					return nil
				},
			},
		},
	}
}

func usersCommand() *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "User management commands",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a user (admin only)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true},
					&cli.StringFlag{Name: "role", Value: domain.RoleViewer, Usage: "admin, operator or viewer"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						ID    uint   `json:"id"`
						Email string `json:"email"`
						Role  string `json:"role"`
					}
					if err := doUserCreate(ctx, cfg, c.String("email"), c.String("password"), c.String("role"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					fmt.Printf("created user %s (%s)\n", out.Email, out.Role)
					return nil
				},
			},
		},
	}
}

func assetsCommand() *cli.Command {
	return &cli.Command{
		Name:  "assets",
		Usage: "Asset inventory commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List assets",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "type"},
					&cli.StringFlag{Name: "criticality"},
					&cli.StringFlag{Name: "process-area"},
					&cli.StringFlag{Name: "site"},
					&cli.StringFlag{Name: "owner"},
					&cli.BoolFlag{Name: "has-gaps", Usage: "only assets with open compliance gaps"},
					&cli.IntFlag{Name: "limit"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Asset
					err = doAssetsList(ctx, cfg, c.String("type"), c.String("criticality"),
						c.String("process-area"), c.String("site"), c.String("owner"),
						c.Bool("has-gaps"), int(c.Int("limit")), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAssets(out)
					return nil
				},
			},
			{
				Name:  "get",
				Usage: "Show one asset with its edges, gaps and flags",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.AssetDetail
					if err := doAssetsGet(ctx, cfg, c.String("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAssetDetail(out)
					return nil
				},
			},
			{
				Name:  "search",
				Usage: "Search assets by name, id, vendor or notes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Required: true},
					&cli.IntFlag{Name: "limit"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Asset
					if err := doAssetsSearch(ctx, cfg, c.String("q"), int(c.Int("limit")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAssets(out)
					return nil
				},
			},
			{
				Name:  "create",
				Usage: "Register an asset",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "asset id, generated when empty"},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "type", Required: true},
					&cli.StringFlag{Name: "criticality"},
					&cli.StringFlag{Name: "manufacturer"},
					&cli.StringFlag{Name: "model"},
					&cli.StringFlag{Name: "site"},
					&cli.StringFlag{Name: "process-area"},
					&cli.StringFlag{Name: "ip"},
					&cli.StringFlag{Name: "vlan"},
					&cli.StringFlag{Name: "protocols", Usage: "csv protocol list"},
					&cli.StringFlag{Name: "function"},
					&cli.StringFlag{Name: "owner"},
					&cli.StringFlag{Name: "notes"},
					&cli.StringFlag{Name: "tags", Usage: "csv tag list"},
					&cli.BoolFlag{Name: "in-cmms"},
					&cli.BoolFlag{Name: "documented"},
					&cli.BoolFlag{Name: "security-policy"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					asset := domain.Asset{
						ID:                    c.String("id"),
						Name:                  c.String("name"),
						Type:                  domain.AssetType(c.String("type")),
						Criticality:           domain.Criticality(c.String("criticality")),
						Manufacturer:          optString(c.String("manufacturer")),
						Model:                 optString(c.String("model")),
						SiteID:                optString(c.String("site")),
						ProcessAreaID:         optString(c.String("process-area")),
						IPAddress:             optString(c.String("ip")),
						VLAN:                  optString(c.String("vlan")),
						Protocols:             csvList(c.String("protocols")),
						Function:              optString(c.String("function")),
						Owner:                 optString(c.String("owner")),
						Notes:                 optString(c.String("notes")),
						Tags:                  csvList(c.String("tags")),
						InCMMS:                c.Bool("in-cmms"),
						Documented:            c.Bool("documented"),
						SecurityPolicyApplied: c.Bool("security-policy"),
					}
					var out domain.Asset
					if err := doAssetsCreate(ctx, cfg, asset, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKV([][2]string{
						{"id", out.ID},
						{"name", out.Name},
						{"type", string(out.Type)},
						{"criticality", string(out.Criticality)},
					})
					return nil
				},
			},
			{
				Name:  "counts",
				Usage: "Inventory totals by type and criticality",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.InventoryCounts
					if err := doAssetsCounts(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printInventoryCounts(out)
					return nil
				},
			},
		},
	}
}

func relationshipsCommand() *cli.Command {
	return &cli.Command{
		Name:  "relationships",
		Usage: "Relationship commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List relationships",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "asset", Usage: "match either endpoint"},
					&cli.StringFlag{Name: "source"},
					&cli.StringFlag{Name: "target"},
					&cli.StringFlag{Name: "kind"},
					&cli.BoolFlag{Name: "verified-only"},
					&cli.IntFlag{Name: "limit"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.Relationship
					err = doRelationshipsList(ctx, cfg, c.String("asset"), c.String("source"),
						c.String("target"), c.String("kind"), c.Bool("verified-only"), int(c.Int("limit")), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRelationships(out)
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Connect two assets",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Required: true},
					&cli.StringFlag{Name: "target", Required: true},
					&cli.StringFlag{Name: "kind", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.BoolFlag{Name: "inferred"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Relationship
					err = doRelationshipAdd(ctx, cfg, c.String("source"), c.String("target"),
						c.String("kind"), c.String("description"), c.Bool("inferred"), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRelationshipKV(out)
					return nil
				},
			},
			{
				Name:  "verify",
				Usage: "Mark a relationship as human-verified",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.Relationship
					if err := doRelationshipVerify(ctx, cfg, c.String("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRelationshipKV(out)
					return nil
				},
			},
			{
				Name:  "kinds",
				Usage: "Relationship counts by kind",
				Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.KindCount
					if err := doRelationshipKinds(ctx, cfg, &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printKindCounts(out)
					return nil
				},
			},
		},
	}
}

func traceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "asset", Required: true},
		&cli.IntFlag{Name: "depth", Usage: "max hops, 0 means unlimited"},
		&cli.StringFlag{Name: "kinds", Usage: "csv relationship kinds"},
		&cli.BoolFlag{Name: "lenient", Usage: "skip broken edges instead of failing"},
		&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
	}
}

func graphCommand() *cli.Command {
	traceAction := func(direction string) func(context.Context, *cli.Command) error {
		return func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out application.TraceResult
			err = doGraphTrace(ctx, cfg, direction, c.String("asset"), int(c.Int("depth")), c.String("kinds"), c.Bool("lenient"), &out)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printTraceResult(out)
			return nil
		}
	}

	return &cli.Command{
		Name:  "graph",
		Usage: "Dependency graph traversal",
		Commands: []*cli.Command{
			{
				Name:   "upstream",
				Usage:  "Everything that feeds the asset",
				Flags:  traceFlags(),
				Action: traceAction("upstream"),
			},
			{
				Name:   "downstream",
				Usage:  "Everything the asset feeds",
				Flags:  traceFlags(),
				Action: traceAction("downstream"),
			},
			{
				Name:  "dependencies",
				Usage: "Combined upstream and downstream view with redundancy",
				Flags: traceFlags(),
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.DependencyReport
					err = doDependencies(ctx, cfg, c.String("asset"), int(c.Int("depth")), c.String("kinds"), c.Bool("lenient"), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printDependencyReport(out)
					return nil
				},
			},
		},
	}
}

func impactCommand() *cli.Command {
	return &cli.Command{
		Name:  "impact",
		Usage: "What fails if this asset fails",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "asset", Required: true},
			&cli.BoolFlag{Name: "lenient"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out struct {
				Report   graph.ImpactReport     `json:"report"`
				Warnings []graph.IntegrityIssue `json:"warnings"`
			}
			if err := doImpact(ctx, cfg, c.String("asset"), c.Bool("lenient"), &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printImpactReport(out.Report, out.Warnings)
			return nil
		},
	}
}

func spofCommand() *cli.Command {
	return &cli.Command{
		Name:  "spof",
		Usage: "Find single points of failure",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "threshold", Usage: "criticality floor, defaults to high"},
			&cli.BoolFlag{Name: "lenient"},
			&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out application.SpofReport
			if err := doSpof(ctx, cfg, c.String("threshold"), c.Bool("lenient"), &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printSpofReport(out)
			return nil
		},
	}
}

func complianceCommand() *cli.Command {
	return &cli.Command{
		Name:  "compliance",
		Usage: "Audit-prep commands",
		Commands: []*cli.Command{
			{
				Name:  "gaps",
				Usage: "Assets with ownership or documentation shortfalls",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "types", Usage: "csv gap types, empty checks the default set"},
					&cli.StringFlag{Name: "process-area"},
					&cli.StringFlag{Name: "criticality"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.GapReport
					err = doComplianceGaps(ctx, cfg, c.String("types"), c.String("process-area"), c.String("criticality"), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printGapReport(out)
					return nil
				},
			},
			{
				Name:  "summary",
				Usage: "Audit readiness report with score and recommendations",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "process-area"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.AuditSummary
					if err := doComplianceSummary(ctx, cfg, c.String("process-area"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAuditSummary(out)
					return nil
				},
			},
		},
	}
}

func areasCommand() *cli.Command {
	return &cli.Command{
		Name:  "areas",
		Usage: "Process area commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List process areas with asset breakdowns",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "site"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.ProcessAreaSummary
					if err := doAreasList(ctx, cfg, c.String("site"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAreas(out)
					return nil
				},
			},
			{
				Name:  "get",
				Usage: "Show a process area with its assets and compliance",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out application.ProcessAreaDetail
					if err := doAreasGet(ctx, cfg, c.String("id"), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAreaDetail(out)
					return nil
				},
			},
		},
	}
}

func environmentsCommand() *cli.Command {
	return &cli.Command{
		Name:  "environments",
		Usage: "List environments",
		Flags: []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "output raw JSON"}},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			var out []domain.Environment
			if err := doEnvironmentsList(ctx, cfg, &out); err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(out)
			}
			printEnvironments(out)
			return nil
		},
	}
}

func reviewCommand() *cli.Command {
	return &cli.Command{
		Name:  "review",
		Usage: "Review queue commands",
		Commands: []*cli.Command{
			{
				Name:  "flag",
				Usage: "Flag an asset for human review",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "asset", Required: true},
					&cli.StringFlag{Name: "type", Required: true},
					&cli.StringFlag{Name: "description", Required: true},
					&cli.StringFlag{Name: "severity", Value: "medium"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.ReviewFlag
					err = doReviewFlag(ctx, cfg, c.String("asset"), c.String("type"), c.String("description"), c.String("severity"), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printFlagKV(out)
					return nil
				},
			},
			{
				Name:  "suggest",
				Usage: "Suggest an inferred relationship for review",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Required: true},
					&cli.StringFlag{Name: "target", Required: true},
					&cli.StringFlag{Name: "kind", Required: true},
					&cli.StringFlag{Name: "reasoning", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out struct {
						Relationship domain.Relationship `json:"relationship"`
						Flag         domain.ReviewFlag   `json:"flag"`
					}
					err = doReviewSuggest(ctx, cfg, c.String("source"), c.String("target"), c.String("kind"), c.String("reasoning"), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printRelationshipKV(out.Relationship)
					fmt.Println()
					printFlagKV(out.Flag)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List review flags",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Usage: "open, in_review, resolved or dismissed"},
					&cli.StringFlag{Name: "type"},
					&cli.StringFlag{Name: "asset"},
					&cli.IntFlag{Name: "limit"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.ReviewFlag
					err = doReviewList(ctx, cfg, c.String("status"), c.String("type"), c.String("asset"), int(c.Int("limit")), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printFlags(out)
					return nil
				},
			},
			{
				Name:  "resolve",
				Usage: "Resolve or dismiss a flag",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "resolution", Value: domain.FlagStatusResolved, Usage: "resolved or dismissed"},
					&cli.StringFlag{Name: "notes"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out domain.ReviewFlag
					err = doReviewResolve(ctx, cfg, c.String("id"), c.String("resolution"), c.String("notes"), &out)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printFlagKV(out)
					return nil
				},
			},
		},
	}
}

func auditCommand() *cli.Command {
	return &cli.Command{
		Name:  "audit",
		Usage: "Audit log commands",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List audit logs (admin only)",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit"},
					&cli.BoolFlag{Name: "json", Usage: "output raw JSON"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					cfg, err := loadConfig()
					if err != nil {
						return err
					}
					var out []domain.AuditRecord
					if err := doAuditList(ctx, cfg, int(c.Int("limit")), &out); err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(out)
					}
					printAuditRecords(out)
					return nil
				},
			},
		},
	}
}

func csvList(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
