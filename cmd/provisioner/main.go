package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/airbusgeo/geocube-provisioner/common"
	"github.com/airbusgeo/geocube-provisioner/interface/auth"
	"github.com/airbusgeo/geocube-provisioner/interface/catalog/rest"
	"github.com/airbusgeo/geocube-provisioner/interface/vector"
	"github.com/airbusgeo/geocube-provisioner/interface/vector/pg"
	vectorrest "github.com/airbusgeo/geocube-provisioner/interface/vector/rest"
	"github.com/airbusgeo/geocube-provisioner/provisioner"
	"github.com/airbusgeo/geocube-provisioner/service"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"github.com/airbusgeo/geocube/interface/messaging/pubsub"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
)

const (
	actionCreateProduct = "create-product"
	actionResetProduct  = "reset-product"
	actionCreateTable   = "create-table"
	actionResetTable    = "reset-table"
	actionSetup         = "setup"
	actionTeardown      = "teardown"
)

type authConfig struct {
	URL          string
	ClientID     string
	ClientSecret string
}

type config struct {
	Action            string
	Args              []string
	Variant           provisioner.SchemaVariant
	CatalogServer     string
	VectorServer      string
	VectorDB          string
	Auth              authConfig
	Org               string
	Namespace         string
	ConfigFile        string
	PsProject         string
	PsTopic           string
	WorkDir           string
	IgnoreResetErrors bool
	Verbose           bool
}

func newAppConfig() (*config, error) {
	action := flag.String("action", "", "action to run: create-product|reset-product|create-table|reset-table|setup|teardown")
	variant := flag.String("variant", provisioner.SchemaDetections.String(), "schema of the table (create-table): detections|confidence")
	catalogServer := flag.String("catalog-server", "", "url of the catalog service")
	vectorServer := flag.String("vector-server", "", "url of the vector-store service")
	vectorDB := flag.String("vector-db", "", "postgres connection of a self-hosted vector-store (instead of -vector-server)")
	authURL := flag.String("auth-url", "", "url of the token endpoint (client credentials)")
	clientID := flag.String("client-id", "", "client id")
	clientSecret := flag.String("client-secret", "", "client secret")
	org := flag.String("org", "", "organization (overrides the organization of the token)")
	namespace := flag.String("namespace", "", "user namespace (overrides the namespace of the token)")
	configFile := flag.String("config", "", "setup file (yaml or json): configuration and resources to provision")
	psProject := flag.String("ps-project", "", "pubsub project (gcp only/not required in local usage)")
	psTopic := flag.String("ps-topic", "", "pubsub topic where the provisioning events are published (optional)")
	workdir := flag.String("workdir", "", "directory where the remote samples are downloaded (default: temp dir)")
	ignoreResetErrors := flag.Bool("ignore-reset-errors", false, "ignore any error when resetting a table (by default, only not-found is ignored)")
	verbose := flag.Bool("verbose", false, "debug logs")
	flag.Parse()

	switch *action {
	case actionCreateProduct, actionResetProduct, actionCreateTable, actionResetTable:
		if flag.NArg() < 1 {
			return nil, fmt.Errorf("missing id argument for action %s", *action)
		}
	case actionSetup, actionTeardown:
		if *configFile == "" {
			return nil, fmt.Errorf("missing config flag for action %s", *action)
		}
	default:
		return nil, fmt.Errorf("unknown action '%s'", *action)
	}
	v, err := provisioner.SchemaVariantString(*variant)
	if err != nil {
		return nil, fmt.Errorf("variant flag: %w", err)
	}
	if *catalogServer == "" {
		return nil, fmt.Errorf("missing catalog-server flag")
	}
	if *vectorServer == "" && *vectorDB == "" {
		return nil, fmt.Errorf("missing vector-server or vector-db flag")
	}
	if *authURL == "" && *org == "" && *namespace == "" {
		return nil, fmt.Errorf("missing auth-url flag (or org/namespace flags)")
	}
	return &config{
		Action:        *action,
		Args:          flag.Args(),
		Variant:       v,
		CatalogServer: *catalogServer,
		VectorServer:  *vectorServer,
		VectorDB:      *vectorDB,
		Auth: authConfig{
			URL:          *authURL,
			ClientID:     *clientID,
			ClientSecret: *clientSecret,
		},
		Org:               *org,
		Namespace:         *namespace,
		ConfigFile:        *configFile,
		PsProject:         *psProject,
		PsTopic:           *psTopic,
		WorkDir:           *workdir,
		IgnoreResetErrors: *ignoreResetErrors,
		Verbose:           *verbose,
	}, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	err := run(ctx)
	if err != nil {
		log.Fatal("error", zap.Error(err))
	}
}

func run(ctx context.Context) error {
	config, err := newAppConfig()
	if err != nil {
		return err
	}
	if config.Verbose {
		log.SetLevel(zapcore.DebugLevel)
	}

	// Session
	var ts oauth2.TokenSource
	session := common.Session{}
	if config.Auth.URL != "" {
		ts = auth.NewTokenSource(ctx, config.Auth.URL, config.Auth.ClientID, config.Auth.ClientSecret)
		if session, err = auth.Discover(ctx, ts); err != nil {
			return fmt.Errorf("auth.Discover: %w", err)
		}
	}
	if config.Org != "" {
		session.Org = config.Org
	}
	if config.Namespace != "" {
		session.Namespace = config.Namespace
	}
	ctx = log.With(ctx, "scope", session.Scope())
	client := auth.NewClient(ctx, ts)

	// Remote services
	catalogClient, err := rest.New(config.CatalogServer, client)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	var vectorService vector.Service
	if config.VectorDB != "" {
		db, err := pg.New(ctx, config.VectorDB)
		if err != nil {
			return fmt.Errorf("pg.New: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("pg.Migrate: %w", err)
		}
		vectorService = db
	} else if vectorService, err = vectorrest.New(config.VectorServer, client); err != nil {
		return fmt.Errorf("vector: %w", err)
	}

	// Configuration
	plan := provisioner.Plan{Config: provisioner.DefaultConfig()}
	if config.ConfigFile != "" {
		if plan, err = provisioner.LoadPlan(config.ConfigFile, plan.Config); err != nil {
			return err
		}
	}
	if config.IgnoreResetErrors {
		plan.Config.ResetPolicy = provisioner.ResetIgnoreErrors
	}
	if config.WorkDir != "" {
		plan.Config.WorkDir = config.WorkDir
	}

	var opts []provisioner.Option
	if config.PsTopic != "" {
		publisher, err := pubsub.NewPublisher(ctx, config.PsProject, config.PsTopic)
		if err != nil {
			return fmt.Errorf("pubsub.NewPublisher: %w", err)
		}
		defer publisher.Stop()
		opts = append(opts, provisioner.WithPublisher(publisher))
	}

	p, err := provisioner.New(session, catalogClient, vectorService, plan.Config, opts...)
	if err != nil {
		return err
	}

	return runAction(ctx, p, config, plan)
}

func runAction(ctx context.Context, p *provisioner.Provisioner, config *config, plan provisioner.Plan) error {
	var id string
	var err error
	switch config.Action {
	case actionCreateProduct:
		name := config.Args[0]
		if len(config.Args) > 1 {
			name = config.Args[1]
		}
		id, err = p.CreateProduct(ctx, config.Args[0], name)
	case actionResetProduct:
		id, err = config.Args[0], p.ResetProduct(ctx, config.Args[0])
	case actionCreateTable:
		id, err = p.CreateTable(ctx, config.Args[0], config.Variant)
	case actionResetTable:
		id, err = p.ResetTable(ctx, config.Args[0])
	case actionSetup:
		var res provisioner.Result
		if res, err = p.Setup(ctx, plan); err == nil {
			if err := service.ToJSON(res, plan.Config.WorkDir, "setup.json"); err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(res)
		}
	case actionTeardown:
		err = p.Teardown(ctx, plan)
	}
	if err != nil {
		return err
	}
	if id != "" {
		fmt.Println(id)
	}
	return nil
}
