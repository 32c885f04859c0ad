package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/airbusgeo/geocube-provisioner/interface/auth"
	catalogmem "github.com/airbusgeo/geocube-provisioner/interface/catalog/memory"
	"github.com/airbusgeo/geocube-provisioner/interface/catalog/rest"
	"github.com/airbusgeo/geocube-provisioner/interface/vector"
	vectormem "github.com/airbusgeo/geocube-provisioner/interface/vector/memory"
	"github.com/airbusgeo/geocube-provisioner/interface/vector/pg"
	vectorrest "github.com/airbusgeo/geocube-provisioner/interface/vector/rest"
	"github.com/airbusgeo/geocube-provisioner/service/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type config struct {
	Port            string
	APIPrefix       string
	VectorDB        string
	ClientsFile     string
	ClientID        string
	ClientSecret    string
	Subject         string
	Org             string
	TokenTTL        time.Duration
	PollsToComplete int
}

func newAppConfig() (*config, error) {
	config := config{}
	flag.StringVar(&config.Port, "port", "8080", "emulator port")
	flag.StringVar(&config.APIPrefix, "api-prefix", "/api/v1", "prefix of the catalog and vector-store apis")
	flag.StringVar(&config.VectorDB, "vector-db", "", "postgres connection of the vector-store (optional, in memory by default)")
	flag.StringVar(&config.ClientsFile, "clients", "", "yaml file of the clients allowed to get a token: client_id: {secret, subject, org, namespace}")
	flag.StringVar(&config.ClientID, "client-id", "demo", "client id (if -clients is not defined)")
	flag.StringVar(&config.ClientSecret, "client-secret", "demo", "client secret (if -clients is not defined)")
	flag.StringVar(&config.Subject, "subject", "demo-user", "subject of the tokens of client-id")
	flag.StringVar(&config.Org, "org", "", "organization of the tokens of client-id (optional)")
	flag.DurationVar(&config.TokenTTL, "token-ttl", time.Hour, "lifetime of the tokens")
	flag.IntVar(&config.PollsToComplete, "polls-to-complete", 1, "number of status requests before an asynchronous job terminates")
	flag.Parse()

	if config.PollsToComplete < 1 {
		return nil, fmt.Errorf("polls-to-complete must be positive")
	}
	return &config, nil
}

func loadClients(config *config) (map[string]auth.Credentials, error) {
	if config.ClientsFile == "" {
		return map[string]auth.Credentials{
			config.ClientID: {Secret: config.ClientSecret, Subject: config.Subject, Org: config.Org},
		}, nil
	}
	data, err := os.ReadFile(config.ClientsFile)
	if err != nil {
		return nil, fmt.Errorf("loadClients.ReadFile: %w", err)
	}
	clients := map[string]auth.Credentials{}
	if err := yaml.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("loadClients.Unmarshal: %w", err)
	}
	return clients, nil
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
	clients, err := loadClients(config)
	if err != nil {
		return err
	}

	cat := catalogmem.New()
	cat.PollsToComplete = config.PollsToComplete

	var store vector.Service = vectormem.New()
	if config.VectorDB != "" {
		db, err := pg.New(ctx, config.VectorDB)
		if err != nil {
			return fmt.Errorf("pg.New: %w", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("pg.Migrate: %w", err)
		}
		store = db
	}

	router := mux.NewRouter().UseEncodedPath()
	router.Handle("/auth/token", &auth.TokenServer{Clients: clients, TTL: config.TokenTTL}).Methods("POST")
	api := router.PathPrefix(config.APIPrefix).Subrouter()
	api.Use(auth.BearerAuthenticate)
	rest.NewHandler(api, cat)
	vectorrest.NewHandler(api, store)

	headersOk := handlers.AllowedHeaders([]string{"*"})
	originsOk := handlers.AllowedOrigins([]string{"*"})
	methodsOk := handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	srv := http.Server{
		Addr:    ":" + config.Port,
		Handler: handlers.LoggingHandler(os.Stdout, handlers.CORS(originsOk, headersOk, methodsOk)(router)),
	}

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		log.Logger(ctx).Sugar().Infof("emulator listening on %s (token endpoint: /auth/token, api: %s)", srv.Addr, config.APIPrefix)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("ListenAndServe: %w", err)
		}
		return nil
	})
	wg.Go(func() error {
		<-ctx.Done()
		sctx, cncl := context.WithTimeout(context.Background(), 30*time.Second)
		defer cncl()
		return srv.Shutdown(sctx)
	})
	return wg.Wait()
}
