package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"github.com/prometheus/exporter-toolkit/web"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"

	"github.com/openclerk/sheetboard/board"
	"github.com/openclerk/sheetboard/config"
	"github.com/openclerk/sheetboard/gateway"
	"github.com/openclerk/sheetboard/history"
	"github.com/openclerk/sheetboard/prom"
	"github.com/openclerk/sheetboard/server"
	"github.com/openclerk/sheetboard/session"
)

const AppName = "sheetboard"
const AppDesc = "Go-based workboard service that turns uploaded document images into machine-extracted financial line-items, lets the user review and classify them, and commits the reconciled set to a remote spreadsheet store in one write."

var cli struct {
	MetricsPath      string `env:"EXPORTER_METRICS_PATH" help:"${env} - Path under which to expose metrics" default:"/metrics"`
	ListenAddress    string `env:"EXPORTER_LISTEN_ADDRESS" help:"${env} - Address to listen on for web interface and telemetry" default:"9718"`
	ConfigPath       string `env:"CONFIG_PATH" help:"${env} - Path to the durable workboard config file" default:"./config.yml"`
	HistoryDBPath    string `env:"HISTORY_DB_PATH" help:"${env} - Path to the SQLite commit-history database. Empty disables commit history" default:"./sheetboard.db"`
	OAuthClientID    string `env:"OAUTH_CLIENT_ID" help:"${env} - OAuth2 client ID for the delegated-access consent flow"`
	OAuthSecret      string `env:"OAUTH_CLIENT_SECRET" help:"${env} - OAuth2 client secret"`
	OAuthAuthURL     string `env:"OAUTH_AUTH_URL" help:"${env} - OAuth2 authorization endpoint"`
	OAuthTokenURL    string `env:"OAUTH_TOKEN_URL" help:"${env} - OAuth2 token endpoint"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY" help:"${env} - API Key for OpenAI. If none is provided, local classification is disabled"`
	OpenAIModel      string `env:"OPENAI_MODEL" help:"${env} - OpenAI model for local classification" default:"gpt-4o-mini"`
	RequestTimeout   uint16 `env:"REQUEST_TIMEOUT" help:"${env} - Outbound request timeout in seconds" default:"30"`
	EnablePrometheus bool   `env:"ENABLE_PROMETHEUS" help:"${env} - Enable Prometheus metrics" default:"true"`
}

func main() {
	// Variable Setup //
	///////////////////
	_ = godotenv.Load()
	kong.Parse(&cli,
		kong.Name(AppName),
		kong.Description(AppDesc),
	)
	log.Logger = log.Output(os.Stderr).With().Caller().Logger() // Logger

	cfg := config.NewStore(cli.ConfigPath)
	client := &http.Client{Timeout: time.Duration(cli.RequestTimeout) * time.Second}

	// Commit history journal
	var journal *history.Journal
	if cli.HistoryDBPath != "" {
		var err error
		journal, err = history.Open(cli.HistoryDBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Could not open commit-history database")
		}
		defer journal.Close()
	}

	// AI Setup //
	/////////////
	var gwOpts []gateway.Option
	if cli.OpenAIAPIKey != "" {
		gwOpts = append(gwOpts, gateway.WithClassifier(openai.NewClient(cli.OpenAIAPIKey), cli.OpenAIModel))
	}

	// Authorization //
	//////////////////
	// The REST surface normally installs tokens granted by the front end's
	// own consent flow; the OAuth authorizer covers headless deployments.
	var authorizer session.Authorizer
	if cli.OAuthClientID != "" {
		oauthCfg := &oauth2.Config{
			ClientID:     cli.OAuthClientID,
			ClientSecret: cli.OAuthSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cli.OAuthAuthURL,
				TokenURL: cli.OAuthTokenURL,
			},
		}
		authorizer = session.NewOAuthAuthorizer(oauthCfg, promptForCode)
	}
	revoker := session.NewHTTPRevoker(client, cfg.Load().Endpoints.Revoke)

	registry := server.NewRegistry(board.Deps{
		Config:     cfg,
		Authorizer: authorizer,
		Revoker:    revoker,
		Journal:    journal,
		HTTPClient: client,
		GatewayOpt: gwOpts,
	})
	srv := server.New(registry, cfg, journal)

	// Start //
	///////////
	log.Logger.Info().
		Str("version", version.Info()).
		Msg("Starting " + AppName)

	mux := http.NewServeMux()
	mux.Handle("/", srv.Router())

	if cli.EnablePrometheus {
		// Metric Registration
		prometheus.MustRegister(
			versioncollector.NewCollector(AppName),
			prom.APICalls,
			prom.APIErrors,
			prom.AppliedPatches,
			prom.ProgramErrors,
			prom.NewExporter(AppName, registry.Len),
		)
		mux.Handle(cli.MetricsPath, promhttp.Handler())

		landingConfig := web.LandingConfig{
			Name:        AppName,
			Description: AppDesc,
			Version:     version.Print(AppName),
			Links: []web.LandingLinks{
				{
					Address: cli.MetricsPath,
					Text:    "Metrics",
				},
				{
					Address: "/health",
					Text:    "Health",
				},
			},
		}
		landingPage, err := web.NewLandingPage(landingConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("")
		}
		mux.Handle("/about", landingPage)
	}

	log.Info().Msgf("Starting HTTP server on listen address :%s and metric path %s", cli.ListenAddress, cli.MetricsPath)

	httpServer := &http.Server{
		Addr:         ":" + cli.ListenAddress,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create a channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	// Listen and serve
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Error starting HTTP server")
		}
	}()

	// Handle shutdown
	<-sigChan
	log.Info().Msg("Shutdown Signal Received")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	log.Info().Msg("Shutting down HTTP server...")
	_ = httpServer.Shutdown(ctx)
	log.Info().Msg("Shutdown Complete; Exiting...")
}

// promptForCode prints the consent URL and reads the granted authorization
// code from stdin. Only reachable in headless deployments where the service
// itself runs the consent flow; an empty line cancels.
func promptForCode(ctx context.Context, authURL string) (string, error) {
	log.Info().Msgf("Visit the following URL to authorize this session:\n%s", authURL)
	codeCh := make(chan string, 1)
	go func() {
		fmt.Fprint(os.Stderr, "Authorization code: ")
		var code string
		_, _ = fmt.Fscanln(os.Stdin, &code)
		codeCh <- code
	}()
	select {
	case <-ctx.Done():
		return "", session.ErrAuthorizationCanceled
	case code := <-codeCh:
		if code == "" {
			return "", session.ErrAuthorizationCanceled
		}
		return code, nil
	}
}
