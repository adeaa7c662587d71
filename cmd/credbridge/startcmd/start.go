/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/mux"
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/hyperledger/aries-framework-go/component/storage/leveldb"
	"github.com/hyperledger/aries-framework-go/component/storageutil/mem"
	"github.com/hyperledger/aries-framework-go/spi/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/credbridge/credbridge/pkg/agent/local"
	"github.com/credbridge/credbridge/pkg/config/credtypes"
	"github.com/credbridge/credbridge/pkg/controller"
	rpcserver "github.com/credbridge/credbridge/pkg/rpc/server"
	"github.com/credbridge/credbridge/pkg/store/claimdata"
)

const (
	// api host flag.
	hostFlagName      = "api-host"
	hostEnvKey        = "CREDBRIDGE_API_HOST"
	hostFlagShorthand = "a"
	hostFlagUsage     = "Host Name:Port." +
		" Alternatively, this can be set with the following environment variable: " + hostEnvKey

	// websocket path flag.
	wsPathFlagName  = "ws-path"
	wsPathEnvKey    = "CREDBRIDGE_WS_PATH"
	wsPathFlagUsage = "Path of the websocket RPC endpoint. Defaults to " + wsPathDefault + " if not set." +
		" Alternatively, this can be set with the following environment variable: " + wsPathEnvKey
	wsPathDefault = "/ws"

	// metrics path flag.
	metricsPathFlagName  = "metrics-path"
	metricsPathEnvKey    = "CREDBRIDGE_METRICS_PATH"
	metricsPathFlagUsage = "Path prometheus metrics are served on. Defaults to " + metricsPathDefault + " if not set." +
		" Alternatively, this can be set with the following environment variable: " + metricsPathEnvKey
	metricsPathDefault = "/metrics"

	tlsCertFileFlagName      = "tls-cert-file"
	tlsCertFileEnvKey        = "TLS_CERT_FILE"
	tlsCertFileFlagShorthand = "c"
	tlsCertFileFlagUsage     = "tls certificate file." +
		" Alternatively, this can be set with the following environment variable: " + tlsCertFileEnvKey

	tlsKeyFileFlagName      = "tls-key-file"
	tlsKeyFileEnvKey        = "TLS_KEY_FILE"
	tlsKeyFileFlagShorthand = "k"
	tlsKeyFileFlagUsage     = "tls key file." +
		" Alternatively, this can be set with the following environment variable: " + tlsKeyFileEnvKey

	// log level.
	logLevelFlagName  = "log-level"
	logLevelEnvKey    = "CREDBRIDGE_LOG_LEVEL"
	logLevelFlagUsage = "Log level." +
		" Possible values [INFO] [DEBUG] [ERROR] [WARNING] [CRITICAL] . Defaults to INFO if not set." +
		" Alternatively, this can be set with the following environment variable: " + logLevelEnvKey

	databaseTypeFlagName      = "database-type"
	databaseTypeEnvKey        = "CREDBRIDGE_DATABASE_TYPE"
	databaseTypeFlagShorthand = "q"
	databaseTypeFlagUsage     = "The type of database interactions are kept in. " +
		"Supported options: mem, leveldb. " +
		" Alternatively, this can be set with the following environment variable: " + databaseTypeEnvKey

	databasePathFlagName      = "database-path"
	databasePathEnvKey        = "CREDBRIDGE_DATABASE_PATH"
	databasePathFlagShorthand = "v"
	databasePathFlagUsage     = "Directory of the leveldb database. Not needed if using memstore." +
		" Alternatively, this can be set with the following environment variable: " + databasePathEnvKey

	databaseTimeoutFlagName  = "database-timeout"
	databaseTimeoutFlagUsage = "Total time in seconds to wait until the db is available before giving up." +
		" Default: " + databaseTimeoutDefault + " seconds." +
		" Alternatively, this can be set with the following environment variable: " + databaseTimeoutEnvKey
	databaseTimeoutEnvKey  = "CREDBRIDGE_DATABASE_TIMEOUT"
	databaseTimeoutDefault = "30"

	agentSeedFlagName  = "agent-seed"
	agentSeedEnvKey    = "CREDBRIDGE_AGENT_SEED" // nolint:gosec
	agentSeedFlagUsage = "Hex encoded 32 byte seed of the agent key. A random key is used if not set." +
		" Alternatively, this can be set with the following environment variable: " + agentSeedEnvKey

	credentialTypesFlagName  = "credential-types-file"
	credentialTypesEnvKey    = "CREDBRIDGE_CREDENTIAL_TYPES_FILE"
	credentialTypesFlagUsage = "YAML file with additional credential type metadata." +
		" Alternatively, this can be set with the following environment variable: " + credentialTypesEnvKey

	rateLimitFlagName  = "rate-limit"
	rateLimitEnvKey    = "CREDBRIDGE_RATE_LIMIT"
	rateLimitFlagUsage = "Requests per second allowed on each connection. Unlimited if not set." +
		" Alternatively, this can be set with the following environment variable: " + rateLimitEnvKey

	rateBurstFlagName  = "rate-limit-burst"
	rateBurstEnvKey    = "CREDBRIDGE_RATE_LIMIT_BURST"
	rateBurstFlagUsage = "Burst of requests allowed on top of the rate limit. Defaults to 1 if not set." +
		" Alternatively, this can be set with the following environment variable: " + rateBurstEnvKey

	claimDataTTLFlagName  = "claim-data-ttl"
	claimDataTTLEnvKey    = "CREDBRIDGE_CLAIM_DATA_TTL"
	claimDataTTLFlagUsage = "How long the claim data of an unanswered offer is kept, e.g. 12h." +
		" Defaults to 24h if not set." +
		" Alternatively, this can be set with the following environment variable: " + claimDataTTLEnvKey

	allowedOriginsFlagName  = "allowed-origins"
	allowedOriginsEnvKey    = "CREDBRIDGE_ALLOWED_ORIGINS"
	allowedOriginsFlagUsage = "Origin patterns allowed to open the websocket. Any origin is allowed if not set." +
		" This flag can be repeated." +
		" Alternatively, this can be set with the following environment variable (in CSV format): " +
		allowedOriginsEnvKey

	healthCheckPath = "/healthcheck"

	databaseTypeMemOption     = "mem"
	databaseTypeLevelDBOption = "leveldb"
)

var (
	errMissingHost         = errors.New("host not provided")
	errMissingDatabasePath = errors.New("leveldb requires a database path")
	logger                 = log.New("credbridge/start")
)

type bridgeParameters struct {
	server                  server
	host                    string
	wsPath, metricsPath     string
	tlsCertFile, tlsKeyFile string
	agentSeed               []byte
	credentialTypesFile     string
	rateLimit               float64
	rateBurst               int
	claimDataTTL            time.Duration
	allowedOrigins          []string
	dbParam                 *dbParam
}

type dbParam struct {
	dbType  string
	path    string
	timeout uint64
}

// nolint:gochecknoglobals
var supportedStorageProviders = map[string]func(path string) (storage.Provider, error){
	databaseTypeMemOption: func(_ string) (storage.Provider, error) { // nolint:unparam
		return mem.NewProvider(), nil
	},
	databaseTypeLevelDBOption: func(path string) (storage.Provider, error) { // nolint:unparam
		return leveldb.NewProvider(path), nil
	},
}

type server interface {
	ListenAndServe(host string, router http.Handler, certFile, keyFile string) error
}

// HTTPServer represents an actual server implementation.
type HTTPServer struct{}

// ListenAndServe starts the server using the standard Go HTTP server implementation.
func (s *HTTPServer) ListenAndServe(host string, router http.Handler, certFile, keyFile string) error {
	if certFile != "" && keyFile != "" {
		return http.ListenAndServeTLS(host, certFile, keyFile, router)
	}

	return http.ListenAndServe(host, router)
}

// Cmd returns the Cobra start command.
func Cmd(server server) (*cobra.Command, error) {
	startCmd := createStartCMD(server)

	createFlags(startCmd)

	return startCmd, nil
}

func createStartCMD(server server) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a bridge",
		Long:  `Start a credential bridge serving interaction RPC over websocket`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parameters, err := getBridgeParameters(cmd)
			if err != nil {
				return err
			}

			parameters.server = server

			return startBridge(parameters)
		},
	}
}

func getBridgeParameters(cmd *cobra.Command) (*bridgeParameters, error) { //nolint:funlen,gocyclo
	logLevel, err := getUserSetVar(cmd, logLevelFlagName, logLevelEnvKey, true)
	if err != nil {
		return nil, err
	}

	if err = setLogLevel(logLevel); err != nil {
		return nil, err
	}

	host, err := getUserSetVar(cmd, hostFlagName, hostEnvKey, false)
	if err != nil {
		return nil, err
	}

	wsPath, err := getUserSetVarWithDefault(cmd, wsPathFlagName, wsPathEnvKey, wsPathDefault)
	if err != nil {
		return nil, err
	}

	metricsPath, err := getUserSetVarWithDefault(cmd, metricsPathFlagName, metricsPathEnvKey, metricsPathDefault)
	if err != nil {
		return nil, err
	}

	tlsCertFile, err := getUserSetVar(cmd, tlsCertFileFlagName, tlsCertFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	tlsKeyFile, err := getUserSetVar(cmd, tlsKeyFileFlagName, tlsKeyFileEnvKey, true)
	if err != nil {
		return nil, err
	}

	dbParam, err := getDBParam(cmd)
	if err != nil {
		return nil, err
	}

	seed, err := getAgentSeed(cmd)
	if err != nil {
		return nil, err
	}

	credentialTypesFile, err := getUserSetVar(cmd, credentialTypesFlagName, credentialTypesEnvKey, true)
	if err != nil {
		return nil, err
	}

	rateLimit, rateBurst, err := getRateLimit(cmd)
	if err != nil {
		return nil, err
	}

	claimDataTTL, err := getClaimDataTTL(cmd)
	if err != nil {
		return nil, err
	}

	allowedOrigins, err := getUserSetVars(cmd, allowedOriginsFlagName, allowedOriginsEnvKey, true)
	if err != nil {
		return nil, err
	}

	return &bridgeParameters{
		host:                host,
		wsPath:              wsPath,
		metricsPath:         metricsPath,
		tlsCertFile:         tlsCertFile,
		tlsKeyFile:          tlsKeyFile,
		agentSeed:           seed,
		credentialTypesFile: credentialTypesFile,
		rateLimit:           rateLimit,
		rateBurst:           rateBurst,
		claimDataTTL:        claimDataTTL,
		allowedOrigins:      allowedOrigins,
		dbParam:             dbParam,
	}, nil
}

func getDBParam(cmd *cobra.Command) (*dbParam, error) {
	dbParam := &dbParam{}

	var err error

	dbParam.dbType, err = getUserSetVar(cmd, databaseTypeFlagName, databaseTypeEnvKey, false)
	if err != nil {
		return nil, err
	}

	dbParam.path, err = getUserSetVar(cmd, databasePathFlagName, databasePathEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbParam.dbType == databaseTypeLevelDBOption && dbParam.path == "" {
		return nil, errMissingDatabasePath
	}

	dbTimeout, err := getUserSetVar(cmd, databaseTimeoutFlagName, databaseTimeoutEnvKey, true)
	if err != nil {
		return nil, err
	}

	if dbTimeout == "" || dbTimeout == "0" {
		dbTimeout = databaseTimeoutDefault
	}

	t, err := strconv.Atoi(dbTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db timeout %s: %w", dbTimeout, err)
	}

	dbParam.timeout = uint64(t)

	return dbParam, nil
}

func getAgentSeed(cmd *cobra.Command) ([]byte, error) {
	v, err := getUserSetVar(cmd, agentSeedFlagName, agentSeedEnvKey, true)
	if err != nil {
		return nil, err
	}

	if v == "" {
		return nil, nil
	}

	seed, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("failed to decode agent seed: %w", err)
	}

	return seed, nil
}

func getRateLimit(cmd *cobra.Command) (float64, int, error) {
	rate, err := getUserSetVar(cmd, rateLimitFlagName, rateLimitEnvKey, true)
	if err != nil {
		return 0, 0, err
	}

	burst, err := getUserSetVar(cmd, rateBurstFlagName, rateBurstEnvKey, true)
	if err != nil {
		return 0, 0, err
	}

	var (
		rps float64
		b   int
	)

	if rate != "" {
		rps, err = strconv.ParseFloat(rate, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse rate limit %s: %w", rate, err)
		}
	}

	if burst != "" {
		b, err = strconv.Atoi(burst)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to parse rate limit burst %s: %w", burst, err)
		}
	}

	return rps, b, nil
}

func getClaimDataTTL(cmd *cobra.Command) (time.Duration, error) {
	v, err := getUserSetVar(cmd, claimDataTTLFlagName, claimDataTTLEnvKey, true)
	if err != nil {
		return 0, err
	}

	if v == "" {
		return claimdata.DefaultTTL, nil
	}

	ttl, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("failed to parse claim data ttl %s: %w", v, err)
	}

	return ttl, nil
}

func createFlags(startCmd *cobra.Command) {
	startCmd.Flags().StringP(hostFlagName, hostFlagShorthand, "", hostFlagUsage)
	startCmd.Flags().StringP(wsPathFlagName, "", "", wsPathFlagUsage)
	startCmd.Flags().StringP(metricsPathFlagName, "", "", metricsPathFlagUsage)
	startCmd.Flags().StringP(tlsCertFileFlagName, tlsCertFileFlagShorthand, "", tlsCertFileFlagUsage)
	startCmd.Flags().StringP(tlsKeyFileFlagName, tlsKeyFileFlagShorthand, "", tlsKeyFileFlagUsage)
	startCmd.Flags().StringP(logLevelFlagName, "", "", logLevelFlagUsage)
	startCmd.Flags().StringP(databaseTypeFlagName, databaseTypeFlagShorthand, "", databaseTypeFlagUsage)
	startCmd.Flags().StringP(databasePathFlagName, databasePathFlagShorthand, "", databasePathFlagUsage)
	startCmd.Flags().StringP(databaseTimeoutFlagName, "", "", databaseTimeoutFlagUsage)
	startCmd.Flags().StringP(agentSeedFlagName, "", "", agentSeedFlagUsage)
	startCmd.Flags().StringP(credentialTypesFlagName, "", "", credentialTypesFlagUsage)
	startCmd.Flags().StringP(rateLimitFlagName, "", "", rateLimitFlagUsage)
	startCmd.Flags().StringP(rateBurstFlagName, "", "", rateBurstFlagUsage)
	startCmd.Flags().StringP(claimDataTTLFlagName, "", "", claimDataTTLFlagUsage)
	startCmd.Flags().StringSliceP(allowedOriginsFlagName, "", []string{}, allowedOriginsFlagUsage)
}

func getUserSetVar(cmd *cobra.Command, flagName, envKey string, isOptional bool) (string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetString(flagName)
		if err != nil {
			return "", fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	if isOptional || isSet {
		return value, nil
	}

	return "", errors.New("Neither " + flagName + " (command line flag) nor " + envKey +
		" (environment variable) have been set.")
}

func getUserSetVarWithDefault(cmd *cobra.Command, flagName, envKey, defaultValue string) (string, error) {
	value, err := getUserSetVar(cmd, flagName, envKey, true)
	if err != nil {
		return "", err
	}

	if value == "" {
		return defaultValue, nil
	}

	return value, nil
}

func getUserSetVars(cmd *cobra.Command, flagName, envKey string, isOptional bool) ([]string, error) {
	if cmd.Flags().Changed(flagName) {
		value, err := cmd.Flags().GetStringSlice(flagName)
		if err != nil {
			return nil, fmt.Errorf(flagName+" flag not found: %s", err)
		}

		return value, nil
	}

	value, isSet := os.LookupEnv(envKey)

	var values []string

	if isSet {
		values = strings.Split(value, ",")
	}

	if isOptional || isSet {
		return values, nil
	}

	return nil, fmt.Errorf(" %s not set. "+
		"It must be set via either command line or environment variable", flagName)
}

func setLogLevel(logLevel string) error {
	if logLevel != "" {
		level, err := log.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("failed to parse log level '%s' : %w", logLevel, err)
		}

		log.SetLevel("", level)

		logger.Infof("logger level set to %s", logLevel)
	}

	return nil
}

func startBridge(parameters *bridgeParameters) error {
	if parameters.host == "" {
		return errMissingHost
	}

	handler, err := createRouter(parameters)
	if err != nil {
		return fmt.Errorf("failed to start credbridge on port [%s] : %w", parameters.host, err)
	}

	logger.Infof("Starting credbridge on host [%s], rpc endpoint [%s]", parameters.host, parameters.wsPath)

	err = parameters.server.ListenAndServe(parameters.host, handler, parameters.tlsCertFile, parameters.tlsKeyFile)
	if err != nil {
		return fmt.Errorf("failed to start credbridge on port [%s], cause:  %w", parameters.host, err)
	}

	return nil
}

// createRouter wires the agent, the interaction command and the RPC server behind the HTTP routes.
func createRouter(parameters *bridgeParameters) (http.Handler, error) {
	provider, err := createStoreProvider(parameters.dbParam)
	if err != nil {
		return nil, err
	}

	agentOpts := []local.Option{local.WithStorageProvider(provider)}
	if parameters.agentSeed != nil {
		agentOpts = append(agentOpts, local.WithSeed(parameters.agentSeed))
	}

	a, err := local.New(agentOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent : %w", err)
	}

	registry := credtypes.Default()

	if parameters.credentialTypesFile != "" {
		if err = registry.LoadFile(parameters.credentialTypesFile); err != nil {
			return nil, err
		}
	}

	claims := claimdata.New(claimdata.WithTTL(parameters.claimDataTTL))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handlers, err := controller.GetCommandHandlers(a,
		controller.WithCredentialTypes(registry),
		controller.WithClaimStore(claims),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get command handlers : %w", err)
	}

	rpc, err := rpcserver.New(handlers,
		rpcserver.WithRegisterer(reg),
		rpcserver.WithRateLimit(parameters.rateLimit, parameters.rateBurst),
		rpcserver.WithOriginPatterns(parameters.allowedOrigins...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rpc server : %w", err)
	}

	logger.Infof("agent DID [%s], credential types %v, methods %v", a.DID(), registry.Types(), rpc.Methods())

	router := mux.NewRouter()
	router.Handle(parameters.wsPath, rpc)
	router.Handle(parameters.metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	router.HandleFunc(healthCheckPath, healthCheckHandler).Methods(http.MethodGet)

	return cors.New(
		cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
			AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
		},
	).Handler(router), nil
}

type healthCheckResp struct {
	Status      string    `json:"status"`
	CurrentTime time.Time `json:"currentTime"`
}

func healthCheckHandler(rw http.ResponseWriter, _ *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusOK)

	err := json.NewEncoder(rw).Encode(&healthCheckResp{
		Status:      "success",
		CurrentTime: time.Now(),
	})
	if err != nil {
		logger.Errorf("healthcheck response failure, %s", err)
	}
}

func createStoreProvider(param *dbParam) (storage.Provider, error) {
	provider, supported := supportedStorageProviders[param.dbType]
	if !supported {
		return nil, fmt.Errorf("database type not set to a valid type." +
			" run start --help to see the available options")
	}

	var store storage.Provider

	err := backoff.RetryNotify(
		func() error {
			var openErr error
			store, openErr = provider(param.path)
			return openErr
		},
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), param.timeout),
		func(retryErr error, t time.Duration) {
			logger.Warnf(
				"failed to connect to storage, will sleep for %s before trying again : %s\n",
				t, retryErr)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to storage at %s : %w", param.path, err)
	}

	return store, nil
}
