package envvar

const (
	// StrongholdEnv is the environment variable used to determine the environment
	StrongholdEnv = "STRONGHOLD_ENV"

	// StrongholdModelsPath is the environment variable used to override the models directory
	StrongholdModelsPath = "STRONGHOLD_MODELS_PATH"

	// StrongholdServerHTTPPort is the environment variable used to determine the HTTP port
	StrongholdServerHTTPPort = "STRONGHOLD_SERVER_HTTP_PORT"

	// StrongholdServerGRPCPort is the environment variable used to determine the gRPC port
	StrongholdServerGRPCPort = "STRONGHOLD_SERVER_GRPC_PORT"
)
