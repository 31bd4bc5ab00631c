package rest

const (
	// api
	RouteApiV1 = "/api/v1"

	// files
	RouteFiles        = RouteApiV1 + "/files"
	RouteFile         = RouteFiles + "/:file_id"
	RouteFileDownload = RouteFile + "/download"
	RouteFileTypes    = RouteFiles + "/file_types"
	RouteStorageStats = RouteFiles + "/storage_stats"

	// ops
	RouteHealth  = RouteApiV1 + "/healthz"
	RouteMetrics = RouteApiV1 + "/metrics"
)
