package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/measurements/common"
	"github.com/iulianpascalau/quality-collector/services/measurements/merge"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("api")

type server struct {
	router           *gin.Engine
	httpServer       *http.Server
	storage          Storage
	measurementStore MeasurementStore
	metrics          MetricProvider
	serviceKey       string
	listenAddr       string
	generalHandler   func(http.Handler) http.Handler
	now              func() time.Time
	wg               sync.WaitGroup
}

// ArgsWebServer defines the web server arguments
type ArgsWebServer struct {
	ServiceKeyApi    string
	ListenAddress    string
	Storage          Storage
	MeasurementStore MeasurementStore
	Metrics          MetricProvider
	GeneralHandler   func(http.Handler) http.Handler
}

// NewServer initializes the Gin engine and mounts all routes
func NewServer(args ArgsWebServer) (*server, error) {
	if check.IfNil(args.Storage) {
		return nil, errNilStorage
	}
	if check.IfNil(args.MeasurementStore) {
		return nil, errNilMeasurementStore
	}
	if check.IfNil(args.Metrics) {
		return nil, errNilMetricProvider
	}
	if args.GeneralHandler == nil {
		return nil, errNilHTTPHandler
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())

	s := &server{
		router:           router,
		storage:          args.Storage,
		measurementStore: args.MeasurementStore,
		metrics:          args.Metrics,
		serviceKey:       args.ServiceKeyApi,
		listenAddr:       args.ListenAddress,
		generalHandler:   args.GeneralHandler,
		now:              time.Now,
	}

	s.setupRoutes()
	return s, nil
}

func (s *server) setupRoutes() {
	api := s.router.Group("/api")
	api.Use(s.authAPIKey())
	{
		api.GET("/metrics", s.handleGetMetrics)
		api.POST("/measurements", s.handleIngest)
		api.GET("/measurements/:metric_uuid", s.handleGetMeasurements)
		api.GET("/measurements/:metric_uuid/latest", s.handleGetLatestMeasurement)
		api.POST("/measurements/:metric_uuid/sources/:source_uuid/entities/*key", s.handleSetEntityUserData)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "route not found"})
	})
}

// Start listens and serves connections
func (s *server) Start() {
	handler := s.generalHandler(s.router)

	s.httpServer = &http.Server{
		Addr:    s.listenAddr,
		Handler: handler,
	}

	ln, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		log.Error("failed to listen", "error", err)
		return
	}
	s.listenAddr = ln.Addr().String()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		log.Info("starting HTTP server", "address", s.listenAddr)

		errServe := s.httpServer.Serve(ln)
		if errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.Error("http server failed", "error", errServe)
		}
	}()
}

// Address returns the actual listen address
func (s *server) Address() string {
	return s.listenAddr
}

// Close gracefully stops the server
func (s *server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.wg.Wait()
	return nil
}

// --- Middlewares ---

func (s *server) authAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key != s.serviceKey {
			c.JSON(http.StatusUnauthorized, common.ErrorResponse{Error: "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// --- Handlers ---

func (s *server) handleGetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, common.MetricsResponse{Metrics: s.metrics.AllMetrics()})
}

func (s *server) handleIngest(c *gin.Context) {
	var measurement model.Measurement
	if err := c.ShouldBindJSON(&measurement); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid payload"})
		return
	}
	if len(measurement.MetricUUID) == 0 {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "missing metric uuid"})
		return
	}

	log.Debug("received measurement", "sender", c.GetHeader("X-Collector-Id"), "metric", measurement.MetricUUID,
		"num sources", len(measurement.Sources))

	outcome, err := s.measurementStore.Ingest(c.Request.Context(), measurement)
	if err != nil {
		log.Warn("failed to ingest measurement", "metric", measurement.MetricUUID, "error", err)
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, common.IngestResponse{Outcome: outcome})
}

func (s *server) handleGetMeasurements(c *gin.Context) {
	from, err := parseTimeQuery(c, "from", time.Unix(0, 0))
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid from timestamp"})
		return
	}
	to, err := parseTimeQuery(c, "to", s.now())
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid to timestamp"})
		return
	}

	measurements, err := s.storage.MeasurementsInRange(c.Request.Context(), c.Param("metric_uuid"), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, common.MeasurementsResponse{Measurements: measurements})
}

func parseTimeQuery(c *gin.Context, name string, defaultValue time.Time) (time.Time, error) {
	raw := c.Query(name)
	if len(raw) == 0 {
		return defaultValue, nil
	}

	return time.Parse(time.RFC3339, raw)
}

func (s *server) handleGetLatestMeasurement(c *gin.Context) {
	latest, err := s.storage.FindLatest(c.Request.Context(), c.Param("metric_uuid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: err.Error()})
		return
	}
	if latest == nil {
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: "measurement not found"})
		return
	}

	c.JSON(http.StatusOK, latest)
}

func (s *server) handleSetEntityUserData(c *gin.Context) {
	var request common.EntityUserDataRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: "invalid payload"})
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	data := model.EntityUserData{
		Status:    request.Status,
		Rationale: request.Rationale,
	}

	measurement, err := s.measurementStore.SetEntityUserData(c.Request.Context(), c.Param("metric_uuid"),
		c.Param("source_uuid"), key, data)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, measurement)
	case errors.Is(err, merge.ErrInvalidEntityStatus):
		c.JSON(http.StatusBadRequest, common.ErrorResponse{Error: err.Error()})
	case errors.Is(err, merge.ErrMetricNotFound), errors.Is(err, merge.ErrMeasurementNotFound),
		errors.Is(err, merge.ErrSourceNotFound), errors.Is(err, merge.ErrEntityNotFound):
		c.JSON(http.StatusNotFound, common.ErrorResponse{Error: err.Error()})
	default:
		log.Warn("failed to set entity user data", "metric", c.Param("metric_uuid"), "error", err)
		c.JSON(http.StatusInternalServerError, common.ErrorResponse{Error: err.Error()})
	}
}
