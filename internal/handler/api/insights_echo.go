package api

import (
    "encoding/json"
    "time"

    models "VitaPull/internal/domain/models"
    svccache "VitaPull/internal/service/cache"
    svcmetrics "VitaPull/internal/service/metrics"
    "VitaPull/internal/usecase"
    pkgcache "VitaPull/pkg/cache"
    xhttp "VitaPull/pkg/http"
    xlogger "VitaPull/pkg/logger"
    "VitaPull/pkg/util"

    "github.com/labstack/echo/v4"
)

// InsightsEchoHandler implements Echo-based HTTP handlers following Clean Architecture.
type InsightsEchoHandler struct {
	logger   *xlogger.Logger
	pipeline *usecase.InsightPipeline
	records  *usecase.RecordsUseCase
	cache    svccache.BytesCache
	cacheTTL time.Duration
}

func NewInsightsEchoHandler(
	logger *xlogger.Logger,
	pipeline *usecase.InsightPipeline,
	records *usecase.RecordsUseCase,
	cache svccache.BytesCache,
) *InsightsEchoHandler {
	svcmetrics.Register()
	return &InsightsEchoHandler{
		logger:   logger,
		pipeline: pipeline,
		records:  records,
		cache:    cache,
		cacheTTL: 5 * time.Minute,
	}
}

func (h *InsightsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/insights", h.Insights)
	g.GET("/baselines", h.Baselines)
	g.GET("/anomalies", h.Anomalies)
	g.GET("/forecast", h.Forecast)
	g.GET("/records", h.Records)
}

// report runs the pipeline, consulting the byte cache first. Refresh skips
// the cache read but still refills it.
func (h *InsightsEchoHandler) report(c echo.Context, days int, target string, sigma float64, refresh bool) (*models.InsightReport, error) {
	key := pkgcache.GenerateKeyWithParams("insights", days, target, sigma)
	if !refresh && h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err == nil && ok {
			var cached models.InsightReport
			if json.Unmarshal(b, &cached) == nil {
				return &cached, nil
			}
		}
	}

	report, err := h.pipeline.BuildReport(c.Request().Context(), usecase.BuildReportParams{
		Days:   days,
		Target: target,
		Sigma:  sigma,
	})
	if err != nil {
		// the only fatal pipeline error is failing to load the history
		return nil, xhttp.UnavailableError("insight history unavailable").WithError(err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(report); err == nil {
			_ = h.cache.SetBytes(key, b, h.cacheTTL)
		}
	}
	return report, nil
}

func (h *InsightsEchoHandler) Insights(c echo.Context) error {
	start := time.Now()
	req := &models.InsightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.report(c, req.Days, req.Target, 0, req.Refresh)
	if err != nil {
		svcmetrics.AnalyticsErrors.WithLabelValues("insights").Inc()
		h.logger.Error("insights usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	svcmetrics.AnalyticsLatency.WithLabelValues("insights").Observe(time.Since(start).Seconds())
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *InsightsEchoHandler) Baselines(c echo.Context) error {
	start := time.Now()
	req := &models.BaselinesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.report(c, req.Days, "", 0, false)
	if err != nil {
		svcmetrics.AnalyticsErrors.WithLabelValues("baselines").Inc()
		h.logger.Error("baselines usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	svcmetrics.AnalyticsLatency.WithLabelValues("baselines").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, echo.Map{
		"days":      res.Days,
		"baselines": res.Baselines,
		"skipped":   res.Skipped,
	})
}

func (h *InsightsEchoHandler) Anomalies(c echo.Context) error {
	start := time.Now()
	req := &models.AnomaliesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.report(c, req.Days, "", req.Sigma, false)
	if err != nil {
		svcmetrics.AnalyticsErrors.WithLabelValues("anomalies").Inc()
		h.logger.Error("anomalies usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	flags := res.Anomalies
	if req.Metric != "" {
		filtered := flags[:0:0]
		for _, f := range flags {
			if f.Metric == req.Metric {
				filtered = append(filtered, f)
			}
		}
		flags = filtered
	}
	svcmetrics.AnalyticsLatency.WithLabelValues("anomalies").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, echo.Map{
		"days":      res.Days,
		"anomalies": flags,
		"skipped":   res.Skipped,
	})
}

func (h *InsightsEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.report(c, req.Days, req.Target, 0, false)
	if err != nil {
		svcmetrics.AnalyticsErrors.WithLabelValues("forecast").Inc()
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	svcmetrics.AnalyticsLatency.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, echo.Map{
		"days":     res.Days,
		"forecast": res.Forecast,
		"skipped":  res.Skipped,
	})
}

func (h *InsightsEchoHandler) Records(c echo.Context) error {
	req := &models.RecordsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.records.GetRecords(c.Request().Context(), usecase.GetRecordsParams{
		From:  util.ParseTimeDefault(req.From, time.Time{}),
		To:    util.ParseTimeDefault(req.To, time.Time{}),
		Limit: req.Limit,
	})
	if err != nil {
		h.logger.Error("records usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}
