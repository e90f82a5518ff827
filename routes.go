package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func (a *app) router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": a.cfg.StoreBackend, "data_root": a.source.Root()})
	})
	setupRunRoutes(router, a)
	return router
}

func setupRunRoutes(router *gin.Engine, a *app) {
	rg := router.Group("/runs")

	// Letzter Lauf dieses Prozesses, auch ohne Datenbank
	rg.GET("/last", func(c *gin.Context) {
		a.mu.Lock()
		last := a.last
		a.mu.Unlock()
		if last == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no run finished yet"})
			return
		}
		c.JSON(http.StatusOK, last)
	})

	rg.GET("", func(c *gin.Context) {
		if a.ledger == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run ledger not configured"})
			return
		}
		limit := 20
		if s := c.Query("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 200 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
				return
			}
			limit = n
		}
		runs, err := a.ledger.Recent(c.Request.Context(), limit)
		if err != nil {
			a.logger.Error("Database query for runs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, runs)
	})
}
