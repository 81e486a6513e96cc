package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/worldbridge/internal/protocol"
)

func (s *Server) root(c *gin.Context) {
	endpoints := []string{"/health", "/capabilities", "/document", "/metrics"}
	if s.relay != nil {
		endpoints = append(endpoints, "/bridge")
	}
	c.JSON(http.StatusOK, gin.H{
		"service":         "worldbridge",
		"protocolVersion": protocol.ProtocolVersion,
		"endpoints":       endpoints,
	})
}

func (s *Server) health(c *gin.Context) {
	relay := gin.H{"enabled": s.relay != nil}
	if s.relay != nil {
		relay["connections"] = s.relay.connections()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"page":    gin.H{"window": s.window.ID(), "origin": s.window.Origin()},
		"relay":   relay,
		"metrics": s.metrics.Snapshot(),
	})
}

func (s *Server) capabilities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"protocolVersion": protocol.ProtocolVersion,
		"methods":         s.catalog.Methods(),
		"capabilities":    s.catalog.Capabilities(),
	})
}

// document renders the live page, including injected styles
func (s *Server) document(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(s.window.Document().Render()))
}
