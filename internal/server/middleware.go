package server

import (
	"strings"

	"github.com/brightfold/portal/internal/actor"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// ActorRequired resolves the caller identity from the trusted gateway
// headers and stores it on the request context. The portal sits behind an
// authenticating proxy; a request without identity headers never made it
// through it legitimately.
func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader("X-Actor-Id"))
		role, ok := actor.ParseRole(strings.TrimSpace(c.GetHeader("X-Actor-Role")))
		if id == "" || !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		act := actor.Actor{ID: id, Role: role}
		if act.IsClient() {
			clientID, err := snowflake.ParseString(strings.TrimSpace(c.GetHeader("X-Actor-Client-Id")))
			if err != nil {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			act.ClientID = clientID
		}

		c.Request = c.Request.WithContext(actor.WithContext(c.Request.Context(), act))
		c.Next()
	}
}

// StaffRequired restricts a route to company-side roles.
func (s *Server) StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		act, ok := actor.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if !act.IsCompany() {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

// AdminRequired restricts a route to company admins.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		act, ok := actor.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if act.Role != actor.RoleCompanyAdmin {
			AbortWithError(c, ErrForbidden)
			return
		}
		c.Next()
	}
}

func currentActor(c *gin.Context) actor.Actor {
	act, _ := actor.FromContext(c.Request.Context())
	return act
}
