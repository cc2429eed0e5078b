package jwt

import (
	"strings"

	"github.com/gin-gonic/gin"

	"OrgCalendar/internal/modules/user/domain/entity"
	"OrgCalendar/pkg/back"
	"OrgCalendar/pkg/util/myjwt"
	"OrgCalendar/pkg/xerr"
)

const actorKey = "actor"

// Auth 校验 Bearer token, websocket 握手也可以通过 ?token= 传递
func Auth(signer *myjwt.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.Query("token")
		if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
		if tokenString == "" {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		claims, err := signer.ParseToken(tokenString)
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("uuid", claims.Uuid)
		c.Set("username", claims.Username)
		c.Set(actorKey, ActorOf(claims))
		c.Next()
	}
}

func ActorOf(claims *myjwt.CustomClaims) entity.Actor {
	role := claims.Role
	if role == "" {
		role = entity.RoleUser
	}
	return entity.Actor{
		UserID:       claims.Uuid,
		Role:         role,
		Position:     claims.Position,
		Breadth:      claims.ScopeBreadth,
		DepartmentID: claims.DepartmentId,
		OfficeID:     claims.OfficeId,
		DivisionID:   claims.DivisionId,
	}
}

// ActorFrom 取出 Auth 写入的操作者
func ActorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(entity.Actor); ok {
			return a
		}
	}
	return entity.Actor{UserID: c.GetString("uuid"), Role: entity.RoleUser}
}
