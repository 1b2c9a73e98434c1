package user

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	userdb "github.com/nao1215/apiscan/internal/user/db"
	"github.com/nao1215/apiscan/pkg/middleware"
)

// loadUser はIDでユーザーを取得する。
// 取得できない場合はレスポンスを書き込んで false を返す。
func (s *Server) loadUser(c *gin.Context, userID string) (userdb.User, bool) {
	u, err := s.queries.GetUserByID(c.Request.Context(), userID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ユーザーが見つかりません"})
		return userdb.User{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ユーザーの取得に失敗しました"})
		s.logger.Error().Err(err).Msg("ユーザー取得エラー")
		return userdb.User{}, false
	}
	return u, true
}

// handleGetUser はユーザー取得を処理するハンドラを返す。
// 本人とADMINのみ取得できる。
func (s *Server) handleGetUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}
		if c.Param("id") != userID && middleware.GetRole(c) != RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "他のユーザーの情報は取得できません"})
			return
		}

		u, ok := s.loadUser(c, c.Param("id"))
		if !ok {
			return
		}
		c.JSON(http.StatusOK, toUserResponse(u))
	}
}

// updateUserRequest はプロフィール更新リクエストのJSON構造。
// 指定されなかった項目は変更しない。
type updateUserRequest struct {
	Name    *string `json:"name"`
	Company *string `json:"company"`
	Avatar  *string `json:"avatar"`
}

// handleUpdateUser はプロフィール更新を処理するハンドラを返す。
// 本人以外は更新できない。
func (s *Server) handleUpdateUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := middleware.GetUserID(c)
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "ユーザーIDが取得できません"})
			return
		}
		if c.Param("id") != userID {
			c.JSON(http.StatusForbidden, gin.H{"error": "他のユーザーのプロフィールは更新できません"})
			return
		}

		var req updateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("リクエストが不正です: %v", err)})
			return
		}
		if req.Name != nil && *req.Name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "名前は空にできません"})
			return
		}

		u, ok := s.loadUser(c, userID)
		if !ok {
			return
		}
		params := userdb.UpdateUserProfileParams{
			Name:      u.Name,
			Company:   u.Company,
			Phone:     u.Phone,
			Avatar:    u.Avatar,
			UpdatedAt: s.now(),
			ID:        u.ID,
		}
		if req.Name != nil {
			params.Name = *req.Name
		}
		if req.Company != nil {
			params.Company = *req.Company
		}
		if req.Avatar != nil {
			params.Avatar = *req.Avatar
		}

		if err := s.queries.UpdateUserProfile(c.Request.Context(), params); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "プロフィールの更新に失敗しました"})
			s.logger.Error().Err(err).Msg("プロフィール更新エラー")
			return
		}

		updated, ok := s.loadUser(c, userID)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, toUserResponse(updated))
	}
}
