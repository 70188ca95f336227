package service

import "github.com/golang-jwt/jwt/v5"

// 令牌由外部认证服务签发，这里只定义解析所需的声明结构。

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTClaims 管理员 JWT 声明
type JWTClaims struct {
	AdminID  uint   `json:"admin_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
