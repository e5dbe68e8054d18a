package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAdminDisabled 未配置管理员密码时，置顶/删除等操作一律拒绝
	ErrAdminDisabled = errors.New("admin actions are disabled")
	// ErrAdminPasswordRequired 请求未携带管理员密码
	ErrAdminPasswordRequired = errors.New("admin password is required")
	// ErrAdminPasswordInvalid 管理员密码不匹配
	ErrAdminPasswordInvalid = errors.New("admin password is invalid")
)

// AdminGate 以共享密码保护置顶、删除等管理操作。
// 这不是用户认证：持有密码的任何人都可以操作任意内容。
type AdminGate struct {
	hash string
}

// NewAdminGate 接受 SHA-256 十六进制摘要或 bcrypt 哈希。
func NewAdminGate(hash string) *AdminGate {
	return &AdminGate{hash: strings.TrimSpace(hash)}
}

// Enabled 报告是否配置了管理员密码。
func (g *AdminGate) Enabled() bool {
	return g != nil && g.hash != ""
}

// Verify 校验管理员密码。
func (g *AdminGate) Verify(password string) error {
	if !g.Enabled() {
		return ErrAdminDisabled
	}
	if password == "" {
		return ErrAdminPasswordRequired
	}

	if isBcryptHash(g.hash) {
		if err := bcrypt.CompareHashAndPassword([]byte(g.hash), []byte(password)); err != nil {
			return ErrAdminPasswordInvalid
		}
		return nil
	}

	sum := sha256.Sum256([]byte(password))
	expected := strings.ToLower(g.hash)
	if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(expected)) != 1 {
		return ErrAdminPasswordInvalid
	}
	return nil
}

// HashAdminPassword 生成 bcrypt 哈希，供配置 ADMIN_PASSWORD_HASH 使用。
func HashAdminPassword(password string) (string, error) {
	if password == "" {
		return "", ErrAdminPasswordRequired
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
