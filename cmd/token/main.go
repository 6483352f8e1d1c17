package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/groupvial/internal/config"
	"github.com/groupvial/internal/constants"
	"github.com/groupvial/internal/logger"
	"github.com/groupvial/internal/models"
	"github.com/groupvial/internal/repository"
	"github.com/groupvial/internal/service"
)

// 本地开发用：签发 HS256 令牌，可选同步用户并设置角色
func main() {
	var (
		subject string
		email   string
		name    string
		role    string
		hours   int
	)
	flag.StringVar(&subject, "sub", "", "令牌主体 (必填)")
	flag.StringVar(&email, "email", "", "邮箱")
	flag.StringVar(&name, "name", "", "显示名称")
	flag.StringVar(&role, "role", "", "写入数据库的角色: customer / host / admin，留空则不修改")
	flag.IntVar(&hours, "hours", 0, "有效期（小时），默认读取配置")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	if cfg.Auth.Mode != constants.AuthModeLocal {
		stdLog.Fatalf("auth.mode=%s，本地令牌仅在 local 模式下可用", cfg.Auth.Mode)
	}
	if strings.TrimSpace(subject) == "" {
		stdLog.Fatalf("-sub 不能为空")
	}

	authService, err := service.NewAuthService(cfg.Auth)
	if err != nil {
		stdLog.Fatalf("初始化认证失败: %v", err)
	}
	identity := service.Identity{Subject: subject, Email: email, Name: name}

	if role != "" {
		if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{}, false); err != nil {
			stdLog.Fatalf("数据库初始化失败: %v", err)
		}
		if err := models.AutoMigrate(); err != nil {
			stdLog.Fatalf("数据库迁移失败: %v", err)
		}
		if err := assignRole(repository.NewUserRepository(models.DB), cfg.Auth.BootstrapAdmins, identity, role); err != nil {
			stdLog.Fatalf("设置角色失败: %v", err)
		}
	}

	token, expiresAt, err := authService.GenerateLocalToken(identity, hours)
	if err != nil {
		stdLog.Fatalf("签发令牌失败: %v", err)
	}
	logger.Infow("token_issued", "subject", subject, "role", role, "expires_at", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func assignRole(users repository.UserRepository, bootstrapAdmins []string, identity service.Identity, role string) error {
	userService := service.NewUserService(users, bootstrapAdmins)
	user, err := userService.EnsureFromIdentity(context.Background(), identity)
	if err != nil {
		return err
	}
	system := service.Actor{Role: constants.RoleAdmin}
	_, err = userService.SetRole(system, user.ID, role)
	return err
}
