// flashctl 是 flashkit 的运维命令行工具。
//
// 用法:
//
//	flashctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config   配置文件路径 (默认: config.yaml)
//	-t, --timeout  命令超时时间 (默认: 30s)
//
// 命令:
//
//	seed-stock     初始化 SKU 库存并清空已购集合
//	warm-cache     从 JSON 文件预热逻辑过期缓存
//	audit          执行一轮准入/落库对账扫描
//
// 退出码:
//
//	0: 命令执行成功（audit: 未发现差异）
//	1: 命令执行失败（audit: 发现差异或扫描出错）
//	2: 参数错误
//
// 示例:
//
//	flashctl seed-stock --sku 100 --stock 500
//	flashctl warm-cache --file products.json --ttl 30m
//	flashctl -c /etc/flashkit/config.yaml audit
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

// defaultTimeout 默认超时时间。
const defaultTimeout = 30 * time.Second

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "flashctl",
		Usage:   "flashkit 运维命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径",
				Value:   "config.yaml",
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "命令超时时间",
				Value:   defaultTimeout,
			},
		},
		Commands:       createCommands(),
		DefaultCommand: "help",
	}
}

func run() int {
	app := createApp()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, os.Args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
