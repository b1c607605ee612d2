// Package xconf 提供 flashkit 的配置加载与热更新。
//
// 配置以 YAML 或 JSON 文件描述（格式按扩展名自动识别），加载为
// 强类型的 Config 结构，缺省项用默认值填充。Loader 支持运行期
// Reload，Watch 基于文件系统事件自动重载并通过回调下发新配置。
//
// 基本用法：
//
//	loader, err := xconf.Load("/etc/flashkit/config.yaml")
//	if err != nil { ... }
//	cfg := loader.Config()
//
//	w, err := loader.Watch(func(cfg xconf.Config, err error) {
//	    if err != nil { ... }
//	    // 应用新配置
//	})
//	if err != nil { ... }
//	w.StartAsync()
//	defer w.Stop()
package xconf
