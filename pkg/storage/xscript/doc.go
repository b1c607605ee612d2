// Package xscript 提供预注册的 Redis 原子脚本执行能力。
//
// # 设计理念
//
// 多步读取/比较/写入操作必须在共享存储侧作为一个不可分割的整体执行，
// 应用侧的"先读后写"天然存在竞态。xscript 将这类操作收敛为预注册的
// Lua 脚本，通过统一的 Runner 执行：
//   - 脚本在构造期注册（fail-fast），运行期只按名称引用
//   - go-redis 的 Script 自带 EVALSHA 缓存与 EVAL 回退，无需重复实现
//   - 存储不可达时错误原样上抛（fail-closed），调用方不得假设脚本已执行
//
// # 核心组件
//
//   - Runner：持有 redis.UniversalClient 与命名脚本注册表
//   - Register / MustRegister：注册脚本源码
//   - Run：按名称执行，返回整型结果
//
// 典型使用方为分布式锁的安全释放（compare-then-delete）与秒杀准入
// 检查（库存 + 一人一单），详见 xlock 与 xseckill。
package xscript
