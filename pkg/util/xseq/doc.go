// Package xseq 提供基于共享存储原子自增的分布式序列 ID 生成器。
//
// ID 为 int64，布局：高位是自纪元起的秒数，低 32 位是共享存储中
// 按逻辑 key + 自然日自增的计数器：
//
//	id = (elapsedSeconds << 32) | (INCR(seq:{key}:{yyyyMMdd}) & 0xFFFFFFFF)
//
// 只要时钟不回拨，同一逻辑 key 下的 ID 单调递增且全进程无碰撞。
// 计数器按秒在 32 位内回绕，设计假设单 key 每秒吞吐低于回绕阈值，
// 该假设不在运行期校验。按日切分计数器 key 限制了单个计数器的增长。
//
// 计数来自共享存储的原子自增：存储不可达时返回错误（fail-closed），
// 没有本地退化方案——宁可拒绝生成也不冒 ID 冲突的风险。
package xseq
