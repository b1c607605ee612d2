package xseckill

import "strconv"

// === 准入脚本 ===

// 准入结果码，与脚本返回值一一对应。
const (
	codeAdmitted  = 0 // 准入成功，库存已扣减、用户已记录
	codeSoldOut   = 1 // 库存不足
	codeDuplicate = 2 // 用户已购买
)

const admissionScriptName = "xseckill:admission"

// admissionScript 在一次原子执行中完成库存校验、去重校验、
// 库存扣减与购买集合写入。这是两个 key 唯一的变更入口，
// 也是所有并发准入的唯一串行化点。
//
// KEYS[1] 库存计数器，KEYS[2] 已购用户集合，ARGV[1] 用户 ID。
const admissionScript = `local stock = tonumber(redis.call('GET', KEYS[1]) or '0')
if stock <= 0 then
    return 1
end
if redis.call('SISMEMBER', KEYS[2], ARGV[1]) == 1 then
    return 2
end
redis.call('INCRBY', KEYS[1], -1)
redis.call('SADD', KEYS[2], ARGV[1])
return 0`

// === key 构造 ===

const (
	stockKeyPrefix  = "seckill:stock:"
	boughtKeyPrefix = "seckill:bought:"
)

func stockKey(skuID int64) string {
	return stockKeyPrefix + strconv.FormatInt(skuID, 10)
}

func boughtKey(skuID int64) string {
	return boughtKeyPrefix + strconv.FormatInt(skuID, 10)
}
