// 版权所有 2024 SocialForge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 提供基于 Redis 的缓存管理能力，用于按图片摘要缓存
图片分析结果，避免同一张图在多平台生成时重复分析。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端与连接池配置，
    提供 Get/Set/Delete 基础操作与 GetJSON/SetJSON 序列化方法。
  - Config：缓存配置，包含地址、密码、连接池大小与默认 TTL。

# 错误语义

提供 ErrCacheMiss 哨兵错误与 IsCacheMiss 判断函数；缓存不可用
时上层应降级为直接调用，而不是失败。
*/
package cache
