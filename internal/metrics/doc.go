// 版权所有 2024 SocialForge Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的全链路指标采集能力，覆盖
HTTP、LLM、生成任务与缓存四大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 主要能力

  - HTTP 指标：请求总数与请求耗时，按 method/path/status 分组。
  - LLM 指标：请求总数、请求耗时、Token 用量（prompt/completion），
    按 provider/model 分组。
  - 任务指标：任务总数（按 schema 与最终状态）、任务耗时、
    每任务尝试次数、校验问题计数（按规则）、前缀修复计数。
  - 缓存指标：命中与未命中计数，按 cache 名称分组。
*/
package metrics
