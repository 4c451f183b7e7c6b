// Package config 提供 voicecanvas 的配置管理功能。
//
// 配置来源依次为默认值、YAML 文件与环境变量（VOICECANVAS_ 前缀），
// 加载完成后运行已注册的验证器。
package config
