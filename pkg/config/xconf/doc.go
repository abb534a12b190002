// Package xconf 基于 koanf 的配置加载。
//
// 支持 YAML 与 JSON，按扩展名自动识别；[Config.Unmarshal] 使用 koanf 标签。
// 目标结构体中已有的字段值在配置缺省时保持不变，可直接作为默认值使用。
//
// [Watch] 监视配置文件所在目录，文件变更（含编辑器的删除重建）在防抖后
// 触发 Reload 并回调，适合动态调整日志级别等场景：
//
//	w, _ := xconf.Watch(cfg, func(c xconf.Config, err error) { ... })
//	group.Go(w.Run) // 随 ctx 取消退出
package xconf
