package xmetrics

import "time"

func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

func Bool(key string, value bool) Attr {
	return Attr{Key: key, Value: value}
}

func Int(key string, value int) Attr {
	return Attr{Key: key, Value: value}
}

func Int64(key string, value int64) Attr {
	return Attr{Key: key, Value: value}
}

// Duration 建议使用带单位的 key，例如 "ttl_ms"。
func Duration(key string, value time.Duration) Attr {
	return Attr{Key: key, Value: value}
}
