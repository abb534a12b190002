package xconf_test

import (
	"fmt"

	"github.com/omeyang/xfilestore/pkg/config/xconf"
)

func ExampleNewFromBytes() {
	cfg, err := xconf.NewFromBytes([]byte("http:\n  addr: \":8080\"\n"), xconf.FormatYAML)
	if err != nil {
		fmt.Println(err)
		return
	}
	var http struct {
		Addr string `koanf:"addr"`
	}
	if err := cfg.Unmarshal("http", &http); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(http.Addr)
	// Output: :8080
}
