package xfile_test

import (
	"errors"
	"fmt"

	"github.com/omeyang/xfilestore/pkg/util/xfile"
)

func ExampleValidateName() {
	for _, key := range []string{"report.bin", "../etc", ".."} {
		err := xfile.ValidateName(key)
		fmt.Println(key, errors.Is(err, xfile.ErrInvalidName))
	}
	// Output:
	// report.bin false
	// ../etc true
	// .. true
}

func ExampleSafeJoin() {
	p, err := xfile.SafeJoin("/data", "buckets", "3")
	fmt.Println(p, err)

	_, err = xfile.SafeJoin("/data", "../etc/passwd")
	fmt.Println(errors.Is(err, xfile.ErrPathTraversal))
	// Output:
	// /data/buckets/3 <nil>
	// true
}
