// Copyright 2026 Roxy Light
// SPDX-License-Identifier: ISC

package preg_test

import (
	"fmt"

	"zombiezen.com/go/preg"
)

func Example() {
	// The host knows the pattern is the same for every row.
	pattern := preg.TextArg(`/(?<area>\d{3})-(\d{4})/`)
	pattern.Constant = true

	f, err := preg.Init(&preg.Call{Args: []preg.Arg{pattern, preg.TextArg("")}}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Deinit()

	for _, subject := range []string{"call 555-1234", "no number", "or 555-9876"} {
		res := f.Capture([]preg.Arg{pattern, preg.TextArg(subject), preg.TextArg("area")})
		if res.IsNull() {
			fmt.Println("NULL")
			continue
		}
		fmt.Println(res.Text())
	}
	// Output:
	// 555
	// NULL
	// 555
}

func ExampleFunc_Replace() {
	f, err := preg.Init(&preg.Call{Args: []preg.Arg{preg.TextArg(""), preg.TextArg("")}}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer f.Deinit()

	res := f.Replace([]preg.Arg{
		preg.TextArg(`/(\w+)@(\w+)\.com/i`),
		preg.TextArg(`$2 at \1`),
		preg.TextArg("Mail ross@example.com or roxy@EXAMPLE.com"),
	})
	fmt.Println(res.Text())
	// Output:
	// Mail example at ross or EXAMPLE at roxy
}

func ExampleCheck() {
	for _, s := range []string{"/a+/i", "/a+/q", "a+"} {
		fmt.Println(s, preg.Check(preg.TextArg(s), nil).Int)
	}
	// Output:
	// /a+/i 1
	// /a+/q 0
	// a+ 0
}
